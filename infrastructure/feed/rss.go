package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/eduncan911/podcast"

	"github.com/TorresLabs/aika-server/domain/core/entities"
)

// Renderer renders a podcast and its episodes as an RSS 2.0 document with
// iTunes tags
type Renderer struct {
	baseURL string
}

// NewRenderer creates a renderer whose self links point below baseURL
func NewRenderer(baseURL string) *Renderer {
	return &Renderer{baseURL: strings.TrimRight(baseURL, "/")}
}

// FeedURL is the public address of a podcast's feed
func (r *Renderer) FeedURL(podcastID string) string {
	return fmt.Sprintf("%s/podcast/feed/%s", r.baseURL, podcastID)
}

// Render builds the feed. Episodes keep the given order; release
// timestamps are unix seconds.
func (r *Renderer) Render(p entities.Podcast, episodes []entities.Episode, now time.Time) (string, error) {
	link := p.SourceLink
	if link == "" {
		link = r.FeedURL(p.ID)
	}

	built := now.UTC()
	lastRelease := built
	if len(episodes) > 0 {
		lastRelease = time.Unix(latestRelease(episodes), 0).UTC()
	}

	feed := podcast.New(p.Name, link, orDefault(p.Description, p.Name), &lastRelease, &built)
	feed.IAuthor = p.Author
	feed.AddImage(p.Image)
	if p.Genre != "" {
		feed.AddCategory(p.Genre, nil)
	}

	for _, episode := range episodes {
		published := time.Unix(episode.ReleaseTimestamp, 0).UTC()

		item := podcast.Item{
			GUID:        episode.ID(),
			Title:       episode.Name,
			Description: orDefault(episode.Description, episode.Name),
			IDuration:   episode.Duration,
		}
		item.AddPubDate(&published)

		if episode.AudioURL != "" {
			item.AddEnclosure(episode.AudioURL, podcast.MP3, 0)
		} else {
			item.Link = link
		}

		if _, err := feed.AddItem(item); err != nil {
			return "", fmt.Errorf("failed to add episode %s to feed: %w", episode.ID(), err)
		}
	}

	return feed.String(), nil
}

func latestRelease(episodes []entities.Episode) int64 {
	latest := episodes[0].ReleaseTimestamp
	for _, e := range episodes[1:] {
		if e.ReleaseTimestamp > latest {
			latest = e.ReleaseTimestamp
		}
	}
	return latest
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
