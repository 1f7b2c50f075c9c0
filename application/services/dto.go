package services

import (
	"github.com/TorresLabs/aika-server/domain/core/entities"
)

// CreateClipRequest is the client input of CreateClip
type CreateClipRequest struct {
	Title     string   `json:"title" validate:"required"`
	StartTime *float64 `json:"startTime" validate:"required"`
	EndTime   *float64 `json:"endTime" validate:"required"`
	Notes     string   `json:"notes"`
}

// ChangeClipRequest is the client input of ChangeClipData. Absent or empty
// fields stay unchanged.
type ChangeClipRequest struct {
	Title *string `json:"title"`
	Notes *string `json:"notes"`
}

// ClipResponse is the client representation of a clip
type ClipResponse struct {
	ClipID            string  `json:"clipId"`
	CreatorAccountID  string  `json:"creatorAccountId"`
	EpisodeID         string  `json:"episodeId"`
	CreationTimestamp int64   `json:"creationTimestamp"`
	StartTime         float64 `json:"startTime"`
	EndTime           float64 `json:"endTime"`
	Title             string  `json:"title"`
	Notes             string  `json:"notes"`
}

func newClipResponse(c *entities.Clip) ClipResponse {
	id := c.ID()
	return ClipResponse{
		ClipID:            id.String(),
		CreatorAccountID:  id.AccountID(),
		EpisodeID:         id.EpisodeID().String(),
		CreationTimestamp: c.CreationTimestamp(),
		StartTime:         c.Range().Start,
		EndTime:           c.Range().End,
		Title:             c.Title(),
		Notes:             c.Notes(),
	}
}

func newClipResponses(clips []*entities.Clip) []ClipResponse {
	out := make([]ClipResponse, 0, len(clips))
	for _, c := range clips {
		out = append(out, newClipResponse(c))
	}
	return out
}

// ListResponse is one page of a paginated listing. NextToken is null on the
// last page.
type ListResponse[T any] struct {
	Result    []T     `json:"result"`
	NextToken *string `json:"nextToken"`
}

func newListResponse[T any](result []T, nextToken string) ListResponse[T] {
	resp := ListResponse[T]{Result: result}
	if nextToken != "" {
		resp.NextToken = &nextToken
	}
	return resp
}

// FollowedPodcastResponse is a followed podcast joined with its follow entry
type FollowedPodcastResponse struct {
	PodcastID           string `json:"podcastId"`
	Name                string `json:"name"`
	Description         string `json:"description"`
	Author              string `json:"author"`
	AuthorURL           string `json:"authorUrl"`
	Genre               string `json:"genre"`
	Image               string `json:"image"`
	Source              string `json:"source"`
	SourceLink          string `json:"sourceLink"`
	FollowTimestamp     int64  `json:"followTimestamp"`
	LastPlayedTimestamp int64  `json:"lastPlayedTimestamp"`
	PlayedCount         int    `json:"playedCount"`
}

func newFollowedPodcastResponse(f entities.FollowedPodcast, p entities.Podcast) FollowedPodcastResponse {
	return FollowedPodcastResponse{
		PodcastID:           f.PodcastID,
		Name:                p.Name,
		Description:         p.Description,
		Author:              p.Author,
		AuthorURL:           p.AuthorURL,
		Genre:               p.Genre,
		Image:               p.Image,
		Source:              p.Source,
		SourceLink:          p.SourceLink,
		FollowTimestamp:     f.FollowTimestamp,
		LastPlayedTimestamp: f.LastPlayedTimestamp,
		PlayedCount:         f.PlayedCount,
	}
}

// EpisodeResponse is the client representation of an episode
type EpisodeResponse struct {
	EpisodeID        string `json:"episodeId"`
	PodcastID        string `json:"podcastId"`
	ReleaseIndex     int    `json:"releaseIndex"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	ReleaseTimestamp int64  `json:"releaseTimestamp"`
	Duration         string `json:"duration"`
	AudioURL         string `json:"audioUrl"`
	LikedCount       int    `json:"likedCount"`
}

func newEpisodeResponses(episodes []entities.Episode) []EpisodeResponse {
	out := make([]EpisodeResponse, 0, len(episodes))
	for _, e := range episodes {
		out = append(out, EpisodeResponse{
			EpisodeID:        e.ID(),
			PodcastID:        e.PodcastID,
			ReleaseIndex:     e.ReleaseIndex,
			Name:             e.Name,
			Description:      e.Description,
			ReleaseTimestamp: e.ReleaseTimestamp,
			Duration:         e.Duration,
			AudioURL:         e.AudioURL,
			LikedCount:       e.LikedCount,
		})
	}
	return out
}

// EpisodeQuery bounds GetEpisodesFromPodcast. Non-positive values are ignored.
type EpisodeQuery struct {
	// LastReleaseTimestamp asks for episodes released after it
	LastReleaseTimestamp int64
	// OldestReleaseTimestamp asks for episodes released before it
	OldestReleaseTimestamp int64
}

// FollowResponse describes the account's follow entry for a podcast
type FollowResponse struct {
	PodcastID       string `json:"podcastId"`
	FollowTimestamp int64  `json:"followTimestamp"`
}

// UnfollowResponse reports the removed follow entries
type UnfollowResponse struct {
	PodcastID   string `json:"podcastId"`
	Removed     int    `json:"removed"`
	Unprocessed int    `json:"unprocessed"`
}
