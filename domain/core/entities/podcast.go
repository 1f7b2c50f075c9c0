package entities

import "github.com/TorresLabs/aika-server/domain/core/valueobjects"

// Podcast is a show imported from an external source. Read-only here.
type Podcast struct {
	ID          string
	Name        string
	Description string
	Author      string
	AuthorURL   string
	Genre       string
	Image       string
	Source      string
	SourceLink  string
}

// Episode is one release of a podcast. Read-only here.
type Episode struct {
	PodcastID        string
	ReleaseIndex     int
	Name             string
	Description      string
	ReleaseTimestamp int64
	Duration         string
	AudioURL         string
	LikedCount       int
}

// ID returns the external episode id
func (e Episode) ID() string {
	id, err := valueobjects.NewEpisodeID(e.PodcastID, e.ReleaseIndex)
	if err != nil {
		return ""
	}
	return id.String()
}

// FollowedPodcast is an immutable follow entry. Re-following creates a new
// entry with a new FollowTimestamp, so for one account the timestamp is a
// unique and stable cursor.
type FollowedPodcast struct {
	AccountID           string
	FollowTimestamp     int64
	PodcastID           string
	LastPlayedTimestamp int64
	PlayedCount         int
}
