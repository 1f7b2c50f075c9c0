package ports

import (
	"context"

	"github.com/TorresLabs/aika-server/domain/core/entities"
	"github.com/TorresLabs/aika-server/domain/core/valueobjects"
	"github.com/TorresLabs/aika-server/domain/events"
)

// ClipPageKey is the store position a clips-of-episode page ended at
type ClipPageKey struct {
	EpisodeID string `json:"EID"`
	SortKey   string `json:"ACCIDX"`
}

// ClipPage is one page of an account's clips for an episode
type ClipPage struct {
	Clips   []*entities.Clip
	LastKey *ClipPageKey
}

// ClipRepository defines the interface for clip persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type ClipRepository interface {
	// Save stores a new clip. Depending on configuration an existing clip at
	// the same position is overwritten or the call fails with a conflict.
	Save(ctx context.Context, clip *entities.Clip) error

	// GetByID retrieves a clip, failing with a not found error if absent
	GetByID(ctx context.Context, id valueobjects.ClipID) (*entities.Clip, error)

	// GetLatest returns the account's most recent clip for the episode, or nil
	GetLatest(ctx context.Context, accountID string, episodeID valueobjects.EpisodeID) (*entities.Clip, error)

	// Update changes title and notes of an existing clip
	Update(ctx context.Context, id valueobjects.ClipID, changes entities.ClipChanges) (*entities.Clip, error)

	// Delete removes a clip, failing with a not found error if absent
	Delete(ctx context.Context, id valueobjects.ClipID) error

	// ListByAccount lists the account's clips with a creation timestamp after
	// the given one (all clips when nil), ascending
	ListByAccount(ctx context.Context, accountID string, after *int64, limit int) ([]*entities.Clip, error)

	// ListByAccountAndEpisode lists the account's clips for one episode,
	// newest first, resuming after startKey when given
	ListByAccountAndEpisode(ctx context.Context, accountID string, episodeID valueobjects.EpisodeID, startKey *ClipPageKey, limit int) (ClipPage, error)
}

// EpisodeRange bounds an episode listing by release timestamp. Both bounds
// are exclusive and optional.
type EpisodeRange struct {
	ReleasedAfter  *int64
	ReleasedBefore *int64
}

// PodcastRepository reads imported podcasts and episodes
type PodcastRepository interface {
	// GetPodcasts resolves podcasts by id. Ids that do not resolve are
	// omitted from the result; no error is returned for them.
	GetPodcasts(ctx context.Context, ids []string) ([]entities.Podcast, error)

	// GetEpisode returns the episode, or nil if it does not exist
	GetEpisode(ctx context.Context, id valueobjects.EpisodeID) (*entities.Episode, error)

	// ListEpisodes lists a podcast's episodes in the given release range
	ListEpisodes(ctx context.Context, podcastID string, r EpisodeRange, limit int) ([]entities.Episode, error)
}

// FollowRepository persists follow entries
type FollowRepository interface {
	// ListFollowed lists follow entries with a follow timestamp after the
	// given one (all when nil), ascending
	ListFollowed(ctx context.Context, accountID string, after *int64, limit int) ([]entities.FollowedPodcast, error)

	// GetLatest returns the account's most recent follow entry, or nil
	GetLatest(ctx context.Context, accountID string) (*entities.FollowedPodcast, error)

	// FindByPodcast returns every entry of the account for one podcast
	FindByPodcast(ctx context.Context, accountID, podcastID string) ([]entities.FollowedPodcast, error)

	// Save stores a new follow entry
	Save(ctx context.Context, follow entities.FollowedPodcast) error

	// Delete removes the given entries and returns those the store did not
	// process
	Delete(ctx context.Context, follows []entities.FollowedPodcast) ([]entities.FollowedPodcast, error)
}

// EventPublisher publishes domain events to external consumers
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}
