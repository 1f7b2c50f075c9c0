package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// SourceService is the event source of everything this service publishes
const SourceService = "aika.server"

// Event types
const (
	TypeClipCreated       = "clip.created"
	TypeClipChanged       = "clip.changed"
	TypeClipDeleted       = "clip.deleted"
	TypePodcastFollowed   = "podcast.followed"
	TypePodcastUnfollowed = "podcast.unfollowed"
)

// Clip Events

// ClipCreated is raised after a clip was stored
type ClipCreated struct {
	BaseEvent
	ClipID            string `json:"clip_id"`
	AccountID         string `json:"account_id"`
	EpisodeID         string `json:"episode_id"`
	ClipIndex         int    `json:"clip_index"`
	CreationTimestamp int64  `json:"creation_timestamp"`
}

// NewClipCreated creates a ClipCreated event
func NewClipCreated(clipID, accountID, episodeID string, clipIndex int, creationTimestamp int64, timestamp time.Time) ClipCreated {
	return ClipCreated{
		BaseEvent: BaseEvent{
			AggregateID: clipID,
			EventType:   TypeClipCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		ClipID:            clipID,
		AccountID:         accountID,
		EpisodeID:         episodeID,
		ClipIndex:         clipIndex,
		CreationTimestamp: creationTimestamp,
	}
}

// ClipChanged is raised after a clip's title or notes changed
type ClipChanged struct {
	BaseEvent
	ClipID        string   `json:"clip_id"`
	AccountID     string   `json:"account_id"`
	ChangedFields []string `json:"changed_fields"`
}

// NewClipChanged creates a ClipChanged event
func NewClipChanged(clipID, accountID string, changedFields []string, timestamp time.Time) ClipChanged {
	return ClipChanged{
		BaseEvent: BaseEvent{
			AggregateID: clipID,
			EventType:   TypeClipChanged,
			Timestamp:   timestamp,
			Version:     1,
		},
		ClipID:        clipID,
		AccountID:     accountID,
		ChangedFields: changedFields,
	}
}

// ClipDeleted is raised after a clip was removed by its owner
type ClipDeleted struct {
	BaseEvent
	ClipID    string `json:"clip_id"`
	AccountID string `json:"account_id"`
}

// NewClipDeleted creates a ClipDeleted event
func NewClipDeleted(clipID, accountID string, timestamp time.Time) ClipDeleted {
	return ClipDeleted{
		BaseEvent: BaseEvent{
			AggregateID: clipID,
			EventType:   TypeClipDeleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		ClipID:    clipID,
		AccountID: accountID,
	}
}

// Follow Events

// PodcastFollowed is raised when an account starts following a podcast
type PodcastFollowed struct {
	BaseEvent
	AccountID       string `json:"account_id"`
	PodcastID       string `json:"podcast_id"`
	FollowTimestamp int64  `json:"follow_timestamp"`
}

// NewPodcastFollowed creates a PodcastFollowed event
func NewPodcastFollowed(accountID, podcastID string, followTimestamp int64, timestamp time.Time) PodcastFollowed {
	return PodcastFollowed{
		BaseEvent: BaseEvent{
			AggregateID: podcastID,
			EventType:   TypePodcastFollowed,
			Timestamp:   timestamp,
			Version:     1,
		},
		AccountID:       accountID,
		PodcastID:       podcastID,
		FollowTimestamp: followTimestamp,
	}
}

// PodcastUnfollowed is raised when an account stops following a podcast
type PodcastUnfollowed struct {
	BaseEvent
	AccountID string `json:"account_id"`
	PodcastID string `json:"podcast_id"`
}

// NewPodcastUnfollowed creates a PodcastUnfollowed event
func NewPodcastUnfollowed(accountID, podcastID string, timestamp time.Time) PodcastUnfollowed {
	return PodcastUnfollowed{
		BaseEvent: BaseEvent{
			AggregateID: podcastID,
			EventType:   TypePodcastUnfollowed,
			Timestamp:   timestamp,
			Version:     1,
		},
		AccountID: accountID,
		PodcastID: podcastID,
	}
}
