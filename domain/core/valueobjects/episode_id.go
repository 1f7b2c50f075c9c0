package valueobjects

import (
	"strconv"

	"github.com/google/uuid"

	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
)

// podcastIDLength is the length of a canonical UUID string
const podcastIDLength = 36

// EpisodeID identifies an episode externally: the podcast UUID immediately
// followed by the decimal release index.
type EpisodeID struct {
	podcastID    string
	releaseIndex int
}

// NewEpisodeID creates an EpisodeID from its parts
func NewEpisodeID(podcastID string, releaseIndex int) (EpisodeID, error) {
	if !IsValidPodcastID(podcastID) {
		return EpisodeID{}, pkgerrors.NewValidationError(pkgerrors.CodeEpisodeIDInvalid, "podcast part of episode id must be a valid UUID")
	}
	if releaseIndex < 0 {
		return EpisodeID{}, pkgerrors.NewValidationError(pkgerrors.CodeEpisodeIDInvalid, "release index must not be negative")
	}
	return EpisodeID{podcastID: podcastID, releaseIndex: releaseIndex}, nil
}

// ParseEpisodeID splits an external episode id into podcast id and release index
func ParseEpisodeID(id string) (EpisodeID, error) {
	if id == "" {
		return EpisodeID{}, pkgerrors.NewValidationError(pkgerrors.CodeEpisodeIDMissing, "episode id is missing")
	}
	if len(id) <= podcastIDLength {
		return EpisodeID{}, pkgerrors.NewValidationError(pkgerrors.CodeEpisodeIDInvalid, "episode id is too short")
	}

	index, err := strconv.Atoi(id[podcastIDLength:])
	if err != nil {
		return EpisodeID{}, pkgerrors.NewValidationError(pkgerrors.CodeEpisodeIDInvalid, "episode release index is not a number").WithCause(err)
	}

	return NewEpisodeID(id[:podcastIDLength], index)
}

// PodcastID returns the podcast the episode belongs to
func (id EpisodeID) PodcastID() string { return id.podcastID }

// ReleaseIndex returns the episode's position within its podcast
func (id EpisodeID) ReleaseIndex() int { return id.releaseIndex }

// String returns the external representation
func (id EpisodeID) String() string {
	if id.IsZero() {
		return ""
	}
	return id.podcastID + strconv.Itoa(id.releaseIndex)
}

// IsZero checks if the EpisodeID is the zero value
func (id EpisodeID) IsZero() bool {
	return id.podcastID == ""
}

// IsValidPodcastID reports whether s is a canonical UUID string
func IsValidPodcastID(s string) bool {
	if len(s) != podcastIDLength {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
