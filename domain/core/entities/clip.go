package entities

import (
	"github.com/TorresLabs/aika-server/domain/core/valueobjects"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
)

// ClipRange is the bookmarked part of an episode in seconds
type ClipRange struct {
	Start float64
	End   float64
}

// Validate enforces 0 <= start < end
func (r ClipRange) Validate() error {
	if r.Start < 0 || r.Start >= r.End {
		return pkgerrors.NewValidationError(pkgerrors.CodeClipTimesAreIncorrect,
			"clip times are incorrect: start must not be negative and end must be after start")
	}
	return nil
}

// Clip is a time range of an episode bookmarked by an account
type Clip struct {
	id                valueobjects.ClipID
	creationTimestamp int64
	timeRange         ClipRange
	title             string
	notes             string
}

// NewClip creates a clip at the given position with business rule validation
func NewClip(episodeID valueobjects.EpisodeID, accountID string, position valueobjects.ClipPosition, timeRange ClipRange, title, notes string) (*Clip, error) {
	if title == "" {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeClipDataIncomplete, "clip title is required")
	}
	if err := timeRange.Validate(); err != nil {
		return nil, err
	}

	id, err := valueobjects.NewClipID(episodeID, accountID, position.Index)
	if err != nil {
		return nil, err
	}

	return &Clip{
		id:                id,
		creationTimestamp: position.Timestamp,
		timeRange:         timeRange,
		title:             title,
		notes:             notes,
	}, nil
}

// ReconstructClip rebuilds a clip from storage without validation
func ReconstructClip(id valueobjects.ClipID, creationTimestamp int64, timeRange ClipRange, title, notes string) *Clip {
	return &Clip{
		id:                id,
		creationTimestamp: creationTimestamp,
		timeRange:         timeRange,
		title:             title,
		notes:             notes,
	}
}

func (c *Clip) ID() valueobjects.ClipID  { return c.id }
func (c *Clip) AccountID() string        { return c.id.AccountID() }
func (c *Clip) CreationTimestamp() int64 { return c.creationTimestamp }
func (c *Clip) Range() ClipRange         { return c.timeRange }
func (c *Clip) Title() string            { return c.title }
func (c *Clip) Notes() string            { return c.notes }

// Position returns the clip's place in its (account, episode) sequence
func (c *Clip) Position() valueobjects.ClipPosition {
	return valueobjects.ClipPosition{Index: c.id.Index(), Timestamp: c.creationTimestamp}
}

// IsOwnedBy checks whether accountID created the clip
func (c *Clip) IsOwnedBy(accountID string) bool {
	return c.id.AccountID() == accountID
}

// ClipChanges is the set of clip fields an owner may change after creation
type ClipChanges struct {
	Title *string
	Notes *string
}

// IsEmpty reports whether no change is requested. Empty strings count as
// absent.
func (c ClipChanges) IsEmpty() bool {
	return (c.Title == nil || *c.Title == "") && (c.Notes == nil || *c.Notes == "")
}
