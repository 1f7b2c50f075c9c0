package valueobjects

import (
	"strconv"
	"strings"

	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
)

// clipIDSeparator joins the parts of a clip id. Account ids must not contain it.
const clipIDSeparator = "_"

// ClipID is the composite identity of a clip: (episode, account, index)
type ClipID struct {
	episodeID EpisodeID
	accountID string
	index     int
}

// NewClipID creates a ClipID from its parts
func NewClipID(episodeID EpisodeID, accountID string, index int) (ClipID, error) {
	if episodeID.IsZero() {
		return ClipID{}, pkgerrors.NewValidationError(pkgerrors.CodeEpisodeIDMissing, "episode id is missing")
	}
	if accountID == "" {
		return ClipID{}, pkgerrors.NewValidationError(pkgerrors.CodeAccountIDMissing, "account id is missing")
	}
	if strings.Contains(accountID, clipIDSeparator) {
		return ClipID{}, pkgerrors.NewValidationError(pkgerrors.CodeClipIDInvalid, "account id must not contain '_'")
	}
	if index < 0 {
		return ClipID{}, pkgerrors.NewValidationError(pkgerrors.CodeClipIDInvalid, "clip index must not be negative")
	}
	return ClipID{episodeID: episodeID, accountID: accountID, index: index}, nil
}

// ParseClipID parses "<episodeId>_<accountId>_<clipIndex>"
func ParseClipID(id string) (ClipID, error) {
	if id == "" {
		return ClipID{}, pkgerrors.NewValidationError(pkgerrors.CodeClipIDMissing, "clip id is missing")
	}

	parts := strings.Split(id, clipIDSeparator)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return ClipID{}, invalidClipID()
	}

	episodeID, err := ParseEpisodeID(parts[0])
	if err != nil {
		return ClipID{}, invalidClipID().WithCause(err)
	}

	index, err := strconv.Atoi(parts[2])
	if err != nil || index < 0 {
		return ClipID{}, invalidClipID()
	}

	return ClipID{episodeID: episodeID, accountID: parts[1], index: index}, nil
}

func invalidClipID() *pkgerrors.AppError {
	return pkgerrors.NewValidationError(pkgerrors.CodeClipIDInvalid, "clip id is invalid")
}

func (id ClipID) EpisodeID() EpisodeID { return id.episodeID }
func (id ClipID) AccountID() string    { return id.accountID }
func (id ClipID) Index() int           { return id.index }

// String returns the external representation
func (id ClipID) String() string {
	return id.episodeID.String() + clipIDSeparator + id.accountID + clipIDSeparator + strconv.Itoa(id.index)
}

// Equals checks if two ClipIDs are equal
func (id ClipID) Equals(other ClipID) bool {
	return id == other
}
