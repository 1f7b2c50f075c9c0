// Package pagination encodes the opaque continuation tokens handed to API
// clients.
//
// Two cursor shapes exist. A scalar cursor carries a single timestamp and is
// lenient: a token that does not decode is treated as no token. A composite
// cursor carries a store key and is strict: a token that does not decode, or
// that was issued by a different list operation, is a client error.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/TorresLabs/aika-server/pkg/errors"
)

// Page sizes per list operation
const (
	ClipsPageSize            = 5
	FollowedPodcastsPageSize = 100
	EpisodesPageSize         = 30
)

// Kind names the list operation a composite cursor belongs to
type Kind string

const (
	KindClipsOfEpisode Kind = "clips-of-episode"
)

// IsFullPage reports whether a page of n items may be followed by another
func IsFullPage(n, pageSize int) bool {
	return pageSize > 0 && n == pageSize
}

// EncodeScalar encodes a timestamp cursor
func EncodeScalar(value int64) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.FormatInt(value, 10)))
}

// DecodeScalar decodes a timestamp cursor. ok is false for an empty,
// malformed or non-positive token, which callers treat as the first page.
func DecodeScalar(token string) (value int64, ok bool) {
	if token == "" {
		return 0, false
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return 0, false
	}
	value, err = strconv.ParseInt(string(raw), 10, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// NextScalar returns the token for the page after one ending at last, or ""
// when the page was not full.
func NextScalar(n, pageSize int, last int64) string {
	if !IsFullPage(n, pageSize) {
		return ""
	}
	return EncodeScalar(last)
}

type compositeToken[K any] struct {
	Kind Kind `json:"k"`
	Key  K    `json:"key"`
}

// EncodeComposite encodes a store key as a cursor for the given operation
func EncodeComposite[K any](kind Kind, key K) (string, error) {
	data, err := json.Marshal(compositeToken[K]{Kind: kind, Key: key})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeComposite decodes a cursor issued by EncodeComposite for the same
// kind. An empty token returns the zero key and ok false.
func DecodeComposite[K any](kind Kind, token string) (key K, ok bool, err error) {
	if token == "" {
		return key, false, nil
	}

	raw, decErr := base64.StdEncoding.DecodeString(token)
	if decErr != nil {
		return key, false, invalidToken().WithCause(decErr)
	}

	var decoded compositeToken[K]
	if jsonErr := json.Unmarshal(raw, &decoded); jsonErr != nil {
		return key, false, invalidToken().WithCause(jsonErr)
	}
	if decoded.Kind != kind {
		return key, false, invalidToken()
	}

	return decoded.Key, true, nil
}

func invalidToken() *errors.AppError {
	return errors.NewValidationError(errors.CodePaginationTokenInvalid, "pagination token is invalid")
}
