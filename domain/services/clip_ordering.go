package services

import "github.com/TorresLabs/aika-server/domain/core/valueobjects"

// NextClipPosition computes where a new clip goes given the account's most
// recent clip for the same episode (nil if none) and the current unix time.
//
// The index continues the previous clip's sequence and the timestamp is
// strictly greater than the previous clip's, even when clips are created
// within the same second or the clock went backwards.
//
// Two concurrent callers that read the same previous clip get the same
// position. The repository decides whether the second write overwrites the
// first or fails with a conflict.
func NextClipPosition(previous *valueobjects.ClipPosition, now int64) valueobjects.ClipPosition {
	if previous == nil {
		return valueobjects.ClipPosition{Index: 0, Timestamp: now}
	}

	return valueobjects.ClipPosition{
		Index:     previous.Index + 1,
		Timestamp: after(previous.Timestamp, now),
	}
}

// NextFollowTimestamp returns the follow timestamp of a new follow entry
// given the account's latest one (nil if none). Follow entries are keyed by
// their timestamp, so it follows the same bump rule as clips.
func NextFollowTimestamp(latest *int64, now int64) int64 {
	if latest == nil {
		return now
	}
	return after(*latest, now)
}

// after returns now, or previous+1 if now is not later than previous
func after(previous, now int64) int64 {
	if now <= previous {
		return previous + 1
	}
	return now
}
