package valueobjects

// ClipPosition is where a clip sits in the sequence of clips one account
// created for one episode.
type ClipPosition struct {
	Index     int
	Timestamp int64
}
