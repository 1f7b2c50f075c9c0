package dynamodb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TorresLabs/aika-server/domain/core/entities"
	"github.com/TorresLabs/aika-server/domain/core/valueobjects"
)

// Attribute names of the stored items
const (
	AttrPodcastID        = "PID"
	AttrName             = "NAME"
	AttrDescription      = "DESC"
	AttrAuthor           = "ATHR"
	AttrAuthorURL        = "ATHRURL"
	AttrGenre            = "GENRE"
	AttrImage            = "IMG"
	AttrSource           = "SRC"
	AttrSourceLink       = "SRCL"
	AttrReleaseIndex     = "IDX"
	AttrReleaseTimestamp = "RLSTS"
	AttrDuration         = "DRTN"
	AttrAudioURL         = "AUDURL"
	AttrLikedCount       = "LKD"
	AttrAccountID        = "ACCID"
	AttrFollowTimestamp  = "FLWTS"
	AttrLastPlayed       = "LUTS"
	AttrPlayedCount      = "PLAYD"
	AttrEpisodeID        = "EID"
	AttrAccountIndex     = "ACCIDX"
	AttrClipTimestamp    = "CLPTS"
	AttrStartTime        = "STRT"
	AttrEndTime          = "ENDT"
	AttrTitle            = "TITL"
	AttrNotes            = "NTS"
)

// Tables holds the configured table and index names
type Tables struct {
	Podcasts               string
	Episodes               string
	FollowedPodcasts       string
	Clips                  string
	ClipsByAccountIndex    string
	EpisodesByReleaseIndex string
}

// DefaultTables returns the production table layout
func DefaultTables() Tables {
	return Tables{
		Podcasts:               "PODCASTS",
		Episodes:               "EPISODES",
		FollowedPodcasts:       "FLWDPODCASTS",
		Clips:                  "CLIPS",
		ClipsByAccountIndex:    "ACCID-CLPTS-index",
		EpisodesByReleaseIndex: "PID-RLSTS-index",
	}
}

type podcastItem struct {
	PID     string `dynamodbav:"PID"`
	NAME    string `dynamodbav:"NAME"`
	DESC    string `dynamodbav:"DESC,omitempty"`
	ATHR    string `dynamodbav:"ATHR,omitempty"`
	ATHRURL string `dynamodbav:"ATHRURL,omitempty"`
	GENRE   string `dynamodbav:"GENRE,omitempty"`
	IMG     string `dynamodbav:"IMG,omitempty"`
	SRC     string `dynamodbav:"SRC,omitempty"`
	SRCL    string `dynamodbav:"SRCL,omitempty"`
}

func (i podcastItem) toEntity() entities.Podcast {
	return entities.Podcast{
		ID:          i.PID,
		Name:        i.NAME,
		Description: i.DESC,
		Author:      i.ATHR,
		AuthorURL:   i.ATHRURL,
		Genre:       i.GENRE,
		Image:       i.IMG,
		Source:      i.SRC,
		SourceLink:  i.SRCL,
	}
}

type podcastKey struct {
	PID string `dynamodbav:"PID"`
}

type episodeItem struct {
	PID    string `dynamodbav:"PID"`
	IDX    int    `dynamodbav:"IDX"`
	NAME   string `dynamodbav:"NAME"`
	DESC   string `dynamodbav:"DESC,omitempty"`
	RLSTS  int64  `dynamodbav:"RLSTS"`
	DRTN   string `dynamodbav:"DRTN,omitempty"`
	AUDURL string `dynamodbav:"AUDURL,omitempty"`
	LKD    int    `dynamodbav:"LKD"`
}

func (i episodeItem) toEntity() entities.Episode {
	return entities.Episode{
		PodcastID:        i.PID,
		ReleaseIndex:     i.IDX,
		Name:             i.NAME,
		Description:      i.DESC,
		ReleaseTimestamp: i.RLSTS,
		Duration:         i.DRTN,
		AudioURL:         i.AUDURL,
		LikedCount:       i.LKD,
	}
}

type episodeKey struct {
	PID string `dynamodbav:"PID"`
	IDX int    `dynamodbav:"IDX"`
}

type followItem struct {
	ACCID string `dynamodbav:"ACCID"`
	FLWTS int64  `dynamodbav:"FLWTS"`
	PID   string `dynamodbav:"PID"`
	LUTS  int64  `dynamodbav:"LUTS,omitempty"`
	PLAYD int    `dynamodbav:"PLAYD"`
}

func newFollowItem(f entities.FollowedPodcast) followItem {
	return followItem{
		ACCID: f.AccountID,
		FLWTS: f.FollowTimestamp,
		PID:   f.PodcastID,
		LUTS:  f.LastPlayedTimestamp,
		PLAYD: f.PlayedCount,
	}
}

func (i followItem) toEntity() entities.FollowedPodcast {
	return entities.FollowedPodcast{
		AccountID:           i.ACCID,
		FollowTimestamp:     i.FLWTS,
		PodcastID:           i.PID,
		LastPlayedTimestamp: i.LUTS,
		PlayedCount:         i.PLAYD,
	}
}

type followKey struct {
	ACCID string `dynamodbav:"ACCID"`
	FLWTS int64  `dynamodbav:"FLWTS"`
}

type clipItem struct {
	EID    string  `dynamodbav:"EID"`
	ACCIDX string  `dynamodbav:"ACCIDX"`
	ACCID  string  `dynamodbav:"ACCID"`
	CLPTS  int64   `dynamodbav:"CLPTS"`
	STRT   float64 `dynamodbav:"STRT"`
	ENDT   float64 `dynamodbav:"ENDT"`
	TITL   string  `dynamodbav:"TITL"`
	NTS    string  `dynamodbav:"NTS,omitempty"`
}

func newClipItem(c *entities.Clip) clipItem {
	id := c.ID()
	return clipItem{
		EID:    id.EpisodeID().String(),
		ACCIDX: clipSortKey(id.AccountID(), id.Index()),
		ACCID:  id.AccountID(),
		CLPTS:  c.CreationTimestamp(),
		STRT:   c.Range().Start,
		ENDT:   c.Range().End,
		TITL:   c.Title(),
		NTS:    c.Notes(),
	}
}

func (i clipItem) toEntity() (*entities.Clip, error) {
	episodeID, err := valueobjects.ParseEpisodeID(i.EID)
	if err != nil {
		return nil, fmt.Errorf("stored clip has invalid episode id %q: %w", i.EID, err)
	}
	accountID, index, err := parseClipSortKey(i.ACCIDX)
	if err != nil {
		return nil, err
	}
	id, err := valueobjects.NewClipID(episodeID, accountID, index)
	if err != nil {
		return nil, fmt.Errorf("stored clip has invalid id: %w", err)
	}

	return entities.ReconstructClip(id, i.CLPTS, entities.ClipRange{Start: i.STRT, End: i.ENDT}, i.TITL, i.NTS), nil
}

// clipKey is the primary key of a clip row. Its JSON form is what clients
// receive, wrapped, as the clips-of-episode cursor.
type clipKey struct {
	EID    string `dynamodbav:"EID" json:"EID"`
	ACCIDX string `dynamodbav:"ACCIDX" json:"ACCIDX"`
}

func newClipKey(id valueobjects.ClipID) clipKey {
	return clipKey{
		EID:    id.EpisodeID().String(),
		ACCIDX: clipSortKey(id.AccountID(), id.Index()),
	}
}

// clipIndexWidth zero-pads the clip index so the sort key orders clips of
// one account numerically.
const clipIndexWidth = 10

func clipSortKey(accountID string, index int) string {
	return fmt.Sprintf("%s_%0*d", accountID, clipIndexWidth, index)
}

func clipSortKeyPrefix(accountID string) string {
	return accountID + "_"
}

func parseClipSortKey(sortKey string) (string, int, error) {
	sep := strings.LastIndex(sortKey, "_")
	if sep <= 0 || sep == len(sortKey)-1 {
		return "", 0, fmt.Errorf("stored clip has invalid sort key %q", sortKey)
	}
	index, err := strconv.Atoi(sortKey[sep+1:])
	if err != nil || index < 0 {
		return "", 0, fmt.Errorf("stored clip has invalid sort key %q", sortKey)
	}
	return sortKey[:sep], index, nil
}
