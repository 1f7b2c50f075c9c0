package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/TorresLabs/aika-server/application/ports"
	"github.com/TorresLabs/aika-server/domain/core/entities"
	"github.com/TorresLabs/aika-server/domain/core/valueobjects"
	"github.com/TorresLabs/aika-server/domain/events"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
)

const (
	testPodcastID = "6b1b3e0e-5f6c-4d0b-9a8e-2f3c4d5e6f70"
	testEpisodeID = testPodcastID + "3"
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func float(v float64) *float64 { return &v }

func text(v string) *string { return &v }

// memoryClips keeps clips in memory, ordered like the table and its index
type memoryClips struct {
	mu    sync.Mutex
	clips map[string]*entities.Clip
	saves int
}

func newMemoryClips() *memoryClips {
	return &memoryClips{clips: make(map[string]*entities.Clip)}
}

func (m *memoryClips) Save(_ context.Context, clip *entities.Clip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := clip.ID().String()
	if _, ok := m.clips[key]; ok {
		return pkgerrors.NewConflictError(pkgerrors.CodeClipAlreadyExists, "clip already exists")
	}
	m.clips[key] = clip
	m.saves++
	return nil
}

func (m *memoryClips) GetByID(_ context.Context, id valueobjects.ClipID) (*entities.Clip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clip, ok := m.clips[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(pkgerrors.CodeClipDataDoesntExist, "clip")
	}
	return clip, nil
}

func (m *memoryClips) GetLatest(_ context.Context, accountID string, episodeID valueobjects.EpisodeID) (*entities.Clip, error) {
	clips := m.ofEpisode(accountID, episodeID)
	if len(clips) == 0 {
		return nil, nil
	}
	return clips[0], nil
}

func (m *memoryClips) Update(_ context.Context, id valueobjects.ClipID, changes entities.ClipChanges) (*entities.Clip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clip, ok := m.clips[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(pkgerrors.CodeClipDataDoesntExist, "clip")
	}
	title, notes := clip.Title(), clip.Notes()
	if changes.Title != nil && *changes.Title != "" {
		title = *changes.Title
	}
	if changes.Notes != nil && *changes.Notes != "" {
		notes = *changes.Notes
	}
	updated := entities.ReconstructClip(id, clip.CreationTimestamp(), clip.Range(), title, notes)
	m.clips[id.String()] = updated
	return updated, nil
}

func (m *memoryClips) Delete(_ context.Context, id valueobjects.ClipID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clips[id.String()]; !ok {
		return pkgerrors.NewNotFoundError(pkgerrors.CodeClipDataDoesntExist, "clip")
	}
	delete(m.clips, id.String())
	return nil
}

func (m *memoryClips) ListByAccount(_ context.Context, accountID string, after *int64, limit int) ([]*entities.Clip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entities.Clip
	for _, c := range m.clips {
		if c.AccountID() != accountID || (after != nil && c.CreationTimestamp() <= *after) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreationTimestamp() < out[j].CreationTimestamp() })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryClips) ListByAccountAndEpisode(_ context.Context, accountID string, episodeID valueobjects.EpisodeID, startKey *ports.ClipPageKey, limit int) (ports.ClipPage, error) {
	var page ports.ClipPage
	for _, c := range m.ofEpisode(accountID, episodeID) {
		key := pageKey(c)
		if startKey != nil && key.SortKey >= startKey.SortKey {
			continue
		}
		page.Clips = append(page.Clips, c)
		if len(page.Clips) == limit {
			page.LastKey = &key
			break
		}
	}
	return page, nil
}

// ofEpisode returns the account's clips of one episode, newest first
func (m *memoryClips) ofEpisode(accountID string, episodeID valueobjects.EpisodeID) []*entities.Clip {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entities.Clip
	for _, c := range m.clips {
		if c.AccountID() == accountID && c.ID().EpisodeID() == episodeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().Index() > out[j].ID().Index() })
	return out
}

func pageKey(c *entities.Clip) ports.ClipPageKey {
	return ports.ClipPageKey{
		EpisodeID: c.ID().EpisodeID().String(),
		SortKey:   fmt.Sprintf("%s_%010d", c.AccountID(), c.ID().Index()),
	}
}

// memoryPodcasts serves a fixed catalog
type memoryPodcasts struct {
	podcasts map[string]entities.Podcast
	episodes []entities.Episode
	err      error
}

func newMemoryPodcasts(podcasts ...entities.Podcast) *memoryPodcasts {
	m := &memoryPodcasts{podcasts: make(map[string]entities.Podcast)}
	for _, p := range podcasts {
		m.podcasts[p.ID] = p
	}
	return m
}

func (m *memoryPodcasts) GetPodcasts(_ context.Context, ids []string) ([]entities.Podcast, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []entities.Podcast
	for _, id := range ids {
		if p, ok := m.podcasts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPodcasts) GetEpisode(_ context.Context, id valueobjects.EpisodeID) (*entities.Episode, error) {
	for _, e := range m.episodes {
		if e.ID() == id.String() {
			return &e, nil
		}
	}
	return nil, nil
}

func (m *memoryPodcasts) ListEpisodes(_ context.Context, podcastID string, r ports.EpisodeRange, limit int) ([]entities.Episode, error) {
	var out []entities.Episode
	for _, e := range m.episodes {
		if e.PodcastID != podcastID {
			continue
		}
		if r.ReleasedAfter != nil && e.ReleaseTimestamp <= *r.ReleasedAfter {
			continue
		}
		if r.ReleasedBefore != nil && e.ReleaseTimestamp >= *r.ReleasedBefore {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReleaseTimestamp > out[j].ReleaseTimestamp })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memoryFollows keeps follow entries in memory. conflicts makes that many
// saves fail as if another request took the timestamp first.
type memoryFollows struct {
	mu          sync.Mutex
	follows     []entities.FollowedPodcast
	conflicts   int
	unprocessed int
}

func (m *memoryFollows) ListFollowed(_ context.Context, accountID string, after *int64, limit int) ([]entities.FollowedPodcast, error) {
	var out []entities.FollowedPodcast
	for _, f := range m.sorted(accountID) {
		if after != nil && f.FollowTimestamp <= *after {
			continue
		}
		out = append(out, f)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryFollows) GetLatest(_ context.Context, accountID string) (*entities.FollowedPodcast, error) {
	follows := m.sorted(accountID)
	if len(follows) == 0 {
		return nil, nil
	}
	return &follows[len(follows)-1], nil
}

func (m *memoryFollows) FindByPodcast(_ context.Context, accountID, podcastID string) ([]entities.FollowedPodcast, error) {
	var out []entities.FollowedPodcast
	for _, f := range m.sorted(accountID) {
		if f.PodcastID == podcastID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memoryFollows) Save(_ context.Context, follow entities.FollowedPodcast) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conflicts > 0 {
		m.conflicts--
		m.follows = append(m.follows, entities.FollowedPodcast{
			AccountID:       follow.AccountID,
			FollowTimestamp: follow.FollowTimestamp,
			PodcastID:       "taken",
		})
		return pkgerrors.NewConflictError(pkgerrors.CodeConsistencyFault, "follow entry already exists")
	}
	for _, f := range m.follows {
		if f.AccountID == follow.AccountID && f.FollowTimestamp == follow.FollowTimestamp {
			return pkgerrors.NewConflictError(pkgerrors.CodeConsistencyFault, "follow entry already exists")
		}
	}
	m.follows = append(m.follows, follow)
	return nil
}

func (m *memoryFollows) Delete(_ context.Context, follows []entities.FollowedPodcast) ([]entities.FollowedPodcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	unprocessed := follows[:m.unprocessed]
	remove := make(map[int64]bool)
	for _, f := range follows[m.unprocessed:] {
		remove[f.FollowTimestamp] = true
	}

	kept := m.follows[:0]
	for _, f := range m.follows {
		if !remove[f.FollowTimestamp] {
			kept = append(kept, f)
		}
	}
	m.follows = kept
	return unprocessed, nil
}

func (m *memoryFollows) sorted(accountID string) []entities.FollowedPodcast {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entities.FollowedPodcast
	for _, f := range m.follows {
		if f.AccountID == accountID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FollowTimestamp < out[j].FollowTimestamp })
	return out
}

// recordingPublisher records published events and optionally fails
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evs ...events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evs...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}
