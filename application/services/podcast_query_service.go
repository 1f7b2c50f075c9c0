package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/application/ports"
	"github.com/TorresLabs/aika-server/domain/core/entities"
	"github.com/TorresLabs/aika-server/domain/events"
	domainservices "github.com/TorresLabs/aika-server/domain/services"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
	"github.com/TorresLabs/aika-server/pkg/observability"
	"github.com/TorresLabs/aika-server/pkg/pagination"
)

// maxFollowAttempts bounds retries when a new follow entry collides with
// one written concurrently
const maxFollowAttempts = 3

// FeedRenderer renders a podcast feed document
type FeedRenderer interface {
	Render(p entities.Podcast, episodes []entities.Episode, now time.Time) (string, error)
}

// PodcastQueryService serves followed podcasts, episodes and feeds, and
// manages follow entries
type PodcastQueryService struct {
	podcasts ports.PodcastRepository
	follows  ports.FollowRepository
	feed     FeedRenderer
	runner
}

// NewPodcastQueryService creates a new podcast query service
func NewPodcastQueryService(
	podcasts ports.PodcastRepository,
	follows ports.FollowRepository,
	feed FeedRenderer,
	logger *zap.Logger,
	opts ...Option,
) *PodcastQueryService {
	return &PodcastQueryService{
		podcasts: podcasts,
		follows:  follows,
		feed:     feed,
		runner:   newRunner(logger, opts),
	}
}

// GetFollowedPodcasts lists the account's follow entries joined with their
// podcasts. Entries whose podcast does not resolve are dropped; if none
// resolves at all the data is inconsistent and the request fails.
func (s *PodcastQueryService) GetFollowedPodcasts(ctx context.Context, accountID, token string) (*ListResponse[FollowedPodcastResponse], int, error) {
	var resp ListResponse[FollowedPodcastResponse]

	err := s.run(ctx, "PodcastQueryService.GetFollowedPodcasts", func(ctx context.Context) error {
		if err := requireAccount(accountID); err != nil {
			return err
		}

		var after *int64
		if ts, ok := pagination.DecodeScalar(token); ok {
			after = &ts
		}

		follows, err := s.follows.ListFollowed(ctx, accountID, after, pagination.FollowedPodcastsPageSize)
		if err != nil {
			return err
		}
		if len(follows) == 0 {
			resp = newListResponse([]FollowedPodcastResponse{}, "")
			return nil
		}

		ids := make([]string, 0, len(follows))
		for _, f := range follows {
			ids = append(ids, f.PodcastID)
		}
		podcasts, err := s.podcasts.GetPodcasts(ctx, ids)
		if err != nil {
			return err
		}
		if len(podcasts) == 0 {
			s.metrics.RecordCount(ctx, observability.MetricConsistencyFaults, 1,
				map[string]string{"Operation": "GetFollowedPodcasts"})
			return pkgerrors.NewConsistencyFault("none of the followed podcasts could be retrieved").
				WithDetails(map[string]interface{}{"podcastIds": ids})
		}

		byID := make(map[string]entities.Podcast, len(podcasts))
		for _, p := range podcasts {
			byID[p.ID] = p
		}

		result := make([]FollowedPodcastResponse, 0, len(follows))
		var dropped []string
		for _, f := range follows {
			p, ok := byID[f.PodcastID]
			if !ok {
				dropped = append(dropped, f.PodcastID)
				continue
			}
			result = append(result, newFollowedPodcastResponse(f, p))
		}

		if len(dropped) > 0 {
			s.log(ctx).Warn("Dropped follow entries of unresolved podcasts",
				zap.Strings("podcastIDs", dropped),
			)
			s.metrics.RecordCount(ctx, observability.MetricDroppedFollowEntries, len(dropped), nil)
		}

		next := pagination.NextScalar(len(follows), pagination.FollowedPodcastsPageSize,
			follows[len(follows)-1].FollowTimestamp)
		resp = newListResponse(result, next)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &resp, http.StatusOK, nil
}

// GetEpisodesFromPodcast lists up to one page of episodes, newest first,
// inside the optional release bounds. There is no continuation token.
func (s *PodcastQueryService) GetEpisodesFromPodcast(ctx context.Context, podcastID string, q EpisodeQuery) ([]EpisodeResponse, int, error) {
	var resp []EpisodeResponse

	err := s.run(ctx, "PodcastQueryService.GetEpisodesFromPodcast", func(ctx context.Context) error {
		if err := requirePodcast(podcastID); err != nil {
			return err
		}

		var rng ports.EpisodeRange
		if q.LastReleaseTimestamp > 0 {
			rng.ReleasedAfter = &q.LastReleaseTimestamp
		}
		if q.OldestReleaseTimestamp > 0 {
			rng.ReleasedBefore = &q.OldestReleaseTimestamp
		}

		episodes, err := s.podcasts.ListEpisodes(ctx, podcastID, rng, pagination.EpisodesPageSize)
		if err != nil {
			return err
		}

		resp = newEpisodeResponses(episodes)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return resp, http.StatusOK, nil
}

// FollowPodcast adds a follow entry for the podcast. Following an already
// followed podcast returns the existing entry.
func (s *PodcastQueryService) FollowPodcast(ctx context.Context, accountID, podcastID string) (*FollowResponse, int, error) {
	var (
		resp   FollowResponse
		status int
	)

	err := s.run(ctx, "PodcastQueryService.FollowPodcast", func(ctx context.Context) error {
		if err := requireAccount(accountID); err != nil {
			return err
		}
		if err := s.requireExistingPodcast(ctx, podcastID); err != nil {
			return err
		}

		existing, err := s.follows.FindByPodcast(ctx, accountID, podcastID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			resp = FollowResponse{PodcastID: podcastID, FollowTimestamp: existing[0].FollowTimestamp}
			status = http.StatusOK
			return nil
		}

		for attempt := 1; ; attempt++ {
			latest, err := s.follows.GetLatest(ctx, accountID)
			if err != nil {
				return err
			}
			var latestTS *int64
			if latest != nil {
				latestTS = &latest.FollowTimestamp
			}

			follow := entities.FollowedPodcast{
				AccountID:       accountID,
				FollowTimestamp: domainservices.NextFollowTimestamp(latestTS, s.now().Unix()),
				PodcastID:       podcastID,
			}

			err = s.follows.Save(ctx, follow)
			if pkgerrors.IsConflict(err) && attempt < maxFollowAttempts {
				s.log(ctx).Info("Follow timestamp taken, retrying", zap.Int("attempt", attempt))
				continue
			}
			if err != nil {
				return err
			}

			s.publish(ctx, events.NewPodcastFollowed(accountID, podcastID, follow.FollowTimestamp, s.now()))

			resp = FollowResponse{PodcastID: podcastID, FollowTimestamp: follow.FollowTimestamp}
			status = http.StatusCreated
			return nil
		}
	})
	if err != nil {
		return nil, 0, err
	}
	return &resp, status, nil
}

// UnfollowPodcast removes every follow entry of the account for the podcast.
// Entries the store did not process are reported, not retried.
func (s *PodcastQueryService) UnfollowPodcast(ctx context.Context, accountID, podcastID string) (*UnfollowResponse, int, error) {
	var resp UnfollowResponse

	err := s.run(ctx, "PodcastQueryService.UnfollowPodcast", func(ctx context.Context) error {
		if err := requireAccount(accountID); err != nil {
			return err
		}
		if err := requirePodcast(podcastID); err != nil {
			return err
		}

		existing, err := s.follows.FindByPodcast(ctx, accountID, podcastID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			return pkgerrors.NewNotFoundError(pkgerrors.CodeFollowDoesntExist, "follow entry")
		}

		unprocessed, err := s.follows.Delete(ctx, existing)
		if err != nil {
			return err
		}

		if len(unprocessed) < len(existing) {
			s.publish(ctx, events.NewPodcastUnfollowed(accountID, podcastID, s.now()))
		}

		resp = UnfollowResponse{
			PodcastID:   podcastID,
			Removed:     len(existing) - len(unprocessed),
			Unprocessed: len(unprocessed),
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &resp, http.StatusOK, nil
}

// GetPodcastFeed renders the podcast's latest episodes as an RSS document
func (s *PodcastQueryService) GetPodcastFeed(ctx context.Context, podcastID string) (string, int, error) {
	var feed string

	err := s.run(ctx, "PodcastQueryService.GetPodcastFeed", func(ctx context.Context) error {
		if err := requirePodcast(podcastID); err != nil {
			return err
		}

		podcasts, err := s.podcasts.GetPodcasts(ctx, []string{podcastID})
		if err != nil {
			return err
		}
		if len(podcasts) == 0 {
			return pkgerrors.NewNotFoundError(pkgerrors.CodePodcastDoesntExist, "podcast")
		}

		episodes, err := s.podcasts.ListEpisodes(ctx, podcastID, ports.EpisodeRange{}, pagination.EpisodesPageSize)
		if err != nil {
			return err
		}

		if feed, err = s.feed.Render(podcasts[0], episodes, s.now()); err != nil {
			return pkgerrors.NewInternalError("failed to render podcast feed").WithCause(err)
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return feed, http.StatusOK, nil
}

func (s *PodcastQueryService) requireExistingPodcast(ctx context.Context, podcastID string) error {
	if err := requirePodcast(podcastID); err != nil {
		return err
	}
	podcasts, err := s.podcasts.GetPodcasts(ctx, []string{podcastID})
	if err != nil {
		return err
	}
	if len(podcasts) == 0 {
		return pkgerrors.NewNotFoundError(pkgerrors.CodePodcastDoesntExist, "podcast")
	}
	return nil
}

func requirePodcast(podcastID string) error {
	if strings.TrimSpace(podcastID) == "" {
		return pkgerrors.NewValidationError(pkgerrors.CodePodcastIDMissing, "podcast id is missing")
	}
	return nil
}
