package services

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/application/ports"
	"github.com/TorresLabs/aika-server/domain/core/entities"
	"github.com/TorresLabs/aika-server/domain/core/valueobjects"
	"github.com/TorresLabs/aika-server/domain/events"
	domainservices "github.com/TorresLabs/aika-server/domain/services"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
	"github.com/TorresLabs/aika-server/pkg/pagination"
	"github.com/TorresLabs/aika-server/pkg/utils"
)

// ClipService orchestrates clip creation, changes and listings
type ClipService struct {
	clips    ports.ClipRepository
	podcasts ports.PodcastRepository
	runner
}

// NewClipService creates a new clip service
func NewClipService(
	clips ports.ClipRepository,
	podcasts ports.PodcastRepository,
	logger *zap.Logger,
	opts ...Option,
) *ClipService {
	return &ClipService{
		clips:    clips,
		podcasts: podcasts,
		runner:   newRunner(logger, opts),
	}
}

// CreateClip validates the request, places the clip after the account's
// latest clip of the episode and stores it. Nothing is written unless every
// check passed.
func (s *ClipService) CreateClip(ctx context.Context, accountID, episodeID string, req CreateClipRequest) (*ClipResponse, int, error) {
	var resp ClipResponse

	err := s.run(ctx, "ClipService.CreateClip", func(ctx context.Context) error {
		if err := requireAccount(accountID); err != nil {
			return err
		}
		episode, err := valueobjects.ParseEpisodeID(episodeID)
		if err != nil {
			return err
		}
		if _, err := valueobjects.NewClipID(episode, accountID, 0); err != nil {
			return err
		}

		if err := utils.ValidateStruct(req); err != nil {
			return pkgerrors.NewValidationError(pkgerrors.CodeClipDataIncomplete,
				"clip data is incomplete: title, start time and end time are required").
				WithDetails(map[string]interface{}{"fields": utils.FailedFields(err)}).
				WithCause(err)
		}
		timeRange := entities.ClipRange{Start: *req.StartTime, End: *req.EndTime}
		if err := timeRange.Validate(); err != nil {
			return err
		}

		stored, err := s.podcasts.GetEpisode(ctx, episode)
		if err != nil {
			return err
		}
		if stored == nil {
			return pkgerrors.NewNotFoundError(pkgerrors.CodeEpisodeDoesntExist, "episode")
		}

		latest, err := s.clips.GetLatest(ctx, accountID, episode)
		if err != nil {
			return err
		}
		var previous *valueobjects.ClipPosition
		if latest != nil {
			p := latest.Position()
			previous = &p
		}
		position := domainservices.NextClipPosition(previous, s.now().Unix())

		clip, err := entities.NewClip(episode, accountID, position, timeRange, req.Title, req.Notes)
		if err != nil {
			return err
		}
		if err := s.clips.Save(ctx, clip); err != nil {
			return err
		}

		s.log(ctx).Info("Clip created",
			zap.String("clipID", clip.ID().String()),
			zap.Int("clipIndex", position.Index),
			zap.Int64("creationTimestamp", position.Timestamp),
		)

		s.publish(ctx, events.NewClipCreated(clip.ID().String(), accountID, episode.String(),
			position.Index, position.Timestamp, s.now()))

		resp = newClipResponse(clip)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &resp, http.StatusCreated, nil
}

// ChangeClipData changes title and notes of a clip
func (s *ClipService) ChangeClipData(ctx context.Context, accountID, clipID string, req ChangeClipRequest) (*ClipResponse, int, error) {
	var resp ClipResponse

	err := s.run(ctx, "ClipService.ChangeClipData", func(ctx context.Context) error {
		if err := requireAccount(accountID); err != nil {
			return err
		}
		id, err := valueobjects.ParseClipID(clipID)
		if err != nil {
			return err
		}

		changes := entities.ClipChanges{Title: req.Title, Notes: req.Notes}
		if changes.IsEmpty() {
			return pkgerrors.NewValidationError(pkgerrors.CodeUpdatedClipDataMissing, "updated clip data is missing")
		}

		clip, err := s.clips.Update(ctx, id, changes)
		if err != nil {
			return err
		}

		s.publish(ctx, events.NewClipChanged(id.String(), accountID, changedFields(changes), s.now()))

		resp = newClipResponse(clip)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &resp, http.StatusOK, nil
}

// GetClip fetches a clip by id. Whether the caller may see it is decided
// outside this service.
func (s *ClipService) GetClip(ctx context.Context, clipID string) (*ClipResponse, int, error) {
	var resp ClipResponse

	err := s.run(ctx, "ClipService.GetClip", func(ctx context.Context) error {
		id, err := valueobjects.ParseClipID(clipID)
		if err != nil {
			return err
		}

		clip, err := s.clips.GetByID(ctx, id)
		if err != nil {
			return err
		}

		resp = newClipResponse(clip)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &resp, http.StatusOK, nil
}

// DeleteClip deletes one of the account's own clips. A clip of another
// account is reported as not found.
func (s *ClipService) DeleteClip(ctx context.Context, accountID, clipID string) (int, error) {
	err := s.run(ctx, "ClipService.DeleteClip", func(ctx context.Context) error {
		if err := requireAccount(accountID); err != nil {
			return err
		}
		id, err := valueobjects.ParseClipID(clipID)
		if err != nil {
			return err
		}
		if id.AccountID() != accountID {
			return pkgerrors.NewNotFoundError(pkgerrors.CodeClipDataDoesntExist, "clip")
		}

		if err := s.clips.Delete(ctx, id); err != nil {
			return err
		}

		s.publish(ctx, events.NewClipDeleted(id.String(), accountID, s.now()))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return http.StatusNoContent, nil
}

// GetClipsCreatedByUser lists the account's clips across episodes in
// ascending creation order, resuming after the token's timestamp. A token
// that does not decode starts from the first page.
func (s *ClipService) GetClipsCreatedByUser(ctx context.Context, accountID, token string) (*ListResponse[ClipResponse], int, error) {
	var resp ListResponse[ClipResponse]

	err := s.run(ctx, "ClipService.GetClipsCreatedByUser", func(ctx context.Context) error {
		if err := requireAccount(accountID); err != nil {
			return err
		}

		var after *int64
		if ts, ok := pagination.DecodeScalar(token); ok {
			after = &ts
		} else if token != "" {
			s.log(ctx).Info("Ignoring undecodable pagination token")
		}

		clips, err := s.clips.ListByAccount(ctx, accountID, after, pagination.ClipsPageSize)
		if err != nil {
			return err
		}

		var next string
		if len(clips) > 0 {
			next = pagination.NextScalar(len(clips), pagination.ClipsPageSize, clips[len(clips)-1].CreationTimestamp())
		}

		resp = newListResponse(newClipResponses(clips), next)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &resp, http.StatusOK, nil
}

// GetClipsOfEpisodeCreatedByUser lists the account's clips of one episode,
// newest first. A token that does not decode, or that another listing
// issued, is rejected.
func (s *ClipService) GetClipsOfEpisodeCreatedByUser(ctx context.Context, accountID, episodeID, token string) (*ListResponse[ClipResponse], int, error) {
	var resp ListResponse[ClipResponse]

	err := s.run(ctx, "ClipService.GetClipsOfEpisodeCreatedByUser", func(ctx context.Context) error {
		if err := requireAccount(accountID); err != nil {
			return err
		}
		episode, err := valueobjects.ParseEpisodeID(episodeID)
		if err != nil {
			return err
		}

		key, ok, err := pagination.DecodeComposite[ports.ClipPageKey](pagination.KindClipsOfEpisode, token)
		if err != nil {
			return err
		}
		var startKey *ports.ClipPageKey
		if ok {
			startKey = &key
		}

		page, err := s.clips.ListByAccountAndEpisode(ctx, accountID, episode, startKey, pagination.ClipsPageSize)
		if err != nil {
			return err
		}

		var next string
		if page.LastKey != nil && pagination.IsFullPage(len(page.Clips), pagination.ClipsPageSize) {
			if next, err = pagination.EncodeComposite(pagination.KindClipsOfEpisode, *page.LastKey); err != nil {
				return err
			}
		}

		resp = newListResponse(newClipResponses(page.Clips), next)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &resp, http.StatusOK, nil
}

func requireAccount(accountID string) error {
	if accountID == "" {
		return pkgerrors.NewValidationError(pkgerrors.CodeAccountIDMissing, "account id is missing")
	}
	return nil
}

func changedFields(changes entities.ClipChanges) []string {
	var fields []string
	if changes.Title != nil && *changes.Title != "" {
		fields = append(fields, "title")
	}
	if changes.Notes != nil && *changes.Notes != "" {
		fields = append(fields, "notes")
	}
	return fields
}
