package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/application/services"
	"github.com/TorresLabs/aika-server/pkg/common"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
	"github.com/TorresLabs/aika-server/pkg/pagination"
)

// PodcastHandler handles podcast-related HTTP requests
type PodcastHandler struct {
	podcasts     PodcastOperations
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewPodcastHandler creates a new podcast handler
func NewPodcastHandler(podcasts PodcastOperations, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *PodcastHandler {
	return &PodcastHandler{
		podcasts:     podcasts,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// GetFollowedPodcasts handles GET /podcast/followed. Older clients page with
// a raw lastFollowTimestamp instead of nextToken.
func (h *PodcastHandler) GetFollowedPodcasts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	token := query.Get("nextToken")
	if token == "" {
		if ts := queryInt(query.Get("lastFollowTimestamp")); ts > 0 {
			token = pagination.EncodeScalar(ts)
		}
	}

	page, status, err := h.podcasts.GetFollowedPodcasts(r.Context(), accountID(r), token)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, page)
}

// GetEpisodesFromPodcast handles GET /podcast/episodes/{podcastId}
func (h *PodcastHandler) GetEpisodesFromPodcast(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := services.EpisodeQuery{
		LastReleaseTimestamp:   queryInt(query.Get("lastReleaseTimestamp")),
		OldestReleaseTimestamp: queryInt(query.Get("oldestReleaseTimestamp")),
	}

	episodes, status, err := h.podcasts.GetEpisodesFromPodcast(r.Context(), chi.URLParam(r, "podcastId"), q)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, episodes)
}

// FollowPodcast handles POST /podcast/follow/{podcastId}
func (h *PodcastHandler) FollowPodcast(w http.ResponseWriter, r *http.Request) {
	follow, status, err := h.podcasts.FollowPodcast(r.Context(), accountID(r), chi.URLParam(r, "podcastId"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, follow)
}

// UnfollowPodcast handles DELETE /podcast/follow/{podcastId}
func (h *PodcastHandler) UnfollowPodcast(w http.ResponseWriter, r *http.Request) {
	resp, status, err := h.podcasts.UnfollowPodcast(r.Context(), accountID(r), chi.URLParam(r, "podcastId"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, resp)
}

// GetPodcastFeed handles GET /podcast/feed/{podcastId}
func (h *PodcastHandler) GetPodcastFeed(w http.ResponseWriter, r *http.Request) {
	feed, status, err := h.podcasts.GetPodcastFeed(r.Context(), chi.URLParam(r, "podcastId"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondXML(w, status, feed)
}

// queryInt parses an optional integer parameter. Anything unparsable counts
// as absent.
func queryInt(value string) int64 {
	if value == "" {
		return 0
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
