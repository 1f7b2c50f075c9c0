package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/application/services"
	"github.com/TorresLabs/aika-server/pkg/common"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
)

// ClipHandler handles clip-related HTTP requests
type ClipHandler struct {
	clips        ClipOperations
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewClipHandler creates a new clip handler
func NewClipHandler(clips ClipOperations, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *ClipHandler {
	return &ClipHandler{
		clips:        clips,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateClip handles POST /clip/{episodeId}
func (h *ClipHandler) CreateClip(w http.ResponseWriter, r *http.Request) {
	var req services.CreateClipRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(pkgerrors.CodeClipDataIncomplete,
			"request body is not valid clip data").WithCause(err))
		return
	}

	clip, status, err := h.clips.CreateClip(r.Context(), accountID(r), chi.URLParam(r, "episodeId"), req)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, clip)
}

// ChangeClipData handles PUT /clip/{clipId}
func (h *ClipHandler) ChangeClipData(w http.ResponseWriter, r *http.Request) {
	var req services.ChangeClipRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, pkgerrors.NewValidationError(pkgerrors.CodeUpdatedClipDataMissing,
			"request body is not valid clip data").WithCause(err))
		return
	}

	clip, status, err := h.clips.ChangeClipData(r.Context(), accountID(r), chi.URLParam(r, "clipId"), req)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, clip)
}

// GetClip handles GET /clip/{clipId}
func (h *ClipHandler) GetClip(w http.ResponseWriter, r *http.Request) {
	clip, status, err := h.clips.GetClip(r.Context(), chi.URLParam(r, "clipId"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, clip)
}

// DeleteClip handles DELETE /clip/{clipId}
func (h *ClipHandler) DeleteClip(w http.ResponseWriter, r *http.Request) {
	status, err := h.clips.DeleteClip(r.Context(), accountID(r), chi.URLParam(r, "clipId"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	w.WriteHeader(status)
}

// GetClipsCreatedByUser handles GET /clip/created
func (h *ClipHandler) GetClipsCreatedByUser(w http.ResponseWriter, r *http.Request) {
	page, status, err := h.clips.GetClipsCreatedByUser(r.Context(), accountID(r), r.URL.Query().Get("nextToken"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, page)
}

// GetClipsOfEpisodeCreatedByUser handles GET /clip/episode/{episodeId}
func (h *ClipHandler) GetClipsOfEpisodeCreatedByUser(w http.ResponseWriter, r *http.Request) {
	page, status, err := h.clips.GetClipsOfEpisodeCreatedByUser(r.Context(), accountID(r),
		chi.URLParam(r, "episodeId"), r.URL.Query().Get("nextToken"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, page)
}

func accountID(r *http.Request) string {
	id, _ := common.GetAccountID(r.Context())
	return id
}
