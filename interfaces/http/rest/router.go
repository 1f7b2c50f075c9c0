package rest

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/interfaces/http/rest/handlers"
	"github.com/TorresLabs/aika-server/interfaces/http/rest/middleware"
	"github.com/TorresLabs/aika-server/pkg/common"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
	"github.com/TorresLabs/aika-server/pkg/ratelimit"
)

// ReadinessCheck reports whether the service's dependencies are reachable
type ReadinessCheck func(ctx context.Context) error

// Options configures the router
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
	Debug          bool
	Limiter        ratelimit.Limiter
	Ready          ReadinessCheck
}

// Router creates and configures the HTTP router
type Router struct {
	clips    handlers.ClipOperations
	podcasts handlers.PodcastOperations
	opts     Options
	logger   *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	clips handlers.ClipOperations,
	podcasts handlers.PodcastOperations,
	opts Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		clips:    clips,
		podcasts: podcasts,
		opts:     opts,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.opts.Debug)

	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.RequestContext(rt.logger))
	router.Use(middleware.Logger(rt.logger))

	if rt.opts.EnableCORS {
		origins := rt.opts.AllowedOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", common.HeaderAccountID},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(rt.opts.Limiter, errorHandler))

		r.Route("/clip", func(r chi.Router) {
			clipHandler := handlers.NewClipHandler(rt.clips, errorHandler, rt.logger)
			r.Get("/created", clipHandler.GetClipsCreatedByUser)
			r.Get("/episode/{episodeId}", clipHandler.GetClipsOfEpisodeCreatedByUser)
			r.Post("/{episodeId}", clipHandler.CreateClip)
			r.Put("/{clipId}", clipHandler.ChangeClipData)
			r.Get("/{clipId}", clipHandler.GetClip)
			r.Delete("/{clipId}", clipHandler.DeleteClip)
		})

		r.Route("/podcast", func(r chi.Router) {
			podcastHandler := handlers.NewPodcastHandler(rt.podcasts, errorHandler, rt.logger)
			r.Get("/followed", podcastHandler.GetFollowedPodcasts)
			r.Get("/episodes/{podcastId}", podcastHandler.GetEpisodesFromPodcast)
			r.Post("/follow/{podcastId}", podcastHandler.FollowPodcast)
			r.Delete("/follow/{podcastId}", podcastHandler.UnfollowPodcast)
			r.Get("/feed/{podcastId}", podcastHandler.GetPodcastFeed)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports ready once the configured check passes
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	if rt.opts.Ready != nil {
		if err := rt.opts.Ready(r.Context()); err != nil {
			common.Logger(r.Context(), rt.logger).Warn("Readiness check failed", zap.Error(err))
			common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
