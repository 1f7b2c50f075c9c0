package handlers

import (
	"context"

	"github.com/TorresLabs/aika-server/application/services"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 64 << 10

// ClipOperations is what the clip routes need from the application layer
type ClipOperations interface {
	CreateClip(ctx context.Context, accountID, episodeID string, req services.CreateClipRequest) (*services.ClipResponse, int, error)
	ChangeClipData(ctx context.Context, accountID, clipID string, req services.ChangeClipRequest) (*services.ClipResponse, int, error)
	GetClip(ctx context.Context, clipID string) (*services.ClipResponse, int, error)
	DeleteClip(ctx context.Context, accountID, clipID string) (int, error)
	GetClipsCreatedByUser(ctx context.Context, accountID, token string) (*services.ListResponse[services.ClipResponse], int, error)
	GetClipsOfEpisodeCreatedByUser(ctx context.Context, accountID, episodeID, token string) (*services.ListResponse[services.ClipResponse], int, error)
}

// PodcastOperations is what the podcast routes need from the application layer
type PodcastOperations interface {
	GetFollowedPodcasts(ctx context.Context, accountID, token string) (*services.ListResponse[services.FollowedPodcastResponse], int, error)
	GetEpisodesFromPodcast(ctx context.Context, podcastID string, q services.EpisodeQuery) ([]services.EpisodeResponse, int, error)
	FollowPodcast(ctx context.Context, accountID, podcastID string) (*services.FollowResponse, int, error)
	UnfollowPodcast(ctx context.Context, accountID, podcastID string) (*services.UnfollowResponse, int, error)
	GetPodcastFeed(ctx context.Context, podcastID string) (string, int, error)
}

var (
	_ ClipOperations    = (*services.ClipService)(nil)
	_ PodcastOperations = (*services.PodcastQueryService)(nil)
)
