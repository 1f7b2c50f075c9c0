package errors

// Code is the machine-readable reason returned to API clients
type Code string

// Clip codes
const (
	CodeAccountIDMissing       Code = "ACCOUNT_ID_MISSING"
	CodeEpisodeIDMissing       Code = "EPISODE_ID_MISSING"
	CodeEpisodeIDInvalid       Code = "EPISODE_ID_INVALID"
	CodeClipDataIncomplete     Code = "CLIP_DATA_INCOMPLETE"
	CodeEpisodeDoesntExist     Code = "EPISODE_DOESNT_EXIST"
	CodeClipTimesAreIncorrect  Code = "CLIP_TIMES_ARE_INCORRECT"
	CodeClipIDMissing          Code = "CLIP_ID_MISSING"
	CodeClipIDInvalid          Code = "CLIP_ID_INVALID"
	CodeUpdatedClipDataMissing Code = "UPDATED_CLIP_DATA_MISSING"
	CodeClipDataDoesntExist    Code = "CLIP_DATA_DOESNT_EXIST"
	CodeClipAlreadyExists      Code = "CLIP_ALREADY_EXISTS"
)

// Podcast codes
const (
	CodePodcastIDMissing   Code = "PODCAST_ID_MISSING"
	CodePodcastDoesntExist Code = "PODCAST_DOESNT_EXIST"
	CodeFollowDoesntExist  Code = "FOLLOW_DOESNT_EXIST"
)

// Shared codes
const (
	CodePaginationTokenInvalid Code = "PAGINATION_TOKEN_INVALID"
	CodeConsistencyFault       Code = "CONSISTENCY_FAULT"
	CodeRateLimited            Code = "RATE_LIMITED"
)
