package agent

import "errors"

// Failure modes of the model collaborator. The analysis service maps all of
// them to a single "analysis unavailable" outcome for the caller.
var (
	// ErrInvalidConfiguration is returned when the client configuration is incomplete.
	ErrInvalidConfiguration = errors.New("invalid model configuration")

	// ErrAPICallFailed is returned when the API call to the model fails.
	ErrAPICallFailed = errors.New("API call to model failed")

	// ErrModelUnavailable is returned when the model is temporarily unavailable.
	ErrModelUnavailable = errors.New("model temporarily unavailable")

	// ErrRateLimitExceeded is returned when the API rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrBlocked is returned when the API refuses to answer the prompt.
	ErrBlocked = errors.New("request blocked by model safety filters")

	// ErrEmptyResponse is returned when the model answered with no usable text.
	ErrEmptyResponse = errors.New("empty response from model")
)
