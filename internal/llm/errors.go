package llm

import "errors"

var (
	// ErrUnavailable indicates the oracle endpoint is unreachable.
	ErrUnavailable = errors.New("oracle endpoint unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("oracle request timed out")

	// ErrAuth indicates the endpoint rejected the configured credentials.
	ErrAuth = errors.New("oracle authentication failed")

	// ErrRateLimited indicates the endpoint is throttling requests.
	ErrRateLimited = errors.New("oracle rate limit exceeded")

	// ErrInvalidOutput indicates the response could not be parsed into the
	// expected structured format.
	ErrInvalidOutput = errors.New("invalid oracle output format")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("oracle retry attempts exhausted")
)
