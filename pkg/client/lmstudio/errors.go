package lmstudio

import (
	"fmt"
	"time"
)

// ConnectivityError reports that the configured endpoint did not answer the
// reachability probe. The call is aborted before any completion request is
// issued.
type ConnectivityError struct {
	Endpoint string
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("LM Studio server is not reachable at %s: make sure the server is running and the endpoint is correct", e.Endpoint)
}

// TimeoutError reports that a completion call exceeded the configured bound.
// Distinct from ConnectivityError and HTTPError so callers can branch on it.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("LM Studio request timed out after %s: reduce the request size, raise the timeout, or check the backend load", e.Timeout)
}

// HTTPError reports a non-success status from the inference server, with the
// upstream message preserved for diagnosis.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("LM Studio request failed with status %d: %s", e.StatusCode, e.Body)
}
