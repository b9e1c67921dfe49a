package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind labels a failed request for metrics and run summaries.
type ErrorKind string

const (
	KindUnknown     ErrorKind = "unknown"
	KindTimeout     ErrorKind = "timeout"
	KindConnection  ErrorKind = "connection"
	KindForbidden   ErrorKind = "forbidden"
	KindNotFound    ErrorKind = "not_found"
	KindRateLimited ErrorKind = "rate_limited"
	KindServer      ErrorKind = "server_error"
	KindOther       ErrorKind = "other"
)

// FetchError is a failed request for one URL. Page fetches count it and move
// on; detail fetches return it so the caller can skip the listing.
type FetchError struct {
	URL    string
	Status int
	Kind   ErrorKind
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d): %v", e.URL, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a *FetchError anywhere in err's chain.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return classifyError(err, 0)
}

// classifyError maps a transport error and response status to a kind.
// Transport failures win over the status code.
func classifyError(err error, statusCode int) ErrorKind {
	if err == nil && statusCode == 0 {
		return KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}

	switch {
	case statusCode == http.StatusForbidden:
		return KindForbidden
	case statusCode == http.StatusNotFound:
		return KindNotFound
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimited
	case statusCode >= 500:
		return KindServer
	}
	return KindOther
}
