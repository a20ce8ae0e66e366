package eaclient

import (
	crerr "github.com/cockroachdb/errors"
)

// Error kinds for upstream failures. Callers classify with errors.Is.
var (
	ErrNetwork     = crerr.New("upstream network failure")
	ErrRateLimited = crerr.New("upstream rate limited")
	ErrUpstream5xx = crerr.New("upstream server error")
	ErrPermanent   = crerr.New("upstream permanent error")
)

// Kind returns a short tag for logs and run error messages.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case crerr.Is(err, ErrRateLimited):
		return "rate_limited"
	case crerr.Is(err, ErrUpstream5xx):
		return "upstream_5xx"
	case crerr.Is(err, ErrPermanent):
		return "permanent"
	case crerr.Is(err, ErrNetwork):
		return "network"
	default:
		return "unknown"
	}
}

func isRetryable(err error) bool {
	return crerr.Is(err, ErrNetwork) || crerr.Is(err, ErrUpstream5xx) || crerr.Is(err, ErrRateLimited)
}
