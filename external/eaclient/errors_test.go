package eaclient

import (
	"fmt"
	"testing"

	crerr "github.com/cockroachdb/errors"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "rate limited", err: crerr.Wrap(ErrRateLimited, "status=429"), want: "rate_limited"},
		{name: "server error", err: crerr.Wrap(ErrUpstream5xx, "status=502"), want: "upstream_5xx"},
		{name: "permanent", err: crerr.Wrap(ErrPermanent, "status=403"), want: "permanent"},
		{name: "network", err: crerr.Wrap(ErrNetwork, "dial refused"), want: "network"},
		{name: "unclassified", err: fmt.Errorf("something else"), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Fatalf("Kind()=%q want=%q", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !isRetryable(ErrNetwork) || !isRetryable(ErrUpstream5xx) || !isRetryable(ErrRateLimited) {
		t.Fatal("expected transient kinds to be retryable")
	}
	if isRetryable(ErrPermanent) {
		t.Fatal("permanent errors must not be retried")
	}
	if isRetryable(fmt.Errorf("plain")) {
		t.Fatal("unclassified errors must not be retried")
	}
}
