package eaclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/bluelinehq/chel-archive/internal/platform/logging"
	"github.com/bluelinehq/chel-archive/internal/platform/resilience"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()

	return NewClient(ClientConfig{
		BaseURL:    serverURL,
		MaxRetries: 2,
		Logger:     logging.NewNop(),
	})
}

func TestClientFetchMatches_ParsesPayload(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"matchId": "90001",
				"timestamp": 1767654000,
				"clubs": {
					"111": {"goals": "4", "teamSide": "0", "details": {"name": "Ice Hounds"}},
					"222": {"goals": "2", "teamSide": "1", "details": {"name": "Puck Norris"}}
				},
				"players": {
					"111": {"555": {"playername": "snipes", "skgoals": "2"}}
				},
				"aggregate": {"111": {"score": 4}}
			},
			{"timestamp": 1767654000},
			{"matchId": "90002", "timestamp": 0}
		]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	matches, err := client.FetchMatches(context.Background(), "111")
	if err != nil {
		t.Fatalf("FetchMatches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 parsed match, got %d", len(matches))
	}

	match := matches[0]
	if match.MatchID != "90001" {
		t.Fatalf("match id = %q", match.MatchID)
	}
	if match.Timestamp != 1767654000 {
		t.Fatalf("timestamp = %d", match.Timestamp)
	}
	if len(match.Clubs) != 2 {
		t.Fatalf("expected 2 clubs, got %d", len(match.Clubs))
	}
	if got := getString(match.Clubs["111"], "goals"); got != "4" {
		t.Fatalf("home goals = %q", got)
	}
	if got := getString(match.Players["111"]["555"], "playername"); got != "snipes" {
		t.Fatalf("player name = %q", got)
	}

	query, _ := gotQuery.Load().(url.Values)
	if got := query.Get("clubIds"); got != "111" {
		t.Fatalf("clubIds query = %q", got)
	}
	if got := query.Get("platform"); got != defaultPlatform {
		t.Fatalf("platform query = %q", got)
	}
	if got := query.Get("matchType"); got != defaultMatchType {
		t.Fatalf("matchType query = %q", got)
	}
}

func TestClientFetchMatches_MalformedBodyIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>edge challenge page</html>`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	matches, err := client.FetchMatches(context.Background(), "111")
	if err != nil {
		t.Fatalf("expected malformed body to be tolerated, got %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestClientFetchMatches_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"matchId": "90001", "timestamp": 1767654000}]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	matches, err := client.FetchMatches(context.Background(), "111")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match after retry, got %d", len(matches))
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestClientFetchMatches_PermanentErrorsDoNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.FetchMatches(context.Background(), "111")
	if !crerr.Is(err, ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected single attempt, got %d", got)
	}
	if kind := Kind(err); kind != "permanent" {
		t.Fatalf("kind = %q", kind)
	}
}

func TestClientFetchMatches_RateLimitBackoffHonorsContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	client := newTestClient(t, srv.URL)
	_, err := client.FetchMatches(ctx, "111")
	if !crerr.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded during rate limit backoff, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected single attempt before backoff, got %d", got)
	}
}

func TestClientFetchMatches_RequiresClubID(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")
	if _, err := client.FetchMatches(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank club id")
	}
}

func TestClientSendsBrowserHeaders(t *testing.T) {
	var gotHeader atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader.Store(r.Header.Clone())
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if _, err := client.FetchMatches(context.Background(), "111"); err != nil {
		t.Fatalf("FetchMatches: %v", err)
	}

	header, _ := gotHeader.Load().(http.Header)
	for key, want := range browserHeaders {
		if got := header.Get(key); got != want {
			t.Fatalf("header %s = %q, want %q", key, got, want)
		}
	}
}

func TestClientSearchClub(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "keyed object payload",
			body: `{"12345": {"clubId": 12345, "name": "Ice Hounds"}}`,
			want: "12345",
		},
		{
			name: "keyed object without clubId field uses key",
			body: `{"67890": {"name": "Puck Norris"}}`,
			want: "67890",
		},
		{
			name: "array payload",
			body: `[{"clubId": "999", "name": "Ice Hounds"}]`,
			want: "999",
		},
		{
			name: "empty object",
			body: `{}`,
			want: "",
		},
		{
			name: "unrecognized payload",
			body: `"nothing here"`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("clubName"); got != "Ice Hounds" {
					t.Errorf("clubName query = %q", got)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := newTestClient(t, srv.URL)
			got, err := client.SearchClub(context.Background(), "Ice Hounds")
			if err != nil {
				t.Fatalf("SearchClub: %v", err)
			}
			if got != tt.want {
				t.Fatalf("club id = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientSearchClub_RequiresName(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")
	if _, err := client.SearchClub(context.Background(), ""); err == nil {
		t.Fatal("expected error for blank club name")
	}
}

func TestClientCircuitBreaker_RejectsAfterOpen(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		BaseURL:    srv.URL,
		MaxRetries: 1,
		Logger:     logging.NewNop(),
	})
	client.circuitEnabled = true
	client.breaker = resilience.NewCircuitBreaker(1, time.Hour, 1)
	client.breaker.RecordFailure()

	_, err := client.FetchMatches(context.Background(), "111")
	if !crerr.Is(err, ErrNetwork) {
		t.Fatalf("expected unavailable error from open breaker, got %v", err)
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no upstream attempt while breaker is open, got %d", got)
	}
}
