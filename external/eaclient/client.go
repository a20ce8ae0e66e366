package eaclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/bluelinehq/chel-archive/internal/platform/logging"
	"github.com/bluelinehq/chel-archive/internal/platform/resilience"
)

const (
	defaultBaseURL   = "https://proclubs.ea.com/api/nhl"
	defaultPlatform  = "common-gen5"
	defaultMatchType = "club_private"

	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 3
	baseBackoff       = time.Second
	rateLimitBackoff  = 5 * time.Second
	maxBodyBytes      = 6 << 20
)

// The upstream endpoints sit behind browser-oriented edge filtering, so
// requests carry an ordinary desktop Chrome header set.
var browserHeaders = map[string]string{
	"sec-ch-ua-platform": `"Windows"`,
	"user-agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/139.0.0.0 Safari/537.36",
	"accept":           "application/json",
	"sec-ch-ua":        `"Not;A=Brand";v="99", "Google Chrome";v="139", "Chromium";v="139"`,
	"content-type":     "application/json",
	"sec-ch-ua-mobile": "?0",
	"origin":           "https://www.ea.com",
	"sec-fetch-site":   "same-site",
	"sec-fetch-mode":   "cors",
	"sec-fetch-dest":   "empty",
	"referer":          "https://www.ea.com/",
	"accept-language":  "en-US,en;q=0.9",
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Platform       string
	MatchType      string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	platform       string
	matchType      string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	platform := strings.TrimSpace(cfg.Platform)
	if platform == "" {
		platform = defaultPlatform
	}
	matchType := strings.TrimSpace(cfg.MatchType)
	if matchType == "" {
		matchType = defaultMatchType
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		platform:       platform,
		matchType:      matchType,
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// SearchClub resolves a club name to its upstream numeric id. An empty or
// unrecognized response yields ("", nil): a missing club is not a failure.
func (c *Client) SearchClub(ctx context.Context, clubName string) (string, error) {
	clubName = strings.TrimSpace(clubName)
	if clubName == "" {
		return "", crerr.New("club name is required")
	}

	query := url.Values{}
	query.Set("platform", c.platform)
	query.Set("clubName", clubName)
	query.Set("maxResultCount", "5")

	raw, err := c.doGet(ctx, "/clubs/search", query)
	if err != nil {
		return "", fmt.Errorf("search club %q: %w", clubName, err)
	}

	// The search endpoint answers with an object keyed by club id; older
	// deployments answered with a plain array. Accept both.
	var keyed map[string]any
	if decodeErr := sonic.Unmarshal(raw, &keyed); decodeErr == nil {
		return firstClubID(keyed), nil
	}
	var listed []map[string]any
	if decodeErr := sonic.Unmarshal(raw, &listed); decodeErr == nil {
		for _, entry := range listed {
			if id := getString(entry, "clubId"); id != "" {
				return id, nil
			}
		}
		return "", nil
	}

	c.logger.WarnContext(ctx, "ea club search payload not recognized, treating as no match",
		"club_name", clubName, "body_len", len(raw))
	return "", nil
}

// FetchMatches lists the recent private matches for one upstream club id.
// The upstream only retains a short window, so there is no pagination.
// Malformed or empty bodies decode to an empty slice.
func (c *Client) FetchMatches(ctx context.Context, eaClubID string) ([]Match, error) {
	eaClubID = strings.TrimSpace(eaClubID)
	if eaClubID == "" {
		return nil, crerr.New("ea club id is required")
	}

	query := url.Values{}
	query.Set("matchType", c.matchType)
	query.Set("platform", c.platform)
	query.Set("clubIds", eaClubID)

	raw, err := c.doGet(ctx, "/clubs/matches", query)
	if err != nil {
		return nil, fmt.Errorf("fetch matches club_id=%s: %w", eaClubID, err)
	}

	var items []map[string]any
	if decodeErr := sonic.Unmarshal(raw, &items); decodeErr != nil {
		c.logger.WarnContext(ctx, "ea matches payload not recognized, treating as empty",
			"ea_club_id", eaClubID, "body_len", len(raw))
		return nil, nil
	}

	out := make([]Match, 0, len(items))
	for _, item := range items {
		if parsed, ok := matchFromRaw(item); ok {
			out = append(out, parsed)
		}
	}
	return out, nil
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "ea circuit breaker rejected request", "state", c.breaker.State())
			return nil, crerr.Wrap(ErrNetwork, "ea api is temporarily unavailable")
		}
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isRetryable(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, crerr.Newf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, err := c.attempt(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
		if attempt == c.maxRetries {
			break
		}

		backoff := baseBackoff << attempt
		if crerr.Is(err, ErrRateLimited) && backoff < rateLimitBackoff {
			backoff = rateLimitBackoff
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "ea request failed", "url", fullURL, "kind", Kind(lastErr), "error", lastErr)
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(ErrPermanent, err.Error())
	}
	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, crerr.Wrapf(ErrNetwork, "send request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, readErr := io.Copy(buf, io.LimitReader(resp.Body, maxBodyBytes)); readErr != nil {
		return nil, crerr.Wrapf(ErrNetwork, "read response body: %v", readErr)
	}
	raw := append([]byte(nil), buf.Bytes()...)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, crerr.Wrapf(ErrRateLimited, "status=%d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, crerr.Wrapf(ErrUpstream5xx, "status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	default:
		return nil, crerr.Wrapf(ErrPermanent, "status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
	}
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
