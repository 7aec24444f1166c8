package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/modelcontextprotocol/crawler/internal/telemetry"
	"github.com/modelcontextprotocol/crawler/pkg/model"
)

var (
	// ErrCrawlExhausted is returned once the retry budget for a page is
	// consumed. Fatal for that page, never silently swallowed.
	ErrCrawlExhausted = errors.New("crawl exhausted")
	// ErrRateLimited marks an HTTP 403, which GitHub uses for rate limiting
	ErrRateLimited = errors.New("rate limited")
	// ErrMalformedPayload marks a response that decoded into the wrong
	// shape. Retrying will not fix a shape mismatch, so it is not retried.
	ErrMalformedPayload = errors.New("malformed payload")
)

const userAgent = "mcp-crawler/1.0"

// RetryPolicy bounds the fetch retry loop
type RetryPolicy struct {
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultRetryPolicy matches the crawl defaults: 3 attempts, 5s apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, RetryDelay: 5 * time.Second}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = 3
	}
	if p.RetryDelay <= 0 {
		p.RetryDelay = 5 * time.Second
	}
	return p
}

// Fetcher issues authenticated HTTP GETs with bounded retry. One instance
// is shared across the walk of a root; the token is injected into every
// request when present.
type Fetcher struct {
	client  *http.Client
	token   string
	policy  RetryPolicy
	log     *zap.Logger
	metrics *telemetry.Metrics
}

// NewFetcher creates a Fetcher. token may be empty; callers are expected
// to degrade rather than fail when it is.
func NewFetcher(token string, policy RetryPolicy, log *zap.Logger, metrics *telemetry.Metrics) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		token:   token,
		policy:  policy.withDefaults(),
		log:     log,
		metrics: metrics,
	}
}

// HasToken reports whether an auth token was configured
func (f *Fetcher) HasToken() bool {
	return f.token != ""
}

// FetchListing fetches and decodes one directory listing. A 200 with an
// empty body yields (nil, nil): natural end of data, not a failure. A
// payload that is not a JSON list is an error, not an empty directory.
func (f *Fetcher) FetchListing(ctx context.Context, url string) ([]model.DirectoryEntry, error) {
	var entries []model.DirectoryEntry
	ok, err := f.FetchJSON(ctx, url, &entries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return entries, nil
}

// FetchJSON fetches url with the Fetcher's retry policy and decodes the
// body into v. The boolean is false for the empty-body sentinel.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, v any) (bool, error) {
	return f.FetchJSONWith(ctx, url, v, f.policy)
}

// FetchJSONWith is FetchJSON with a per-request retry policy override.
//
// Transport errors, 5xx and 403 responses are retried up to
// policy.MaxRetries total attempts with policy.RetryDelay between them;
// exhaustion converts the final failure into ErrCrawlExhausted. Shape
// errors and other 4xx responses propagate immediately.
func (f *Fetcher) FetchJSONWith(ctx context.Context, url string, v any, policy RetryPolicy) (bool, error) {
	policy = policy.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxRetries; attempt++ {
		ok, retryable, err := f.fetchJSONOnce(ctx, url, v)
		if err == nil {
			return ok, nil
		}
		if !retryable {
			return false, err
		}
		lastErr = err

		if attempt < policy.MaxRetries {
			f.log.Warn("fetch attempt failed, retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", policy.MaxRetries),
				zap.Duration("retry_delay", policy.RetryDelay),
				zap.Error(err))
			f.metrics.FetchRetried(ctx)
			if err := sleepCtx(ctx, policy.RetryDelay); err != nil {
				return false, err
			}
		}
	}

	f.log.Error("fetch retry budget consumed",
		zap.String("url", url),
		zap.Int("attempts", policy.MaxRetries),
		zap.Error(lastErr))
	return false, fmt.Errorf("%w: %s after %d attempts: %w", ErrCrawlExhausted, url, policy.MaxRetries, lastErr)
}

// fetchJSONOnce performs a single attempt. The middle return value tells
// the retry loop whether the failure class is worth another attempt.
func (f *Fetcher) fetchJSONOnce(ctx context.Context, url string, v any) (ok, retryable bool, err error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return false, true, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return false, true, fmt.Errorf("%w: %s", ErrRateLimited, url)
	case resp.StatusCode >= 500:
		return false, true, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return false, false, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, true, fmt.Errorf("read %s: %w", url, err)
	}
	f.metrics.PageFetched(ctx)

	if len(body) == 0 || string(body) == "null" {
		// Empty decoded body signals natural end of data
		return false, false, nil
	}

	if err := json.Unmarshal(body, v); err != nil {
		return false, false, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, url, err)
	}
	return true, false, nil
}

// FetchBytes downloads raw file content in a single attempt
func (f *Fetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json, application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "token "+f.token)
	}
	return f.client.Do(req)
}

// sleepCtx waits d, or returns early when ctx is cancelled. Retry delays
// must remain interruptible so a shutdown signal can cut a pending retry.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
