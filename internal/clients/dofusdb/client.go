package dofusdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	rediscache "github.com/valkhart/grimoire-backend/internal/clients/redis"
	"github.com/valkhart/grimoire-backend/internal/platform/envutil"
	"github.com/valkhart/grimoire-backend/internal/platform/httpx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

// Client is the rate-limited, retrying JSON fetcher for the DofusDB API.
type Client interface {
	GetJSON(ctx context.Context, path string, query url.Values, opts RequestOptions) ([]byte, error)
	BaseURL() string
}

type RequestOptions struct {
	// NoCache bypasses the response cache for this request.
	NoCache bool
}

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("dofusdb: unexpected status %d for %s", e.code, e.url)
}

func (e *statusError) HTTPStatusCode() int { return e.code }

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      rediscache.Cache
	cacheTTL   time.Duration
	maxRetries int
	retryBase  time.Duration
	retryMax   time.Duration
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RPS        float64
	Burst      int
	Cache      rediscache.Cache
	CacheTTL   time.Duration
}

// NewClient reads its configuration from the environment. A nil cache disables
// caching entirely.
func NewClient(log *logger.Logger, cache rediscache.Cache) Client {
	clientLog := log.With("client", "DofusDB")
	return NewClientWithOptions(clientLog, Options{
		BaseURL:    envutil.GetEnv("DOFUSDB_BASE_URL", "https://api.dofusdb.fr", log),
		Timeout:    time.Duration(envutil.GetEnvAsInt("DOFUSDB_TIMEOUT_SECONDS", 20, log)) * time.Second,
		MaxRetries: envutil.GetEnvAsInt("DOFUSDB_MAX_RETRIES", 3, log),
		RPS:        envutil.GetEnvAsFloat("DOFUSDB_RPS", 4, log),
		Burst:      envutil.GetEnvAsInt("DOFUSDB_BURST", 2, log),
		Cache:      cache,
		CacheTTL:   time.Duration(envutil.GetEnvAsInt("DOFUSDB_CACHE_TTL_SECONDS", 3600, log)) * time.Second,
	})
}

func NewClientWithOptions(log *logger.Logger, opts Options) Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = 4
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	cacheTTL := opts.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &client{
		log:        log,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		cache:      opts.Cache,
		cacheTTL:   cacheTTL,
		maxRetries: maxRetries,
		retryBase:  500 * time.Millisecond,
		retryMax:   15 * time.Second,
	}
}

func (c *client) BaseURL() string { return c.baseURL }

func (c *client) GetJSON(ctx context.Context, path string, query url.Values, opts RequestOptions) ([]byte, error) {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	cacheKey := "dofusdb:" + fullURL
	if c.cache != nil && !opts.NoCache {
		if raw, hit, err := c.cache.Get(ctx, cacheKey); err != nil {
			c.log.Warn("cache read failed, fetching upstream", "url", fullURL, "error", err)
		} else if hit {
			return raw, nil
		}
	}

	raw, err := c.doWithRetries(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, raw, c.cacheTTL); err != nil {
			c.log.Warn("cache write failed", "url", fullURL, "error", err)
		}
	}
	return raw, nil
}

func (c *client) doWithRetries(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		raw, resp, err := c.doOnce(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			break
		}

		backoff := c.retryBase * (1 << attempt)
		sleepFor := httpx.RetryAfterDuration(resp, httpx.JitterSleep(backoff), c.retryMax)
		c.log.Debug("retrying upstream request",
			"url", fullURL, "attempt", attempt+1, "sleep", sleepFor.String(), "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleepFor):
		}
	}
	return nil, lastErr
}

func (c *client) doOnce(ctx context.Context, fullURL string) ([]byte, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp, &statusError{code: resp.StatusCode, url: fullURL}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, err
	}
	return raw, resp, nil
}
