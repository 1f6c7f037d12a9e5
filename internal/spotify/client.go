package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpclient "github.com/handiism/lyrics-harvester/internal/http"
	"github.com/handiism/lyrics-harvester/internal/metrics"
	"github.com/handiism/lyrics-harvester/internal/model"
	"github.com/handiism/lyrics-harvester/internal/ratelimit"
	"github.com/handiism/lyrics-harvester/internal/retry"
	"github.com/handiism/lyrics-harvester/internal/spotify/dto"
	"golang.org/x/time/rate"
)

// DefaultAPIURL is the Web API base.
const DefaultAPIURL = "https://api.spotify.com"

const service = "spotify"

// Config configures a Client.
type Config struct {
	// APIURL overrides DefaultAPIURL.
	APIURL string
	// Market restricts results to one country code. Empty searches all.
	Market string
	// MaxAttempts bounds tries per query for rate limiting and network
	// failures. Defaults to 3.
	MaxAttempts int
	// MaxRetryAfter caps server-requested waits. Defaults to 10s.
	MaxRetryAfter time.Duration
	// Cooldown and Exponent shape the backoff for network failures.
	Cooldown time.Duration
	Exponent float64
	// Budget, when set, is an additional token-bucket allowance shared with
	// other consumers of the same API key.
	Budget *rate.Limiter
}

// Client looks up tracks by artist and title.
//
// Every request first takes a slot from the shared Limiter, so the request
// rate toward the API stays under one per interval no matter how many
// goroutines call Lookup.
type Client struct {
	cfg     Config
	http    *httpclient.Client
	tokens  *TokenPool
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	policy  retry.Policy
}

// NewClient creates a Client. limiter and tokens must be shared by every
// goroutine talking to the API.
func NewClient(cfg Config, hc *httpclient.Client, tokens *TokenPool, limiter *ratelimit.Limiter, m *metrics.Metrics) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxRetryAfter <= 0 {
		cfg.MaxRetryAfter = 10 * time.Second
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 200 * time.Millisecond
	}
	if cfg.Exponent <= 0 {
		cfg.Exponent = 4
	}
	if hc == nil {
		hc = httpclient.NewClient(httpclient.WithTimeout(10 * time.Second))
	}
	if limiter == nil {
		limiter = ratelimit.New(0)
	}

	c := &Client{cfg: cfg, http: hc, tokens: tokens, limiter: limiter, metrics: m}
	c.policy = retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     retry.Exponential(cfg.Cooldown, cfg.Exponent, cfg.MaxRetryAfter),
		Retryable:   model.IsTransient,
		MaxWait:     cfg.MaxRetryAfter,
		OnRetry: func(_ int, err error, _ time.Duration) {
			m.Retry(service, model.KindOf(err).String())
		},
	}
	return c
}

// Lookup searches for a track. It tries a strict field query first and a
// free-text query second, and returns model.ErrNotFound when neither
// matches.
func (c *Client) Lookup(ctx context.Context, artist, title string) (*model.SpotifyTrack, error) {
	artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
	if artist == "" || title == "" {
		return nil, fmt.Errorf("empty artist or title: %w", model.ErrMalformedInput)
	}

	for _, q := range []string{StrictQuery(artist, title), FlexibleQuery(artist, title)} {
		track, err := c.Search(ctx, q)
		if err == nil {
			return track, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%s - %s: %w", artist, title, err)
		}
	}
	return nil, fmt.Errorf("%s - %s: %w", artist, title, model.ErrNotFound)
}

// Search runs one track query and returns the best match.
func (c *Client) Search(ctx context.Context, query string) (*model.SpotifyTrack, error) {
	var track *model.SpotifyTrack
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		track, err = c.searchAuthorized(ctx, query)
		return err
	})
	return track, err
}

// searchAuthorized retries once with a fresh token after a 401.
func (c *Client) searchAuthorized(ctx context.Context, query string) (*model.SpotifyTrack, error) {
	for attempt := 0; ; attempt++ {
		tok, err := c.tokens.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("get token: %w", err)
		}

		track, err := c.search(ctx, tok, query)

		var se *httpclient.StatusError
		if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
			c.tokens.Invalidate(tok)
			if attempt == 0 {
				c.metrics.Retry(service, "unauthorized")
				continue
			}
			return nil, err
		}

		c.tokens.Put(tok)
		return track, err
	}
}

func (c *Client) search(ctx context.Context, tok Token, query string) (*model.SpotifyTrack, error) {
	if _, err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	if c.cfg.Budget != nil {
		if err := c.cfg.Budget.Wait(ctx); err != nil {
			return nil, err
		}
	}

	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {"1"},
	}
	if c.cfg.Market != "" {
		params.Set("market", c.cfg.Market)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"/v1/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	body, err := c.http.Do(req)
	if err != nil {
		c.metrics.Request(service, model.KindOf(err).String())
		return nil, err
	}

	var resp dto.SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.metrics.Request(service, "decode_error")
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(resp.Tracks.Items) == 0 {
		c.metrics.Request(service, model.KindNotFound.String())
		return nil, model.ErrNotFound
	}

	c.metrics.Request(service, "ok")
	return resp.Tracks.Items[0].ToTrack(), nil
}

// StrictQuery builds a field-filtered query: track:"title" artist:"artist".
func StrictQuery(artist, title string) string {
	return `track:"` + stripQuotes(title) + `" artist:"` + stripQuotes(artist) + `"`
}

// FlexibleQuery builds a free-text query.
func FlexibleQuery(artist, title string) string {
	return stripQuotes(title) + " " + stripQuotes(artist)
}

func stripQuotes(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}
