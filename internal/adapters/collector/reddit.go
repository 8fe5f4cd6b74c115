package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/sentinel/internal/domain/model"
	"github.com/okian/sentinel/pkg/logger"
)

// Default Reddit client configuration constants.
const (
	defaultBaseURL      = "https://www.reddit.com"
	defaultUserAgent    = "sentinel/1.0"
	defaultPageLimit    = 100
	defaultFetchTimeout = 15 * time.Second
)

// RedditOption applies a configuration option to the RedditClient.
type RedditOption func(*RedditClient)

// WithBaseURL overrides the Reddit API base URL.
func WithBaseURL(base string) RedditOption {
	return func(c *RedditClient) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithUserAgent sets the User-Agent sent upstream. Reddit throttles
// clients with generic agents aggressively.
func WithUserAgent(agent string) RedditOption {
	return func(c *RedditClient) {
		if agent != "" {
			c.userAgent = agent
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) RedditOption {
	return func(c *RedditClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithPageLimit caps how many recent activity events are fetched.
func WithPageLimit(limit int) RedditOption {
	return func(c *RedditClient) {
		if limit > 0 {
			c.pageLimit = limit
		}
	}
}

// RedditClient implements Collector against Reddit's public JSON
// endpoints (about.json, overview.json, trophies.json).
type RedditClient struct {
	baseURL   string
	userAgent string
	pageLimit int
	client    *http.Client
	logger    logger.Logger
}

// NewRedditClient creates a Reddit collector with configuration options.
func NewRedditClient(opts ...RedditOption) *RedditClient {
	c := &RedditClient{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		pageLimit: defaultPageLimit,
		client:    &http.Client{Timeout: defaultFetchTimeout},
		logger:    logger.Get().Named("collector"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// aboutResponse mirrors /user/{name}/about.json.
type aboutResponse struct {
	Data struct {
		Name             string  `json:"name"`
		CreatedUTC       float64 `json:"created_utc"`
		LinkKarma        int64   `json:"link_karma"`
		CommentKarma     int64   `json:"comment_karma"`
		HasVerifiedEmail bool    `json:"has_verified_email"`
		IsGold           bool    `json:"is_gold"`
		IsSuspended      bool    `json:"is_suspended"`
	} `json:"data"`
}

// overviewResponse mirrors /user/{name}/overview.json.
type overviewResponse struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"` // t1 = comment, t3 = post
			Data struct {
				CreatedUTC float64 `json:"created_utc"`
				Subreddit  string  `json:"subreddit"`
				Body       string  `json:"body"`     // comments
				Title      string  `json:"title"`    // posts
				Selftext   string  `json:"selftext"` // posts
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// trophiesResponse mirrors /user/{name}/trophies.json.
type trophiesResponse struct {
	Data struct {
		Trophies []json.RawMessage `json:"trophies"`
	} `json:"data"`
}

// Fetch implements Collector.
func (c *RedditClient) Fetch(ctx context.Context, identifier string) (model.Account, error) {
	var about aboutResponse
	if err := c.get(ctx, fmt.Sprintf("/user/%s/about.json", identifier), &about); err != nil {
		return model.Account{}, err
	}
	if about.Data.IsSuspended {
		return model.Account{}, fmt.Errorf("fetch %q: %w", identifier, ErrSuspended)
	}

	var overview overviewResponse
	if err := c.get(ctx, fmt.Sprintf("/user/%s/overview.json?limit=%d", identifier, c.pageLimit), &overview); err != nil {
		return model.Account{}, err
	}

	// Trophies are cosmetic; a failed lookup degrades to zero rather
	// than failing the whole fetch.
	var trophies trophiesResponse
	trophyCount := 0
	if err := c.get(ctx, fmt.Sprintf("/user/%s/trophies.json", identifier), &trophies); err == nil {
		trophyCount = len(trophies.Data.Trophies)
	} else {
		c.logger.Debug(ctx, "trophy lookup failed", logger.String("identifier", identifier), logger.Error(err))
	}

	acc := model.Account{
		Identifier:   identifier,
		CreatedAt:    time.Unix(int64(about.Data.CreatedUTC), 0).UTC(),
		PostKarma:    about.Data.LinkKarma,
		CommentKarma: about.Data.CommentKarma,
		Verified:     about.Data.HasVerifiedEmail,
		Premium:      about.Data.IsGold,
		Trophies:     trophyCount,
		Activities:   make([]model.Activity, 0, len(overview.Data.Children)),
	}

	for _, child := range overview.Data.Children {
		act := model.Activity{
			At:        time.Unix(int64(child.Data.CreatedUTC), 0).UTC(),
			Subreddit: child.Data.Subreddit,
		}
		switch child.Kind {
		case "t1":
			act.Kind = model.ActivityComment
			act.Body = child.Data.Body
		case "t3":
			act.Kind = model.ActivityPost
			act.Body = child.Data.Title + "\n" + child.Data.Selftext
		default:
			continue
		}
		acc.Activities = append(acc.Activities, act)
	}

	return acc, nil
}

// get performs one JSON GET against the Reddit API and translates HTTP
// failures to the collector's error taxonomy.
func (c *RedditClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case http.StatusForbidden:
		return fmt.Errorf("%s: %w", path, ErrSuspended)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", path, ErrRateLimited)
	default:
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
