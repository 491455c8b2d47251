// Package tmdb 上游影片元数据网关：只读代理，不缓存不重试
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"toob-api/internal/domain"
)

const maxBodyBytes = 8 << 20

var errNotFound = errors.New("tmdb: resource not found")

// StatusError 上游非 2xx
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: unexpected status %d: %s", e.Status, e.Body)
}

type Options struct {
	BaseURL         string
	APIKey          string
	ReadAccessToken string // v4 token，配置后用 Bearer 头代替 api_key
	Language        string
	Timeout         time.Duration
	PopularLimit    int
	Breaker         BreakerOpts
	HTTPClient      *http.Client
}

type Client struct {
	base         string
	apiKey       string
	token        string
	lang         string
	popularLimit int
	hc           *http.Client
	cb           *gobreaker.CircuitBreaker[[]byte]
	log          *zap.Logger
}

var _ domain.MovieGateway = (*Client)(nil)

func New(o Options, l *zap.Logger) (*Client, error) {
	if o.BaseURL == "" {
		return nil, errors.New("tmdb: base url is required")
	}
	if _, err := url.Parse(o.BaseURL); err != nil {
		return nil, fmt.Errorf("tmdb: base url: %w", err)
	}
	if l == nil {
		l = zap.NewNop()
	}
	hc := o.HTTPClient
	if hc == nil {
		timeout := o.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:         strings.TrimRight(o.BaseURL, "/"),
		apiKey:       o.APIKey,
		token:        o.ReadAccessToken,
		lang:         o.Language,
		popularLimit: o.PopularLimit,
		hc:           hc,
		cb:           newBreaker(o.Breaker, l),
		log:          l,
	}, nil
}

// Popular 热门列表，只返回前 popularLimit 条
func (c *Client) Popular(ctx context.Context) ([]domain.Movie, error) {
	var page struct {
		Results []domain.Movie `json:"results"`
	}
	if err := c.get(ctx, "popular", "/movie/popular", nil, &page); err != nil {
		return nil, err
	}
	out := page.Results
	if out == nil {
		out = []domain.Movie{}
	}
	if c.popularLimit > 0 && len(out) > c.popularLimit {
		out = out[:c.popularLimit]
	}
	return out, nil
}

// GetByID relations 追加为 append_to_response（videos,credits,...）
func (c *Client) GetByID(ctx context.Context, id int64, relations ...string) (domain.Movie, error) {
	if id <= 0 {
		return nil, domain.Validation("invalid movie id")
	}
	q := url.Values{}
	if len(relations) > 0 {
		q.Set("append_to_response", strings.Join(relations, ","))
	}
	var m domain.Movie
	if err := c.get(ctx, "movie", "/movie/"+strconv.FormatInt(id, 10), q, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Client) Search(ctx context.Context, query string, page int) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Validation("search query required")
	}
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))

	var raw struct {
		Page         int            `json:"page"`
		Results      []domain.Movie `json:"results"`
		TotalResults int            `json:"total_results"`
		TotalPages   int            `json:"total_pages"`
	}
	if err := c.get(ctx, "search", "/search/movie", q, &raw); err != nil {
		return nil, err
	}
	if raw.Results == nil {
		raw.Results = []domain.Movie{}
	}
	return &domain.SearchResult{
		Page:         raw.Page,
		Results:      raw.Results,
		TotalResults: raw.TotalResults,
		TotalPages:   raw.TotalPages,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	start := time.Now()
	body, err := c.execute(func() ([]byte, error) { return c.fetch(ctx, path, q) })
	reqLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, errNotFound):
			reqTotal.WithLabelValues(endpoint, outcomeNotFound).Inc()
			return domain.NotFound("movie not found")
		case isRejected(err):
			reqTotal.WithLabelValues(endpoint, outcomeRejected).Inc()
			c.log.Warn("tmdb call rejected by circuit breaker", zap.String("endpoint", endpoint))
			return domain.Upstream("movie service temporarily unavailable", err)
		}
		reqTotal.WithLabelValues(endpoint, outcomeError).Inc()
		c.log.Warn("tmdb call failed", zap.String("endpoint", endpoint), zap.Error(err))
		return domain.Upstream("failed to fetch movies", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		reqTotal.WithLabelValues(endpoint, outcomeError).Inc()
		return domain.Upstream("failed to decode movie response", err)
	}
	reqTotal.WithLabelValues(endpoint, outcomeOK).Inc()
	return nil
}

func (c *Client) execute(fn func() ([]byte, error)) ([]byte, error) {
	if c.cb == nil {
		return fn()
	}
	return c.cb.Execute(fn)
}

func (c *Client) fetch(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if q == nil {
		q = url.Values{}
	}
	if c.token == "" && c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	if c.lang != "" {
		q.Set("language", c.lang)
	}
	u := c.base + path
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, redactKey(err, c.apiKey)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case res.StatusCode < 200 || res.StatusCode >= 300:
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{Status: res.StatusCode, Body: snippet}
	}
	return body, nil
}

// url.Error 会带完整 URL，日志里去掉 api_key
func redactKey(err error, key string) error {
	var ue *url.Error
	if key == "" || !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: strings.ReplaceAll(ue.URL, key, "****"), Err: ue.Err}
}
