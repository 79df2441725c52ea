// Package wiki implements the oracle interfaces against the MediaWiki
// Action API of a Wikipedia language edition.
package wiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/OFFIS-RIT/ned/internal/util"
	"github.com/OFFIS-RIT/ned/pkg/logger"
	"github.com/OFFIS-RIT/ned/pkg/oracle"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultLanguage   = "en"
	DefaultRatePerSec = 20
	DefaultTimeout    = 15 * time.Second
	DefaultMaxRetries = 3
	DefaultBackoff    = 500 * time.Millisecond
	DefaultUserAgent  = "ned/1.0 (https://github.com/OFFIS-RIT/ned)"

	maxBodySize = 32 << 20
)

// errMissing is returned by query when the API reports a missing or
// invalid title. Callers turn it into an empty answer.
var errMissing = errors.New("page does not exist")

// Client talks to one MediaWiki API endpoint. Requests share a rate limiter
// and a circuit breaker; transient failures are retried with backoff.
//
// A Client should be created using NewClient.
type Client struct {
	apiURL     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	maxRetries int
	backoff    time.Duration
}

// NewClientParams defines the configuration parameters for creating a new
// Client.
//
// APIURL overrides the endpoint derived from Language. RatePerSec < 0
// disables rate limiting. Zero values select the defaults.
type NewClientParams struct {
	Language   string
	APIURL     string
	UserAgent  string
	HTTPClient *http.Client
	RatePerSec float64
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// NewClient creates a Client for the configured wiki.
//
// Example:
//
//	client := wiki.NewClient(wiki.NewClientParams{Language: "de"})
//	links, err := client.OutgoingLinks(ctx, "Berlin")
func NewClient(params NewClientParams) *Client {
	lang := params.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	apiURL := params.APIURL
	if apiURL == "" {
		apiURL = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang)
	}
	userAgent := params.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	switch r := params.RatePerSec; {
	case r < 0:
		limiter = rate.NewLimiter(rate.Inf, 1)
	case r == 0:
		limiter = rate.NewLimiter(rate.Limit(DefaultRatePerSec), DefaultRatePerSec)
	default:
		limiter = rate.NewLimiter(rate.Limit(r), max(1, int(r)))
	}

	maxRetries := params.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	backoff := params.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "mediawiki",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// Only transient failures say something about the health of the API.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, oracle.ErrTransient)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("[Wiki] Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		apiURL:     apiURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		limiter:    limiter,
		breaker:    breaker,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type envelope struct {
	Error *apiError `json:"error"`
}

// query performs one API call and decodes the body into T. Transient
// failures are retried; everything else returns at once.
func query[T any](ctx context.Context, c *Client, params url.Values) (T, error) {
	var out T

	body, err := util.RetryWithContext(ctx, c.maxRetries, c.backoff, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.get(ctx, params)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, util.Permanent(fmt.Errorf("%w: %w", oracle.ErrTransient, err))
		}
		if err != nil && !errors.Is(err, oracle.ErrTransient) {
			return nil, util.Permanent(err)
		}
		return body, err
	})
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("%w: %w", oracle.ErrMalformed, err)
	}
	return out, nil
}

// get sends a single GET request and classifies the outcome.
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	if q.Get("action") == "" {
		q.Set("action", "query")
	}
	q.Set("format", "json")
	q.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", oracle.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", oracle.ErrTransient, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", oracle.ErrMalformed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %w", oracle.ErrTransient, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", oracle.ErrMalformed, err)
	}
	if env.Error != nil {
		return nil, classifyAPIError(env.Error)
	}
	return body, nil
}

func classifyAPIError(e *apiError) error {
	switch e.Code {
	case "maxlag", "ratelimited", "readonly", "internal_api_error_DBQueryError":
		return fmt.Errorf("%w: %s: %s", oracle.ErrTransient, e.Code, e.Info)
	case "missingtitle", "invalidtitle", "nosuchpageid":
		return errMissing
	default:
		return fmt.Errorf("%w: %s: %s", oracle.ErrMalformed, e.Code, e.Info)
	}
}
