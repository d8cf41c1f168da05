// Package httpds fetches a remote catalog export over HTTP(S) with retry and
// exponential backoff. 5xx, 429 and transport errors are retried; any other
// non-2xx status fails immediately.
package httpds

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

// Config configures the HTTP source.
//
// Zero values are given sensible defaults:
//   - Timeout:        5m (whole download)
//   - MaxRetries:     3
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	Timeout            time.Duration
	MaxRetries         int
	InitialBackoff     time.Duration
	MaxBackoff         time.Duration
	InsecureSkipVerify bool

	// Logger receives retry attempts. Nil disables retry logging.
	Logger retryablehttp.LeveledLogger
}

// Source is a remote file reachable with a GET request.
type Source struct {
	url    string
	client *retryablehttp.Client
}

// New returns a Source for url.
func New(url string, cfg Config) *Source {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	c := retryablehttp.NewClient()
	c.RetryMax = cfg.MaxRetries
	c.RetryWaitMin = cfg.InitialBackoff
	c.RetryWaitMax = cfg.MaxBackoff
	c.Logger = nil
	if cfg.Logger != nil {
		c.Logger = cfg.Logger
	}
	c.HTTPClient.Timeout = cfg.Timeout
	if cfg.InsecureSkipVerify {
		c.HTTPClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // explicitly configurable
		}
	}
	return &Source{url: url, client: c}
}

func (s *Source) String() string { return s.url }

// Open issues the GET and returns the response body. The caller must close it.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "httpds: build request")
	}
	resp, err := s.client.StandardClient().Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "httpds: GET %s", s.url)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, errors.Errorf("httpds: GET %s: status %d", s.url, resp.StatusCode)
	}
	return resp.Body, nil
}
