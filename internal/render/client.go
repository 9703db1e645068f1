// Package render fetches rendered images from a PlantUML server.
//
// The server is called as GET {server}/{format}/{encoded}. Failures are
// retried with exponential backoff and jitter, except 401 and 403 which
// are permanent.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HendryAvila/c4-hoofy/internal/logging"
	"github.com/HendryAvila/c4-hoofy/internal/metrics"
	"github.com/HendryAvila/c4-hoofy/internal/plantuml"
)

// Format is the image format path segment.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat accepts png or svg in any casing.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatSVG:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q: must be png or svg", s)
	}
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

const (
	DefaultServer       = "https://www.plantuml.com/plantuml"
	DefaultMaxRetries   = 5
	DefaultInitialDelay = time.Second
	DefaultTimeout      = 15 * time.Second
)

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	Server string
	Format Format
	// MaxRetries is the number of retries after the first attempt. A
	// negative value disables retries.
	MaxRetries   int
	InitialDelay time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *logging.Logger
}

// Client renders PlantUML source through a PlantUML server.
type Client struct {
	server       string
	format       Format
	maxRetries   int
	initialDelay time.Duration
	http         *http.Client
	log          *logging.Logger

	// Injected so tests can observe backoff without waiting.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// New returns a Client with defaults applied.
func New(opts Options) *Client {
	c := &Client{
		server:       strings.TrimRight(opts.Server, "/"),
		format:       opts.Format,
		maxRetries:   opts.MaxRetries,
		initialDelay: opts.InitialDelay,
		http:         opts.HTTPClient,
		log:          opts.Logger,
		sleep:        sleepContext,
		jitter:       func() float64 { return 0.5 + rand.Float64()*0.5 },
	}
	if c.server == "" {
		c.server = DefaultServer
	}
	if c.format == "" {
		c.format = FormatPNG
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	} else if opts.MaxRetries == 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.initialDelay <= 0 {
		c.initialDelay = DefaultInitialDelay
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.log == nil {
		c.log = logging.NewNop()
	}
	return c
}

// WithFormat returns a copy of c producing f.
func (c *Client) WithFormat(f Format) *Client {
	cp := *c
	cp.format = f
	return &cp
}

// Format reports the image format the client requests.
func (c *Client) Format() Format { return c.format }

// URL returns the server URL that renders source.
func (c *Client) URL(source string) (string, error) {
	encoded, err := plantuml.Encode(source)
	if err != nil {
		return "", fmt.Errorf("encoding source: %w", err)
	}
	return c.server + "/" + string(c.format) + "/" + encoded, nil
}

// Render returns the image bytes for source. It makes at most
// maxRetries+1 attempts and never sleeps after the last one.
func (c *Client) Render(ctx context.Context, source string) ([]byte, error) {
	url, err := c.URL(source)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.RenderDuration.WithLabelValues(string(c.format)).Observe(time.Since(start).Seconds())
	}()

	var last *ServiceError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, err := c.fetch(ctx, url)
		if err == nil {
			metrics.RenderAttempts.WithLabelValues(string(c.format), "ok").Inc()
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("render cancelled: %w", ctxErr)
		}

		last = err
		last.Attempts = attempt + 1
		if last.Permanent {
			metrics.RenderAttempts.WithLabelValues(string(c.format), "permanent").Inc()
			c.log.Error("render failed permanently", "status", last.StatusCode, "attempt", attempt+1)
			return nil, last
		}
		if attempt == c.maxRetries {
			metrics.RenderAttempts.WithLabelValues(string(c.format), "exhausted").Inc()
			break
		}

		metrics.RenderAttempts.WithLabelValues(string(c.format), "retry").Inc()
		delay := c.backoff(attempt)
		c.log.Warn("render attempt failed, retrying",
			"attempt", attempt+1, "status", last.StatusCode, "delay", delay, "error", last.Err)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("render cancelled: %w", err)
		}
	}

	c.log.Error("render failed after retries", "attempts", last.Attempts, "status", last.StatusCode)
	return nil, last
}

// RenderAndSave renders source and writes the bytes to outputPath.
func (c *Client) RenderAndSave(ctx context.Context, source, outputPath string) ([]byte, error) {
	data, err := c.Render(ctx, source)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return data, nil
}

// backoff is initialDelay × 2^attempt × jitter, jitter in [0.5, 1.0).
func (c *Client) backoff(attempt int) time.Duration {
	base := float64(c.initialDelay) * float64(int64(1)<<attempt)
	return time.Duration(base * c.jitter())
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, *ServiceError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ServiceError{Err: err, Permanent: true}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ServiceError{
			StatusCode: resp.StatusCode,
			Permanent:  resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden,
			Err:        errors.New(strings.TrimSpace(string(snippet))),
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
