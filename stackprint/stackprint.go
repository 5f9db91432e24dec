// stackprint/stackprint.go

package stackprint

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/kavinsood/stackprint/internal/resolver"
	"github.com/kavinsood/stackprint/internal/signatures"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Client fingerprints web servers. It is safe for concurrent use: the catalog
// is read-only and every call works on its own response snapshot.
type Client struct {
	catalog *signatures.Catalog
	fetcher *Fetcher
	logger  zerolog.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithCatalog replaces the embedded signature catalog. The client keeps c;
// the caller must not modify it afterwards.
func WithCatalog(c *signatures.Catalog) Option {
	return func(cl *Client) { cl.catalog = c }
}

// WithFetcher replaces the default fetch collaborator.
func WithFetcher(f *Fetcher) Option {
	return func(cl *Client) { cl.fetcher = f }
}

// WithLogger sets the logger used by the client and its default fetcher.
func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New creates a Client using the embedded catalog and default fetch options.
func New(opts ...Option) *Client {
	c := &Client{
		catalog: signatures.Default(),
		logger:  log.Logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = NewFetcher(DefaultFetchOptions(), c.logger)
	}
	return c
}

// NewFromFile creates a Client whose catalog is read from a YAML file.
func NewFromFile(path string, opts ...Option) (*Client, error) {
	cat, err := signatures.Load(path)
	if err != nil {
		return nil, err
	}
	return New(append(opts, WithCatalog(cat))...), nil
}

// Catalog returns a copy of the catalog the client matches against. Changing
// the copy does not affect the client.
func (c *Client) Catalog() *signatures.Catalog {
	return c.catalog.Clone()
}

// Classify runs every classifier over resp regardless of its status.
// It is a pure function of resp and the catalog.
func (c *Client) Classify(resp *FetchedResponse) Findings {
	return runAllMatchers(c.catalog, resp)
}

// Analyze classifies a fetched response. A response without a 2xx status
// yields a *FetchError and no findings; partial results are never returned.
func (c *Client) Analyze(resp *FetchedResponse) (*Findings, error) {
	if resp == nil {
		return nil, &FetchError{Kind: KindNetwork, Err: fmt.Errorf("no response")}
	}
	if !resp.Succeeded() {
		return nil, &FetchError{Kind: KindStatus, URL: resp.URL, StatusCode: resp.StatusCode}
	}
	f := c.Classify(resp)
	return &f, nil
}

// Report is the outcome of fingerprinting one URL.
type Report struct {
	ID         string        `json:"id"`
	URL        string        `json:"url"`
	FinalURL   string        `json:"final_url"`
	Domain     string        `json:"domain,omitempty"`
	StatusCode int           `json:"status_code"`
	Server     string        `json:"server,omitempty"`
	Truncated  bool          `json:"body_truncated,omitempty"`
	Findings   Findings      `json:"findings"`
	FetchedAt  time.Time     `json:"fetched_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// FingerprintURL fetches targetURL once and classifies the response.
// On any fetch failure it returns nil and a *FetchError.
func (c *Client) FingerprintURL(ctx context.Context, targetURL string) (*Report, error) {
	start := c.now()
	logger := c.logger.With().Str("url", targetURL).Logger()

	resp, err := c.fetcher.Fetch(ctx, targetURL)
	if err != nil {
		logger.Debug().Err(err).Str("kind", string(KindOf(err))).Msg("fetch failed")
		return nil, err
	}

	findings, err := c.Analyze(resp)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:         uuid.NewString(),
		URL:        targetURL,
		FinalURL:   resp.URL,
		StatusCode: resp.StatusCode,
		Server:     resp.Header.Get("Server"),
		Truncated:  resp.Truncated,
		Findings:   *findings,
		FetchedAt:  start.UTC(),
		Duration:   c.now().Sub(start),
	}
	if u, err := url.Parse(resp.URL); err == nil {
		report.Domain = resolver.RegistrableDomain(u.Hostname())
	}

	logger.Debug().
		Str("platform", string(findings.Platform)).
		Int("frameworks", len(findings.Frameworks)).
		Int("libraries", len(findings.Libraries)).
		Int("security_headers", len(findings.SecurityHeaders)).
		Msg("fingerprint complete")
	return report, nil
}

// Result pairs a target with its report or fetch error.
type Result struct {
	URL    string
	Report *Report
	Err    error
}

// FingerprintAll fingerprints every URL with at most concurrency calls in
// flight. Results keep the order of urls; one failure does not stop the rest.
func (c *Client) FingerprintAll(ctx context.Context, urls []string, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, target := range urls {
		g.Go(func() error {
			report, err := c.FingerprintURL(gctx, target)
			results[i] = Result{URL: target, Report: report, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
