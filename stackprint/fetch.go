package stackprint

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kavinsood/stackprint/internal/resolver"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

// HTTPDoer is an interface satisfied by *http.Client and compatible clients.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HostChecker verifies that a host resolves before a request is sent.
type HostChecker interface {
	Check(ctx context.Context, host string) error
}

// dnsPreflightBudget caps the time the DNS preflight may take out of the
// request timeout. A slow resolver skips the check instead of failing the fetch.
const dnsPreflightBudget = 3 * time.Second

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// FetchOptions controls how the single GET request is issued.
type FetchOptions struct {
	Timeout         time.Duration
	UserAgent       string
	MaxBodyBytes    int64
	Insecure        bool // skip TLS certificate verification
	FollowRedirects bool
	MaxRedirects    int
	DNSPreflight    bool
}

// DefaultFetchOptions returns the options used when none are given.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		Timeout:         10 * time.Second,
		UserAgent:       defaultUserAgent,
		MaxBodyBytes:    10 * 1024 * 1024, // 10MB
		FollowRedirects: true,
		MaxRedirects:    10,
		DNSPreflight:    true,
	}
}

// Fetcher turns a URL into a FetchedResponse with exactly one GET request
// (plus any redirects). It never retries.
type Fetcher struct {
	client  HTTPDoer
	checker HostChecker
	opts    FetchOptions
	logger  zerolog.Logger
}

// NewFetcher builds a Fetcher with its own HTTP client configured from opts.
func NewFetcher(opts FetchOptions, logger zerolog.Logger) *Fetcher {
	opts = withDefaults(opts)

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: opts.Insecure,
		MinVersion:         tls.VersionTLS12,
	}

	client := &http.Client{
		Timeout:       opts.Timeout,
		Transport:     &loggingTransport{next: transport, logger: logger},
		CheckRedirect: RedirectPolicy(opts),
	}
	return NewFetcherWithClient(client, opts, logger)
}

// NewFetcherWithClient uses a caller supplied client, e.g. an SSRF-safe one.
// Redirect, TLS and timeout settings of that client are left untouched; the
// request still carries a context deadline of opts.Timeout and the DNS
// preflight follows opts.DNSPreflight.
func NewFetcherWithClient(client HTTPDoer, opts FetchOptions, logger zerolog.Logger) *Fetcher {
	opts = withDefaults(opts)
	f := &Fetcher{client: client, opts: opts, logger: logger}
	if opts.DNSPreflight {
		f.checker = resolver.FromSystem(min(opts.Timeout, dnsPreflightBudget))
	}
	return f
}

// RedirectPolicy returns the http.Client CheckRedirect hook for opts.
func RedirectPolicy(opts FetchOptions) func(*http.Request, []*http.Request) error {
	opts = withDefaults(opts)
	return func(req *http.Request, via []*http.Request) error {
		if !opts.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= opts.MaxRedirects {
			return fmt.Errorf("stopped after %d redirects", opts.MaxRedirects)
		}
		return nil
	}
}

// WithHostChecker replaces the DNS preflight. A nil checker disables it.
func (f *Fetcher) WithHostChecker(c HostChecker) *Fetcher {
	f.checker = c
	return f
}

func withDefaults(opts FetchOptions) FetchOptions {
	def := DefaultFetchOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = def.MaxBodyBytes
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = def.MaxRedirects
	}
	return opts
}

// NormalizeURL trims the input and adds an https scheme to bare hosts.
func NormalizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

// Fetch issues the GET request. Any failure, including a non-2xx status,
// comes back as a *FetchError and no response.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchedResponse, error) {
	u, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, &FetchError{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}
	target := u.String()

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	if f.checker != nil {
		if err := f.preflight(ctx, u.Hostname()); err != nil {
			return nil, &FetchError{Kind: classifyTransportError(err), URL: target, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindInvalidURL, URL: target, Err: err}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: classifyTransportError(err), URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &FetchError{Kind: KindStatus, URL: target, StatusCode: resp.StatusCode}
	}

	body, truncated, err := readBody(resp, f.opts.MaxBodyBytes)
	if err != nil {
		kind := KindBody
		if classifyTransportError(err) == KindTimeout {
			kind = KindTimeout
		}
		return nil, &FetchError{Kind: kind, URL: target, Err: err}
	}

	fr := NewFetchedResponse(resp.StatusCode, resp.Header, body)
	fr.URL = target
	fr.Truncated = truncated
	if resp.Request != nil && resp.Request.URL != nil {
		fr.URL = resp.Request.URL.String()
	}
	if truncated {
		f.logger.Debug().
			Str("url", fr.URL).
			Int64("limit", f.opts.MaxBodyBytes).
			Msg("response body truncated; markers past the limit are not seen")
	}
	return fr, nil
}

// preflight runs the DNS check. Only a definite answer (no such host, no
// address) or the caller's own deadline fails the fetch.
func (f *Fetcher) preflight(ctx context.Context, host string) error {
	pctx, cancel := context.WithTimeout(ctx, dnsPreflightBudget)
	defer cancel()

	err := f.checker.Check(pctx, host)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, resolver.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		f.logger.Debug().Err(err).Str("host", host).Msg("dns preflight skipped")
		return nil
	default:
		return err
	}
}

// readBody reads at most limit bytes and decodes them to UTF-8 using the
// Content-Type charset or a <meta> declaration. It reports whether the body
// was longer than limit.
func readBody(resp *http.Response, limit int64) (string, bool, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", false, err
	}
	truncated := int64(len(raw)) > limit
	if truncated {
		raw = raw[:limit]
	}

	reader, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		// Unknown charset: keep the raw bytes.
		return string(raw), truncated, nil
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", false, err
	}
	return string(data), truncated, nil
}

// loggingTransport logs every exchange, including redirect hops, at debug level.
type loggingTransport struct {
	next   http.RoundTripper
	logger zerolog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Debug().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("http request failed")
		return nil, err
	}
	t.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Str("reason", http.StatusText(resp.StatusCode)).
		Interface("headers", resp.Header).
		Dur("elapsed", time.Since(start)).
		Msg("http response")
	return resp, nil
}
