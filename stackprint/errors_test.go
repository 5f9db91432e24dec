package stackprint

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/kavinsood/stackprint/internal/resolver"
	"github.com/stretchr/testify/assert"
)

func TestFetchErrorMatching(t *testing.T) {
	timeout := &FetchError{Kind: KindTimeout, URL: "https://example.com", Err: context.DeadlineExceeded}
	assert.ErrorIs(t, timeout, ErrFetch)
	assert.ErrorIs(t, timeout, ErrTimeout)
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)
	assert.NotErrorIs(t, timeout, ErrStatus)

	status := &FetchError{Kind: KindStatus, URL: "https://example.com", StatusCode: 503}
	assert.ErrorIs(t, status, ErrStatus)
	assert.Equal(t, "fetch https://example.com: status 503 Service Unavailable", status.Error())

	wrapped := fmt.Errorf("scan: %w", status)
	assert.Equal(t, KindStatus, KindOf(wrapped))
	assert.Equal(t, FetchErrorKind(""), KindOf(errors.New("plain")))
}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FetchErrorKind
	}{
		{"deadline", &url.Error{Op: "Get", URL: "u", Err: context.DeadlineExceeded}, KindTimeout},
		{"dns", &url.Error{Op: "Get", URL: "u", Err: &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}}, KindDNS},
		{"preflight nxdomain", fmt.Errorf("%w: nope.invalid", resolver.ErrNoSuchHost), KindDNS},
		{"preflight no address", resolver.ErrNoAddress, KindDNS},
		{"unknown authority", &url.Error{Op: "Get", URL: "u", Err: x509.UnknownAuthorityError{}}, KindTLS},
		{"hostname mismatch", x509.HostnameError{Host: "example.com"}, KindTLS},
		{"refused", &url.Error{Op: "Get", URL: "u", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}, KindNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyTransportError(tt.err))
		})
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 2, ExitCode(&FetchError{Kind: KindInvalidURL}))
	assert.Equal(t, 3, ExitCode(&FetchError{Kind: KindStatus, StatusCode: 404}))
	assert.Equal(t, 3, ExitCode(&FetchError{Kind: KindDNS}))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 200, HTTPStatus(nil))
	assert.Equal(t, 400, HTTPStatus(&FetchError{Kind: KindInvalidURL}))
	assert.Equal(t, 504, HTTPStatus(&FetchError{Kind: KindTimeout}))
	assert.Equal(t, 502, HTTPStatus(&FetchError{Kind: KindTLS}))
	assert.Equal(t, 500, HTTPStatus(errors.New("boom")))
}
