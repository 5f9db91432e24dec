package stackprint

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/kavinsood/stackprint/internal/resolver"
)

// FetchErrorKind classifies why a fetch produced no usable response.
type FetchErrorKind string

const (
	KindInvalidURL FetchErrorKind = "invalid-url"
	KindDNS        FetchErrorKind = "dns"
	KindTLS        FetchErrorKind = "tls"
	KindTimeout    FetchErrorKind = "timeout"
	KindNetwork    FetchErrorKind = "network"
	KindStatus     FetchErrorKind = "status"
	KindBody       FetchErrorKind = "body"
)

var (
	// ErrFetch matches every FetchError.
	ErrFetch = errors.New("fetch failed")
	// ErrTimeout matches fetches that ran out of time.
	ErrTimeout = errors.New("fetch timed out")
	// ErrStatus matches responses with a non-2xx status.
	ErrStatus = errors.New("unsuccessful status")
)

// FetchError reports a failed fetch. No findings exist for the URL.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int // set for KindStatus
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("fetch %s: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	case e.Err != nil:
		return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s failure", e.URL, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the package sentinels.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrFetch:
		return true
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrStatus:
		return e.Kind == KindStatus
	}
	return false
}

// KindOf returns the fetch failure kind of err, or "" if err is not a FetchError.
func KindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// classifyTransportError maps an error from the HTTP client to a failure kind.
func classifyTransportError(err error) FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, resolver.ErrNoSuchHost) || errors.Is(err, resolver.ErrNoAddress) {
		return KindDNS
	}

	var (
		verifyErr    *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		authorityErr x509.UnknownAuthorityError
		hostErr      x509.HostnameError
		invalidErr   x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &authorityErr),
		errors.As(err, &hostErr),
		errors.As(err, &invalidErr):
		return KindTLS
	}
	return KindNetwork
}

// ExitCode maps an error to a CLI exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindInvalidURL:
		return 2
	case "":
		return 1
	default:
		return 3
	}
}

// HTTPStatus maps an error to the status code an API should answer with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindInvalidURL:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusGatewayTimeout
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
