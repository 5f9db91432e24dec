package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/weppos/publicsuffix-go/publicsuffix"
)

var (
	// ErrNoSuchHost means an authoritative answer said the name does not exist.
	ErrNoSuchHost = errors.New("no such host")
	// ErrNoAddress means the name exists but has no A or AAAA records.
	ErrNoAddress = errors.New("no address records")
	// ErrUnavailable means no configured resolver could be reached.
	ErrUnavailable = errors.New("no resolver reachable")
)

// Public resolvers used when the system configuration cannot be read.
var fallbackServers = []string{
	"8.8.8.8:53",        // Google
	"1.1.1.1:53",        // Cloudflare
	"9.9.9.9:53",        // Quad9
	"208.67.222.222:53", // OpenDNS
}

// addressTypes are queried in order until one yields an answer.
var addressTypes = []uint16{dns.TypeA, dns.TypeAAAA}

// LookupFunc resolves a host the way the platform does, hosts file and search
// domains included.
type LookupFunc func(ctx context.Context, host string) ([]string, error)

// Resolver checks that a host name resolves before a request is issued.
type Resolver struct {
	servers []string
	client  *dns.Client
	lookup  LookupFunc
}

// New creates a Resolver that queries the given servers ("host:port") in order.
func New(servers []string, timeout time.Duration) *Resolver {
	if len(servers) == 0 {
		servers = fallbackServers
	}
	return &Resolver{
		servers: append([]string(nil), servers...),
		client:  &dns.Client{Net: "udp", Timeout: timeout},
		lookup:  net.DefaultResolver.LookupHost,
	}
}

// WithSystemLookup replaces the lookup that confirms a negative DNS answer.
// A nil lookup trusts the DNS servers alone.
func (r *Resolver) WithSystemLookup(fn LookupFunc) *Resolver {
	r.lookup = fn
	return r
}

// FromSystem builds a Resolver from /etc/resolv.conf, falling back to well known
// public resolvers when the file is missing or empty.
func FromSystem(timeout time.Duration) *Resolver {
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		return New(nil, timeout)
	}
	servers := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		servers = append(servers, net.JoinHostPort(s, cfg.Port))
	}
	return New(servers, timeout)
}

// Servers returns the resolver addresses in query order.
func (r *Resolver) Servers() []string {
	return append([]string(nil), r.servers...)
}

// Check resolves host and returns nil when it has at least one address record.
// IP literals and localhost are accepted without a query. A negative answer
// from the DNS servers only stands when the system lookup agrees, so names
// mapped in /etc/hosts or reached through a search domain pass.
func (r *Resolver) Check(ctx context.Context, host string) error {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrNoSuchHost)
	}
	if net.ParseIP(host) != nil || strings.EqualFold(host, "localhost") {
		return nil
	}

	fqdn := dns.Fqdn(host)
	var lastErr error
	for _, server := range r.servers {
		found, err := r.queryServer(ctx, fqdn, server)
		if err == nil {
			if found {
				return nil
			}
			return r.confirm(ctx, host, fmt.Errorf("%w: %s", ErrNoAddress, host))
		}
		if errors.Is(err, ErrNoSuchHost) {
			return r.confirm(ctx, host, fmt.Errorf("%w: %s", ErrNoSuchHost, host))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// confirm returns nil when the system lookup finds an address for host, and
// the negative DNS answer otherwise.
func (r *Resolver) confirm(ctx context.Context, host string, negative error) error {
	if r.lookup == nil {
		return negative
	}
	if addrs, err := r.lookup(ctx, host); err == nil && len(addrs) > 0 {
		return nil
	}
	return negative
}

// queryServer asks one server for each address type. It reports whether any
// address was found; a transport failure is returned as an error so the
// caller can move on to the next server.
func (r *Resolver) queryServer(ctx context.Context, fqdn, server string) (bool, error) {
	for _, qtype := range addressTypes {
		msg := new(dns.Msg)
		msg.SetQuestion(fqdn, qtype)
		msg.RecursionDesired = true

		in, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			return false, err
		}
		switch in.Rcode {
		case dns.RcodeSuccess:
			if hasAddress(in.Answer) {
				return true, nil
			}
		case dns.RcodeNameError:
			return false, ErrNoSuchHost
		default:
			return false, fmt.Errorf("server %s answered %s", server, dns.RcodeToString[in.Rcode])
		}
	}
	return false, nil
}

func hasAddress(answers []dns.RR) bool {
	for _, rr := range answers {
		switch rr.(type) {
		case *dns.A, *dns.AAAA, *dns.CNAME:
			return true
		}
	}
	return false
}

// RegistrableDomain extracts the registrable domain (eTLD+1) from a host name.
// IP literals and names without a known suffix are returned unchanged.
func RegistrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" || net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.Domain(host)
	if err != nil || domain == "" {
		return host
	}
	return domain
}
