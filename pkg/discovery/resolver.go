package discovery

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"slices"
	"time"
)

// ipLookuper abstracts the DNS client so tests can inject fixed answers.
// *net.Resolver satisfies it.
type ipLookuper interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Resolver enumerates the candidate addresses behind the shared backend
// hostname. Every pod registers under the same name, so one lookup returns
// the whole fleet.
//
// The resolver holds no cache. Callers decide how long an answer stays
// fresh; the resolver always asks DNS.
type Resolver struct {
	hostname string
	lookup   ipLookuper
	logger   *slog.Logger
}

// NewResolver creates a resolver for the given backend hostname.
// If nameserver is non-empty (host:port), lookups bypass the system resolver
// and go straight to that server.
func NewResolver(hostname, nameserver string) *Resolver {
	lookup := net.DefaultResolver
	if nameserver != "" {
		lookup = &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{Timeout: 5 * time.Second}
				return d.DialContext(ctx, network, nameserver)
			},
		}
	}

	return &Resolver{
		hostname: hostname,
		lookup:   lookup,
		logger:   slog.Default().With("component", "discovery.resolver"),
	}
}

// Hostname returns the backend hostname the resolver enumerates.
func (r *Resolver) Hostname() string {
	return r.hostname
}

// Resolve returns the deduplicated, sorted union of the hostname's IPv4 and
// IPv6 addresses.
//
// The two address family lookups run independently: one family failing or
// coming back empty is normal in single-stack clusters and does not fail the
// enumeration. Only when both lookups fail, or the union is empty, does
// Resolve return a NoCandidatesError.
func (r *Resolver) Resolve(ctx context.Context) ([]netip.Addr, error) {
	ip4, err4 := r.lookup.LookupNetIP(ctx, "ip4", r.hostname)
	ip6, err6 := r.lookup.LookupNetIP(ctx, "ip6", r.hostname)

	if err4 != nil && err6 != nil {
		r.logger.Warn("both address family lookups failed",
			"hostname", r.hostname,
			"ip4_error", err4,
			"ip6_error", err6,
		)
		return nil, NewNoCandidatesError(r.hostname, ReasonDNSError, errors.Join(err4, err6))
	}

	addrs := make([]netip.Addr, 0, len(ip4)+len(ip6))
	for _, addr := range ip4 {
		// IPv4 answers can arrive as 4-in-6 mapped addresses.
		addrs = append(addrs, addr.Unmap())
	}
	for _, addr := range ip6 {
		addrs = append(addrs, addr.Unmap())
	}

	// Sort and deduplicate so every round sees the fleet in the same order.
	// The duplicate tie-break downstream depends on this ordering.
	slices.SortFunc(addrs, netip.Addr.Compare)
	addrs = slices.Compact(addrs)

	if len(addrs) == 0 {
		r.logger.Warn("hostname resolved to no addresses", "hostname", r.hostname)
		return nil, NewNoCandidatesError(r.hostname, ReasonNoIPs, nil)
	}

	r.logger.Debug("enumerated backend candidates",
		"hostname", r.hostname,
		"candidate_count", len(addrs),
		"ip4_count", len(ip4),
		"ip6_count", len(ip6),
	)

	return addrs, nil
}
