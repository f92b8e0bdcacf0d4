// Package dns resolves URL hosts with direct DNS queries.
package dns

//go:generate go tool errtrace -w .

import (
	"cmp"
	"context"
	"log/slog"
	"net"
	"slices"
	"time"

	"braces.dev/errtrace"
	"github.com/miekg/dns"

	"github.com/ghettovoice/ufetch/host"
	"github.com/ghettovoice/ufetch/internal/errorutil"
	"github.com/ghettovoice/ufetch/internal/log"
)

// Error represents a resolver error.
// See [errorutil.Error].
type Error = errorutil.Error

// ErrUnresolvableHost is returned for hosts that cannot be looked up:
// opaque hosts, empty hosts and domains without addresses.
const ErrUnresolvableHost Error = "unresolvable host"

// Resolver queries a name server for the addresses of URL hosts.
// It is safe for concurrent use.
type Resolver struct {
	// NameServer specifies the DNS server address (e.g., "8.8.8.8:53").
	// If empty, the first server from /etc/resolv.conf is used.
	NameServer string
	// Timeout specifies the timeout for DNS queries.
	// If zero, defaults to 5 seconds.
	Timeout time.Duration
	// Logger receives query traces at debug level.
	Logger *slog.Logger
}

// LookupHost returns the IP addresses of h.
// IPv4 and IPv6 hosts are returned as is, domains are queried for A and AAAA records.
func (r *Resolver) LookupHost(ctx context.Context, h host.Host) ([]net.IP, error) {
	switch h.Kind() {
	case host.KindIPv4, host.KindIPv6:
		return []net.IP{h.IP()}, nil
	case host.KindDomain:
		if !h.IsEmpty() {
			break
		}
		fallthrough
	default:
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrUnresolvableHost, "%s host %q", h.Kind(), h.String()))
	}

	name, _ := h.Domain()
	var (
		ips  []net.IP
		errs []error
	)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		resp, err := r.exchange(ctx, name, qtype)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, ans := range resp.Answer {
			switch rr := ans.(type) {
			case *dns.A:
				ips = append(ips, rr.A.To4())
			case *dns.AAAA:
				ips = append(ips, rr.AAAA)
			}
		}
	}
	if len(ips) > 0 {
		return ips, nil
	}
	if len(errs) == 0 {
		errs = append(errs, &net.DNSError{Err: "no such host", Name: name, IsNotFound: true})
	}
	return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrUnresolvableHost, errorutil.Join(errs...)))
}

type SRV = net.SRV

// LookupSRV queries the SRV records of _service._proto.name.
// Records are sorted by priority, then by weight in descending order.
func (r *Resolver) LookupSRV(ctx context.Context, service, proto, name string) ([]*SRV, error) {
	target := name
	if service != "" || proto != "" {
		target = "_" + service + "._" + proto + "." + name
	}
	resp, err := r.exchange(ctx, target, dns.TypeSRV)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	recs := make([]*SRV, 0, len(resp.Answer))
	for _, ans := range resp.Answer {
		if rr, ok := ans.(*dns.SRV); ok {
			recs = append(recs, &SRV{
				Target:   rr.Target,
				Port:     rr.Port,
				Priority: rr.Priority,
				Weight:   rr.Weight,
			})
		}
	}
	slices.SortFunc(recs, func(a, b *SRV) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(b.Weight, a.Weight)
	})
	return recs, nil
}

func (r *Resolver) exchange(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	nameserver, err := r.nameserver()
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	logger := log.Or(r.Logger)
	client := &dns.Client{Timeout: r.timeout()}
	resp, rtt, err := client.ExchangeContext(ctx, m, nameserver)
	if err != nil {
		if errorutil.IsTimeoutErr(err) {
			logger.WarnContext(ctx, "dns query timed out",
				slog.String("server", nameserver),
				slog.Any("query", m),
			)
		}
		return nil, errtrace.Wrap(err)
	}
	logger.DebugContext(ctx, "dns query completed",
		slog.String("server", nameserver),
		slog.Duration("rtt", rtt),
		slog.Any("response", resp),
	)

	if resp.Rcode != dns.RcodeSuccess {
		return nil, errtrace.Wrap(&net.DNSError{
			Err:        dns.RcodeToString[resp.Rcode],
			Name:       name,
			Server:     nameserver,
			IsNotFound: resp.Rcode == dns.RcodeNameError,
		})
	}
	return resp, nil
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return 5 * time.Second
}

func (r *Resolver) nameserver() (string, error) {
	if r.NameServer != "" {
		if _, _, err := net.SplitHostPort(r.NameServer); err != nil {
			return net.JoinHostPort(r.NameServer, "53"), nil //nolint:nilerr
		}
		return r.NameServer, nil
	}

	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	if len(conf.Servers) == 0 {
		return "", errtrace.Wrap(&net.DNSError{
			Err:  "no DNS servers configured",
			Name: "resolv.conf",
		})
	}

	return net.JoinHostPort(conf.Servers[0], conf.Port), nil
}

var defResolver = &Resolver{}

func DefaultResolver() *Resolver { return defResolver }

func LookupHost(ctx context.Context, h host.Host) ([]net.IP, error) {
	return errtrace.Wrap2(defResolver.LookupHost(ctx, h))
}

func LookupSRV(ctx context.Context, service, proto, name string) ([]*SRV, error) {
	return errtrace.Wrap2(defResolver.LookupSRV(ctx, service, proto, name))
}
