package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"
)

// DNSProber resolves forward A and AAAA records for a host. The two
// families are looked up concurrently, each under its own timeout; a
// failure in one family is terminal for that family only. No retries.
type DNSProber struct {
	Timeout  time.Duration
	Resolver *net.Resolver
}

func (d *DNSProber) resolver() *net.Resolver {
	if d.Resolver != nil {
		return d.Resolver
	}
	return &net.Resolver{PreferGo: true}
}

// Probe resolves both families for host. A literal IP short-circuits: the
// matching family reports the address itself and the other family is marked
// not applicable, with no lookup performed.
func (d *DNSProber) Probe(ctx context.Context, host string) DNSResult {
	result := DNSResult{Host: host}

	if ip := net.ParseIP(host); ip != nil {
		literal := FamilyResult{Success: true, Applicable: true, Addresses: []string{ip.String()}}
		if ip.To4() != nil {
			result.IPv4 = literal
			result.IPv6 = FamilyResult{Applicable: false}
		} else {
			result.IPv6 = literal
			result.IPv4 = FamilyResult{Applicable: false}
		}
		return result
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.IPv4 = d.lookup(gctx, "ip4", host)
		return nil
	})
	g.Go(func() error {
		result.IPv6 = d.lookup(gctx, "ip6", host)
		return nil
	})
	_ = g.Wait()
	return result
}

func (d *DNSProber) lookup(ctx context.Context, network, host string) FamilyResult {
	lookupCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	start := time.Now()
	ips, err := d.resolver().LookupIP(lookupCtx, network, host)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		return FamilyResult{
			Applicable: true,
			Error:      fmt.Sprintf("lookup failed: %v", err),
			TimeMS:     elapsed,
		}
	}
	if len(ips) == 0 {
		return FamilyResult{
			Applicable: true,
			Error:      "no records found",
			TimeMS:     elapsed,
		}
	}

	addrs := make([]string, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, ip.String())
	}
	return FamilyResult{
		Success:    true,
		Applicable: true,
		Addresses:  addrs,
		TimeMS:     elapsed,
	}
}
