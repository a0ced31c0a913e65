package probe

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/eznet/eznet/internal/ports"
)

// Phase is the per-target scan lifecycle, observable through
// Options.OnPhase so a dashboard can track progress without polling.
type Phase string

const (
	PhasePending     Phase = "pending"
	PhaseResolving   Phase = "resolving"
	PhaseProbing     Phase = "probing"
	PhaseAggregating Phase = "aggregating"
	PhaseDone        Phase = "done"
)

// Defaults for Options.
const (
	DefaultTimeout       = 5 * time.Second
	DefaultMaxConcurrent = 50
)

// Options configures a Scanner. Zero values fall back to defaults.
type Options struct {
	// Timeout bounds each individual probe operation.
	Timeout time.Duration

	// MaxConcurrent caps simultaneously in-flight socket operations
	// across all probes and all targets. Shared, not per-target.
	MaxConcurrent int

	// SSL enables certificate analysis on TLS-eligible ports.
	SSL bool

	// RateLimit caps probe launches per second across the batch.
	// Zero or negative means unlimited.
	RateLimit float64

	// Logger receives probe and phase events. Nil means no logging.
	Logger *zap.SugaredLogger

	// OnPhase, when set, is invoked on every per-target phase transition.
	OnPhase func(host string, phase Phase)
}

// Scanner fans probes out over targets under one shared concurrency
// ceiling. Construct with NewScanner; the ICMP strategy is bound once
// there, not re-probed per call.
type Scanner struct {
	opts    Options
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	log     *zap.SugaredLogger

	dns  *DNSProber
	tcp  *TCPProber
	http *HTTPProber
	tls  *TLSProber
	icmp ICMPStrategy
}

// NewScanner normalizes the options and binds the probes.
func NewScanner(opts Options) *Scanner {
	if opts.Timeout < time.Second {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scanner{
		opts:    opts,
		sem:     semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		limiter: rate.NewLimiter(limit, opts.MaxConcurrent),
		log:     log,
		dns:     &DNSProber{Timeout: opts.Timeout},
		tcp:     &TCPProber{Timeout: opts.Timeout},
		http:    &HTTPProber{Timeout: opts.Timeout, UserAgent: "eznet (network diagnostic tool)"},
		tls:     &TLSProber{Timeout: opts.Timeout},
		icmp:    NewICMPStrategy(opts.Timeout),
	}
}

// ICMPMethod reports which echo strategy the capability probe selected.
func (s *Scanner) ICMPMethod() string { return s.icmp.Method() }

// withSlot runs one socket-level operation under the shared ceiling. The
// slot is held only for the duration of fn and released unconditionally.
// A false return means the scan deadline expired before a slot freed up;
// the caller records the probe as a timeout.
func (s *Scanner) withSlot(ctx context.Context, fn func()) bool {
	if err := s.limiter.Wait(ctx); err != nil {
		return false
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer s.sem.Release(1)
	fn()
	return true
}

func (s *Scanner) setPhase(host string, phase Phase) {
	s.log.Debugw("scan phase", "host", host, "phase", phase)
	if s.opts.OnPhase != nil {
		s.opts.OnPhase(host, phase)
	}
}

// Scan runs the full probe battery for one target and aggregates the
// results. Only invalid input returns an error; every probe failure is
// folded into the record. The caller's context carries the global
// deadline: on expiry, outstanding probes are cancelled and recorded as
// timeouts, and whatever completed is aggregated.
func (s *Scanner) Scan(ctx context.Context, target Target) (*ScanRecord, error) {
	if err := ValidateHost(target.Host); err != nil {
		return nil, err
	}
	host := target.Host
	s.setPhase(host, PhasePending)

	record := &ScanRecord{
		Host:      host,
		Ports:     append([]int(nil), target.Ports...),
		TCP:       make(map[int]TCPResult, len(target.Ports)),
		HTTP:      make(map[int]HTTPResult),
		StartedAt: time.Now().UTC(),
	}
	if s.opts.SSL {
		record.TLS = make(map[int]TLSResult)
	}
	start := time.Now()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	s.setPhase(host, PhaseResolving)
	g.Go(func() error {
		res := s.probeDNS(gctx, host)
		mu.Lock()
		record.DNS = res
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		res := s.probeICMP(gctx, host)
		mu.Lock()
		record.ICMP = res
		mu.Unlock()
		return nil
	})

	s.setPhase(host, PhaseProbing)
	for _, port := range record.Ports {
		g.Go(func() error {
			s.probePort(gctx, record, &mu, host, port)
			return nil
		})
	}

	_ = g.Wait()

	s.setPhase(host, PhaseAggregating)
	record.DurationMS = float64(time.Since(start).Microseconds()) / 1000.0
	if len(record.Ports) == 1 {
		record.Port = &record.Ports[0]
	}
	if len(record.HTTP) == 0 {
		record.HTTP = nil
	}
	s.setPhase(host, PhaseDone)
	return record, nil
}

func (s *Scanner) probeDNS(ctx context.Context, host string) DNSResult {
	var res DNSResult
	if !s.withSlot(ctx, func() { res = s.dns.Probe(ctx, host) }) {
		timedOut := FamilyResult{Applicable: true, Error: "scan deadline exceeded"}
		return DNSResult{Host: host, IPv4: timedOut, IPv6: timedOut}
	}
	return res
}

func (s *Scanner) probeICMP(ctx context.Context, host string) ICMPResult {
	var res ICMPResult
	if !s.withSlot(ctx, func() { res = s.icmp.Ping(ctx, host) }) {
		return ICMPResult{Method: s.icmp.Method(), Error: "scan deadline exceeded"}
	}
	return res
}

// probePort runs the per-port chain: TCP first, then HTTP and TLS only if
// the connect succeeded. HTTP and TLS never race ahead of a failed TCP
// probe, so a dead port produces exactly one map entry.
func (s *Scanner) probePort(ctx context.Context, record *ScanRecord, mu *sync.Mutex, host string, port int) {
	var tcpRes TCPResult
	if !s.withSlot(ctx, func() { tcpRes = s.tcp.Probe(ctx, host, port) }) {
		tcpRes = TCPResult{
			Port:    port,
			State:   StateTimeout,
			Service: ports.ServiceName(port),
			Error:   "scan deadline exceeded",
		}
	}
	mu.Lock()
	record.TCP[port] = tcpRes
	mu.Unlock()

	if !tcpRes.Success {
		return
	}
	s.log.Debugw("port open", "host", host, "port", port, "latency_ms", tcpRes.TimeMS)

	if HTTPLikely(port) {
		var httpRes HTTPResult
		if !s.withSlot(ctx, func() { httpRes = s.http.Probe(ctx, host, port) }) {
			httpRes = HTTPResult{ErrorCategory: "timeout", Error: "scan deadline exceeded"}
		}
		mu.Lock()
		record.HTTP[port] = httpRes
		mu.Unlock()
	}

	if s.opts.SSL && TLSEligible(port) {
		var tlsRes TLSResult
		if !s.withSlot(ctx, func() { tlsRes = s.tls.Probe(ctx, host, port) }) {
			tlsRes = TLSResult{Port: port, Error: "scan deadline exceeded"}
		}
		mu.Lock()
		record.TLS[port] = tlsRes
		mu.Unlock()
	}
}

// ScanBatch scans targets independently; there is no cross-target ordering
// guarantee. onResult, when set, is invoked as each target finishes. The
// returned slice preserves input order for deterministic rendering.
func (s *Scanner) ScanBatch(ctx context.Context, targets []Target, onResult func(*ScanRecord, error)) []*ScanRecord {
	results := make([]*ScanRecord, len(targets))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := s.Scan(ctx, target)
			mu.Lock()
			results[i] = record
			mu.Unlock()
			if onResult != nil {
				onResult(record, err)
			}
		}()
	}
	wg.Wait()
	return results
}
