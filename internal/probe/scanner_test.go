package probe

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	sharederrors "github.com/eznet/eznet/internal/shared/errors"
)

func TestWithSlot_EnforcesCeiling(t *testing.T) {
	const ceiling = 10
	const operations = 200

	s := NewScanner(Options{Timeout: time.Second, MaxConcurrent: ceiling})

	var inflight, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < operations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok := s.withSlot(context.Background(), func() {
				cur := inflight.Add(1)
				for {
					old := peak.Load()
					if cur <= old || peak.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inflight.Add(-1)
			})
			if !ok {
				t.Error("withSlot returned false without a deadline")
			}
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > ceiling {
		t.Errorf("observed %d concurrent operations, ceiling is %d", got, ceiling)
	}
}

func TestWithSlot_ExpiredContext(t *testing.T) {
	s := NewScanner(Options{Timeout: time.Second, MaxConcurrent: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	if s.withSlot(ctx, func() { ran = true }) {
		t.Error("withSlot succeeded under a cancelled context")
	}
	if ran {
		t.Error("fn must not run when no slot was granted")
	}
}

func TestScanner_ScanLoopbackClosedPort(t *testing.T) {
	port := freeLoopbackPort(t)

	s := NewScanner(Options{Timeout: 2 * time.Second, MaxConcurrent: 10})
	record, err := s.Scan(context.Background(), Target{Host: "127.0.0.1", Ports: []int{port}})
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "127.0.0.1", record.Host)
	require.NotNil(t, record.Port)
	assert.Equal(t, port, *record.Port)

	tcpRes, ok := record.TCP[port]
	require.True(t, ok, "TCP entry missing for port %d", port)
	assert.False(t, tcpRes.Success)
	assert.Equal(t, StateClosed, tcpRes.State)

	// A literal address resolves without a lookup.
	assert.True(t, record.DNS.IPv4.Success)
	assert.False(t, record.DNS.IPv6.Applicable)

	// No open HTTP-likely port, no HTTP section; TLS is opt-in.
	assert.Nil(t, record.HTTP)
	assert.Nil(t, record.TLS)

	assert.Empty(t, record.OpenPorts())
	assert.GreaterOrEqual(t, record.DurationMS, 0.0)
	assert.False(t, record.StartedAt.IsZero())
}

func TestScanner_ScanOpenPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port

	s := NewScanner(Options{Timeout: 2 * time.Second, MaxConcurrent: 10})
	record, err := s.Scan(context.Background(), Target{Host: "127.0.0.1", Ports: []int{port}})
	require.NoError(t, err)

	tcpRes := record.TCP[port]
	assert.True(t, tcpRes.Success, "tcp probe failed: %+v", tcpRes)
	assert.Equal(t, StateOpen, tcpRes.State)
	assert.Equal(t, []int{port}, record.OpenPorts())
}

func TestScanner_InvalidHostIsFatal(t *testing.T) {
	s := NewScanner(Options{Timeout: time.Second})
	record, err := s.Scan(context.Background(), Target{Host: "bad_host!", Ports: []int{80}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, sharederrors.ErrValidation))
	assert.Nil(t, record)
}

func TestScanner_DeadlineRecordsTimeouts(t *testing.T) {
	port := freeLoopbackPort(t)

	s := NewScanner(Options{Timeout: 2 * time.Second, MaxConcurrent: 10})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record, err := s.Scan(ctx, Target{Host: "127.0.0.1", Ports: []int{port}})
	require.NoError(t, err, "an expired deadline degrades the record, it is not fatal")
	require.NotNil(t, record)

	tcpRes := record.TCP[port]
	assert.Equal(t, StateTimeout, tcpRes.State)
	assert.Equal(t, "scan deadline exceeded", tcpRes.Error)
	assert.Equal(t, "scan deadline exceeded", record.DNS.IPv4.Error)
	assert.Equal(t, "scan deadline exceeded", record.ICMP.Error)
}

func TestScanner_PhaseTransitions(t *testing.T) {
	var mu sync.Mutex
	var phases []Phase
	s := NewScanner(Options{
		Timeout:       2 * time.Second,
		MaxConcurrent: 10,
		OnPhase: func(host string, phase Phase) {
			mu.Lock()
			phases = append(phases, phase)
			mu.Unlock()
		},
	})

	_, err := s.Scan(context.Background(), Target{Host: "127.0.0.1", Ports: []int{freeLoopbackPort(t)}})
	require.NoError(t, err)

	want := []Phase{PhasePending, PhaseResolving, PhaseProbing, PhaseAggregating, PhaseDone}
	assert.Equal(t, want, phases)
}

func TestScanner_ScanBatchPreservesInputOrder(t *testing.T) {
	port := freeLoopbackPort(t)
	targets := []Target{
		{Host: "127.0.0.1", Ports: []int{port}},
		{Host: "localhost", Ports: []int{port}},
	}

	s := NewScanner(Options{Timeout: 2 * time.Second, MaxConcurrent: 10})
	var finished atomic.Int64
	results := s.ScanBatch(context.Background(), targets, func(record *ScanRecord, err error) {
		finished.Add(1)
	})

	require.Len(t, results, 2)
	assert.Equal(t, "127.0.0.1", results[0].Host)
	assert.Equal(t, "localhost", results[1].Host)
	assert.Equal(t, int64(2), finished.Load())
}

func TestScanner_RecordJSONShape(t *testing.T) {
	port := freeLoopbackPort(t)

	s := NewScanner(Options{Timeout: 2 * time.Second, MaxConcurrent: 10})
	record, err := s.Scan(context.Background(), Target{Host: "127.0.0.1", Ports: []int{port}})
	require.NoError(t, err)

	raw, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, key := range []string{"host", "port", "ports", "dns", "tcp", "icmp", "duration_ms", "started_at"} {
		assert.Contains(t, decoded, key)
	}
	// TLS analysis was not requested and no HTTP probe ran; neither key
	// appears rather than appearing empty.
	assert.NotContains(t, decoded, "tls")
	assert.NotContains(t, decoded, "http")
}

func TestScanner_Defaults(t *testing.T) {
	s := NewScanner(Options{})
	assert.Equal(t, DefaultTimeout, s.opts.Timeout)
	assert.Equal(t, DefaultMaxConcurrent, s.opts.MaxConcurrent)
	assert.NotNil(t, s.log)

	method := s.ICMPMethod()
	assert.Contains(t, []string{MethodRawSocket, MethodSystemCommand}, method)
}

func TestScanner_NoGoroutineLeaks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	port := freeLoopbackPort(t)
	s := NewScanner(Options{Timeout: 2 * time.Second, MaxConcurrent: 10})
	_, err := s.Scan(context.Background(), Target{Host: "127.0.0.1", Ports: []int{port}})
	require.NoError(t, err)
}
