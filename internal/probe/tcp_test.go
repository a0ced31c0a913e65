package probe

import (
	"context"
	"net"
	"os"
	"syscall"
	"testing"
	"time"
)

// freeLoopbackPort grabs an ephemeral port and releases it so a probe
// against it sees an active refusal.
func freeLoopbackPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func TestTCPProber_OpenPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	prober := &TCPProber{Timeout: 2 * time.Second}
	port := ln.Addr().(*net.TCPAddr).Port
	result := prober.Probe(context.Background(), "127.0.0.1", port)

	if !result.Success {
		t.Fatalf("probe of open port failed: %+v", result)
	}
	if result.State != StateOpen {
		t.Errorf("state = %q, want %q", result.State, StateOpen)
	}
	if result.Port != port {
		t.Errorf("port = %d, want %d", result.Port, port)
	}
}

func TestTCPProber_ClosedPort(t *testing.T) {
	port := freeLoopbackPort(t)

	prober := &TCPProber{Timeout: 2 * time.Second}
	start := time.Now()
	result := prober.Probe(context.Background(), "127.0.0.1", port)
	elapsed := time.Since(start)

	if result.Success {
		t.Fatalf("probe of closed port succeeded: %+v", result)
	}
	if result.State != StateClosed {
		t.Errorf("state = %q, want %q (a refusal is not a timeout)", result.State, StateClosed)
	}
	if elapsed > time.Second {
		t.Errorf("refusal took %s, want well under the 2s timeout", elapsed)
	}
	if result.Error == "" {
		t.Error("closed result must carry an error message")
	}
}

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return true }

func TestClassifyDialError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want PortState
	}{
		{
			name: "context deadline",
			err:  context.DeadlineExceeded,
			want: StateTimeout,
		},
		{
			name: "net timeout",
			err:  &net.OpError{Op: "dial", Err: fakeTimeoutError{}},
			want: StateTimeout,
		},
		{
			name: "connection refused",
			err:  &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
			want: StateClosed,
		},
		{
			name: "host unreachable",
			err:  &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.EHOSTUNREACH)},
			want: StateClosed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			state, msg := classifyDialError(tc.err, time.Second)
			if state != tc.want {
				t.Errorf("classifyDialError(%v) state = %q, want %q", tc.err, state, tc.want)
			}
			if msg == "" {
				t.Error("classification must produce an error message")
			}
		})
	}
}
