package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/eznet/eznet/internal/ports"
)

// TCPProber attempts a single TCP connection per port. It never retries;
// one attempt per port per scan is the policy, enforced here rather than
// left to callers.
type TCPProber struct {
	Timeout time.Duration
	Dialer  *net.Dialer
}

// Probe connects to host:port, records the connect latency and closes the
// connection immediately without exchanging data. A refusal is classified
// closed, no response within the deadline is classified timeout; the two
// are reported distinctly because callers alert on them differently.
func (t *TCPProber) Probe(ctx context.Context, host string, port int) TCPResult {
	result := TCPResult{Port: port, Service: ports.ServiceName(port)}

	dialCtx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	dialer := t.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	start := time.Now()
	conn, err := dialer.DialContext(dialCtx, "tcp", addr)
	result.TimeMS = float64(time.Since(start).Microseconds()) / 1000.0

	if err == nil {
		_ = conn.Close()
		result.Success = true
		result.State = StateOpen
		return result
	}

	result.State, result.Error = classifyDialError(err, t.Timeout)
	return result
}

func classifyDialError(err error, timeout time.Duration) (PortState, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return StateTimeout, fmt.Sprintf("connection timeout after %s", timeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StateTimeout, fmt.Sprintf("connection timeout after %s", timeout)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return StateClosed, "connection refused"
	}
	// Unreachable networks, resets and resolution failures are answers,
	// not silence.
	return StateClosed, err.Error()
}
