package probe

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const protocolICMP = 1 // iana.ProtocolICMP

// ICMPStrategy is the echo-request capability. Two implementations exist:
// a raw-socket sender (needs elevated privilege) and a subprocess wrapper
// around the platform ping utility. The strategy is selected once at
// startup by NewICMPStrategy, not re-probed on every call.
type ICMPStrategy interface {
	Ping(ctx context.Context, host string) ICMPResult
	Method() string
}

// NewICMPStrategy probes raw-socket capability and binds the matching
// strategy. A permission failure selects the subprocess fallback silently;
// it is a capability signal, not an error the caller sees.
func NewICMPStrategy(timeout time.Duration) ICMPStrategy {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err == nil {
		_ = conn.Close()
		return &rawSocketStrategy{timeout: timeout}
	}
	return &systemPingStrategy{timeout: timeout}
}

type rawSocketStrategy struct {
	timeout time.Duration
}

func (s *rawSocketStrategy) Method() string { return MethodRawSocket }

func (s *rawSocketStrategy) Ping(ctx context.Context, host string) ICMPResult {
	result := ICMPResult{Method: MethodRawSocket}

	resolveCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ips, err := net.DefaultResolver.LookupIP(resolveCtx, "ip4", host)
	if err != nil || len(ips) == 0 {
		result.Error = fmt.Sprintf("resolve %s: %v", host, err)
		return result
	}
	dst := &net.IPAddr{IP: ips[0]}

	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		result.Error = fmt.Sprintf("open icmp socket: %v", err)
		return result
	}
	defer conn.Close()

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	id := os.Getpid() & 0xffff
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: id, Seq: 1, Data: []byte("eznet echo")},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		result.Error = fmt.Sprintf("marshal echo request: %v", err)
		return result
	}

	start := time.Now()
	if _, err := conn.WriteTo(wb, dst); err != nil {
		result.Error = fmt.Sprintf("send echo request: %v", err)
		return result
	}

	rb := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(rb)
		if err != nil {
			result.Error = fmt.Sprintf("no echo reply: %v", err)
			return result
		}
		reply, err := icmp.ParseMessage(protocolICMP, rb[:n])
		if err != nil {
			continue
		}
		echo, ok := reply.Body.(*icmp.Echo)
		if reply.Type != ipv4.ICMPTypeEchoReply || !ok || echo.ID != id {
			// Reply for someone else's probe; keep reading until our
			// deadline expires.
			continue
		}
		result.Success = true
		result.TimeMS = float64(time.Since(start).Microseconds()) / 1000.0
		return result
	}
}

type systemPingStrategy struct {
	timeout time.Duration
}

func (s *systemPingStrategy) Method() string { return MethodSystemCommand }

func (s *systemPingStrategy) Ping(ctx context.Context, host string) ICMPResult {
	result := ICMPResult{Method: MethodSystemCommand}

	var args []string
	if runtime.GOOS == "windows" {
		args = []string{"-n", "1", "-w", strconv.Itoa(int(s.timeout.Milliseconds())), host}
	} else {
		secs := int(s.timeout.Seconds())
		if secs < 1 {
			secs = 1
		}
		args = []string{"-c", "1", "-W", strconv.Itoa(secs), host}
	}

	// The subprocess gets a little slack beyond the probe timeout so ping's
	// own timeout fires first and we get parseable output.
	cmdCtx, cancel := context.WithTimeout(ctx, s.timeout+2*time.Second)
	defer cancel()

	start := time.Now()
	out, err := exec.CommandContext(cmdCtx, "ping", args...).CombinedOutput()
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	if cmdCtx.Err() == context.DeadlineExceeded {
		result.Error = fmt.Sprintf("ping timeout after %s", s.timeout)
		return result
	}
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		result.Error = fmt.Sprintf("ping failed: %s", msg)
		return result
	}

	rtt, ok := parsePingTime(string(out))
	if !ok {
		result.Error = "could not parse ping output"
		result.TimeMS = elapsed
		return result
	}
	result.Success = true
	result.TimeMS = rtt
	return result
}

// pingTimePatterns covers the ping output variants seen in the wild,
// including localized Windows builds.
var pingTimePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)time[<=](\d+\.?\d*)\s*ms`),
	regexp.MustCompile(`(?i)zeit[<=](\d+\.?\d*)\s*ms`),
	regexp.MustCompile(`(?i)time[<=](\d+\.?\d*)`),
	regexp.MustCompile(`(\d+\.?\d*)\s*ms`),
}

func parsePingTime(output string) (float64, bool) {
	for _, pat := range pingTimePatterns {
		if m := pat.FindStringSubmatch(output); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}
