package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// httpAutoPorts is the fixed set of ports that trigger an HTTP probe
// automatically. Probe selection is a table lookup, not inference.
var httpAutoPorts = map[int]struct{}{
	80:   {},
	443:  {},
	8080: {},
	8443: {},
}

// httpsPorts selects the https scheme by port convention.
var httpsPorts = map[int]struct{}{
	443:  {},
	8443: {},
}

// securityHeaders are the response headers summarized for display.
var securityHeaders = []string{
	"Strict-Transport-Security",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Content-Security-Policy",
	"Referrer-Policy",
	"X-XSS-Protection",
}

// HTTPLikely reports whether the port convention triggers an HTTP probe.
func HTTPLikely(port int) bool {
	_, ok := httpAutoPorts[port]
	return ok
}

// HTTPProber issues exactly one idempotent request per port. It does not
// follow redirects: the redirect target is reported so timing stays
// attributable to a single hop.
type HTTPProber struct {
	Timeout   time.Duration
	UserAgent string
}

// Probe requests host:port over the scheme the port convention implies.
// HEAD is tried first; some servers disallow it, so a GET follows on
// failure; the pair counts as one logical probe with one recorded timing.
// Certificate verification is skipped on purpose: the TLS
// analyzer owns trust decisions, this probe only reports reachability.
func (h *HTTPProber) Probe(ctx context.Context, host string, port int) HTTPResult {
	protocol := "http"
	if _, ok := httpsPorts[port]; ok {
		protocol = "https"
	}
	url := fmt.Sprintf("%s://%s/", protocol, net.JoinHostPort(host, strconv.Itoa(port)))

	result := HTTPResult{URL: url, Protocol: protocol}

	client := &http.Client{
		Timeout: h.Timeout,
		Transport: &http.Transport{
			TLSClientConfig:   &tls.Config{InsecureSkipVerify: true},
			DisableKeepAlives: true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	defer client.CloseIdleConnections()

	start := time.Now()
	resp, err := h.request(ctx, client, "HEAD", url)
	if err != nil {
		resp, err = h.request(ctx, client, "GET", url)
	}
	result.TimeMS = float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		result.ErrorCategory, result.Error = classifyHTTPError(err, h.Timeout)
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8192))

	result.Success = true
	result.StatusCode = resp.StatusCode
	result.ReasonPhrase = reasonPhrase(resp)
	result.Server = resp.Header.Get("Server")
	result.ContentType = resp.Header.Get("Content-Type")
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		result.RedirectURL = resp.Header.Get("Location")
	}
	result.SecurityHeaders = summarizeHeaders(resp.Header)
	return result
}

func (h *HTTPProber) request(ctx context.Context, client *http.Client, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}
	return client.Do(req)
}

func reasonPhrase(resp *http.Response) string {
	// "200 OK" -> "OK"
	if idx := strings.Index(resp.Status, " "); idx >= 0 {
		return resp.Status[idx+1:]
	}
	return resp.Status
}

func summarizeHeaders(header http.Header) *HeaderSummary {
	summary := &HeaderSummary{}
	for _, name := range securityHeaders {
		if header.Get(name) != "" {
			summary.Present = append(summary.Present, name)
		} else {
			summary.Missing = append(summary.Missing, name)
		}
	}
	return summary
}

// classifyHTTPError separates handshake failures from generic connection
// failures so the caller can tell a broken TLS endpoint from a dead one.
func classifyHTTPError(err error, timeout time.Duration) (category, msg string) {
	var recordErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	switch {
	case errors.As(err, &recordErr), errors.As(err, &certErr), errors.As(err, &unknownAuthority):
		return "tls_error", err.Error()
	case strings.Contains(err.Error(), "tls:"):
		return "tls_error", err.Error()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout", fmt.Sprintf("request timeout after %s", timeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout", fmt.Sprintf("request timeout after %s", timeout)
	}
	return "connect", err.Error()
}
