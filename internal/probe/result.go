package probe

import "time"

// PortState classifies the outcome of a TCP connection attempt.
type PortState string

const (
	// StateOpen means the connect succeeded.
	StateOpen PortState = "open"
	// StateClosed means the connection was actively refused. Callers treat
	// this differently from StateTimeout: a refusal is an answer.
	StateClosed PortState = "closed"
	// StateTimeout means no response arrived within the deadline
	// (filtered, dropped, or unroutable).
	StateTimeout PortState = "timeout"
)

// ICMP method markers recorded for auditability.
const (
	MethodRawSocket     = "raw_socket"
	MethodSystemCommand = "system_command"
)

// FamilyResult is one address family's share of a DNS lookup. Applicable is
// false when the input was a literal IP of the other family and no lookup
// was performed.
type FamilyResult struct {
	Success    bool     `json:"success"`
	Applicable bool     `json:"applicable"`
	Addresses  []string `json:"addresses,omitempty"`
	Error      string   `json:"error,omitempty"`
	TimeMS     float64  `json:"time_ms,omitempty"`
}

// DNSResult holds forward resolution results for both families. The
// families are looked up independently; one failing never affects the other.
type DNSResult struct {
	Host string       `json:"host"`
	IPv4 FamilyResult `json:"ipv4"`
	IPv6 FamilyResult `json:"ipv6"`
}

// TCPResult is the outcome of a single connection attempt against one port.
type TCPResult struct {
	Success bool      `json:"success"`
	Port    int       `json:"port"`
	State   PortState `json:"state"`
	Service string    `json:"service,omitempty"`
	TimeMS  float64   `json:"response_time_ms"`
	Error   string    `json:"error,omitempty"`
}

// HeaderSummary reports which of the common security headers a response
// carried. Display-only; nothing branches on it.
type HeaderSummary struct {
	Present []string `json:"present,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// HTTPResult captures one HTTP(S) request against host:port. Redirects are
// reported, never followed, so the timing stays attributable to one hop.
type HTTPResult struct {
	Success         bool           `json:"success"`
	URL             string         `json:"url"`
	Protocol        string         `json:"protocol"`
	StatusCode      int            `json:"status_code,omitempty"`
	ReasonPhrase    string         `json:"reason_phrase,omitempty"`
	Server          string         `json:"server,omitempty"`
	ContentType     string         `json:"content_type,omitempty"`
	RedirectURL     string         `json:"redirect_url,omitempty"`
	SecurityHeaders *HeaderSummary `json:"security_headers,omitempty"`
	TimeMS          float64        `json:"response_time_ms"`
	ErrorCategory   string         `json:"error_category,omitempty"`
	Error           string         `json:"error,omitempty"`
}

// ICMPResult is method-agnostic from the caller's point of view: success
// and response time mean the same thing whether the echo went through a raw
// socket or the platform ping utility.
type ICMPResult struct {
	Success bool    `json:"success"`
	Method  string  `json:"method"`
	TimeMS  float64 `json:"response_time_ms,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// CertificateInfo is the leaf certificate metadata the grader consumes.
type CertificateInfo struct {
	Subject            string    `json:"subject"`
	Issuer             string    `json:"issuer"`
	SerialNumber       string    `json:"serial_number"`
	NotBefore          time.Time `json:"not_before"`
	NotAfter           time.Time `json:"not_after"`
	DaysUntilExpiry    int       `json:"days_until_expiry"`
	SignatureAlgorithm string    `json:"signature_algorithm"`
	DNSNames           []string  `json:"dns_names,omitempty"`
	SelfSigned         bool      `json:"self_signed"`
	Trusted            bool      `json:"trusted"`
}

// SecurityGrade is derived purely from certificate fields; see Grade.
type SecurityGrade struct {
	Score  int      `json:"score"`
	Letter string   `json:"letter"`
	Issues []string `json:"issues"`
}

// TLSResult is the certificate analysis for one port. A parse or handshake
// failure yields Success=false with the analyzer's error, never a
// default grade.
type TLSResult struct {
	Success     bool             `json:"success"`
	Port        int              `json:"port"`
	Certificate *CertificateInfo `json:"certificate,omitempty"`
	Grade       *SecurityGrade   `json:"grade,omitempty"`
	TimeMS      float64          `json:"response_time_ms"`
	Error       string           `json:"error,omitempty"`
}

// ScanRecord aggregates every probe run for one target. The per-port maps
// contain exactly one entry per port actually probed, and a port whose TCP
// probe failed never has an HTTP or TLS entry. Once Scan returns, the
// record is immutable and safe to hand to any renderer.
type ScanRecord struct {
	Host       string             `json:"host"`
	Port       *int               `json:"port,omitempty"`
	Ports      []int              `json:"ports"`
	DNS        DNSResult          `json:"dns"`
	TCP        map[int]TCPResult  `json:"tcp"`
	HTTP       map[int]HTTPResult `json:"http,omitempty"`
	ICMP       ICMPResult         `json:"icmp"`
	TLS        map[int]TLSResult  `json:"tls,omitempty"`
	DurationMS float64            `json:"duration_ms"`
	StartedAt  time.Time          `json:"started_at"`
}

// OpenPorts lists the ports whose TCP probe succeeded, ascending.
func (r *ScanRecord) OpenPorts() []int {
	open := make([]int, 0, len(r.TCP))
	for _, p := range r.Ports {
		if res, ok := r.TCP[p]; ok && res.Success {
			open = append(open, p)
		}
	}
	return open
}
