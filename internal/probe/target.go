package probe

import (
	"net"
	"regexp"
	"strings"

	sharederrors "github.com/eznet/eznet/internal/shared/errors"
)

// hostLabel matches one DNS label: alphanumeric at the edges, hyphens
// allowed in the middle.
var hostLabel = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

// Target is a host plus the ordered set of ports to probe. Immutable once
// constructed; build it with NewTarget so the host is validated before any
// I/O happens.
type Target struct {
	Host  string
	Ports []int
}

// NewTarget validates the host and returns a Target. Protocol prefixes and
// paths are stripped first, so "https://example.com/x" becomes
// "example.com". A malformed host fails with a ValidationError.
func NewTarget(host string, portSet []int) (Target, error) {
	host = SanitizeHost(host)
	if err := ValidateHost(host); err != nil {
		return Target{}, err
	}
	ports := make([]int, len(portSet))
	copy(ports, portSet)
	return Target{Host: host, Ports: ports}, nil
}

// SanitizeHost strips scheme prefixes, paths and query strings from user
// input, leaving a bare hostname or IP literal.
func SanitizeHost(host string) string {
	host = strings.TrimSpace(host)
	for _, prefix := range []string{"http://", "https://"} {
		if strings.HasPrefix(strings.ToLower(host), prefix) {
			host = host[len(prefix):]
			break
		}
	}
	host = strings.Split(host, "/")[0]
	host = strings.Split(host, "?")[0]
	return host
}

// ValidateHost accepts IP literals and RFC-plausible hostnames. Each label
// must be 1-63 characters, alphanumeric at the edges; the whole name at
// most 253 characters.
func ValidateHost(host string) error {
	if host == "" {
		return sharederrors.NewValidation(host, "empty host")
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	name := strings.TrimSuffix(host, ".")
	if len(name) > 253 {
		return sharederrors.NewValidation(host, "hostname longer than 253 characters")
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" || len(label) > 63 {
			return sharederrors.NewValidation(host, "hostname label must be 1-63 characters")
		}
		if !hostLabel.MatchString(label) {
			return sharederrors.NewValidation(host, "hostname label contains invalid characters")
		}
	}
	return nil
}
