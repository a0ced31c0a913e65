package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eznet/eznet/internal/probe"
)

// renderJSON emits the ScanRecord contract verbatim: a single object for a
// one-target run, an array otherwise. Rendering never adds fields beyond
// what the scan options produced.
func renderJSON(w io.Writer, records []*probe.ScanRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(records) == 1 {
		return enc.Encode(records[0])
	}
	return enc.Encode(records)
}

func renderText(w io.Writer, r *probe.ScanRecord) {
	fmt.Fprintf(w, "%s\n", colorTitle(fmt.Sprintf("=== %s (%d port(s), %.0f ms) ===", r.Host, len(r.Ports), r.DurationMS)))

	renderDNS(w, r.DNS)
	renderICMP(w, r.ICMP)

	for _, port := range r.Ports {
		tcp, ok := r.TCP[port]
		if !ok {
			continue
		}
		status := formatState(tcp.Success, string(tcp.State))
		fmt.Fprintf(w, "  tcp/%-5d %-14s %s  %.1f ms", port, tcp.Service, status, tcp.TimeMS)
		if tcp.Error != "" {
			fmt.Fprintf(w, "  (%s)", tcp.Error)
		}
		fmt.Fprintln(w)

		if http, ok := r.HTTP[port]; ok {
			renderHTTP(w, http)
		}
		if tlsRes, ok := r.TLS[port]; ok {
			renderTLS(w, tlsRes)
		}
	}
	fmt.Fprintln(w)
}

func renderDNS(w io.Writer, dns probe.DNSResult) {
	fmt.Fprintf(w, "  dns A     %s\n", familyLine(dns.IPv4))
	fmt.Fprintf(w, "  dns AAAA  %s\n", familyLine(dns.IPv6))
}

func familyLine(f probe.FamilyResult) string {
	switch {
	case !f.Applicable:
		return colorInfo("n/a (literal address)")
	case f.Success:
		return fmt.Sprintf("%s %s", formatState(true, "ok"), strings.Join(f.Addresses, ", "))
	default:
		return fmt.Sprintf("%s %s", formatState(false, "fail"), f.Error)
	}
}

func renderICMP(w io.Writer, icmp probe.ICMPResult) {
	if icmp.Success {
		fmt.Fprintf(w, "  icmp      %s %.1f ms (%s)\n", formatState(true, "ok"), icmp.TimeMS, icmp.Method)
		return
	}
	fmt.Fprintf(w, "  icmp      %s %s (%s)\n", formatState(false, "fail"), icmp.Error, icmp.Method)
}

func renderHTTP(w io.Writer, h probe.HTTPResult) {
	if !h.Success {
		fmt.Fprintf(w, "    http    %s %s: %s\n", formatState(false, "fail"), h.ErrorCategory, h.Error)
		return
	}
	fmt.Fprintf(w, "    http    %s %d %s  %.1f ms", formatState(true, "ok"), h.StatusCode, h.ReasonPhrase, h.TimeMS)
	if h.Server != "" {
		fmt.Fprintf(w, "  server=%s", h.Server)
	}
	if h.RedirectURL != "" {
		fmt.Fprintf(w, "  -> %s", h.RedirectURL)
	}
	fmt.Fprintln(w)
}

func renderTLS(w io.Writer, t probe.TLSResult) {
	if !t.Success {
		fmt.Fprintf(w, "    tls     %s %s\n", formatState(false, "fail"), t.Error)
		return
	}
	grade := t.Grade
	cert := t.Certificate
	fmt.Fprintf(w, "    tls     grade %s (%d/100)  expires in %d day(s)\n",
		formatGrade(grade.Letter), grade.Score, cert.DaysUntilExpiry)
	for _, issue := range grade.Issues {
		fmt.Fprintf(w, "            %s %s\n", colorWarn("!"), issue)
	}
}
