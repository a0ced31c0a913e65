package probe

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"strconv"
	"time"
)

// tlsPorts are the ports eligible for certificate analysis when TLS
// inspection is requested.
var tlsPorts = map[int]struct{}{
	443:  {},
	465:  {},
	587:  {},
	636:  {},
	993:  {},
	995:  {},
	8443: {},
}

// TLSEligible reports whether certificate analysis applies to the port.
func TLSEligible(port int) bool {
	_, ok := tlsPorts[port]
	return ok
}

// TLSProber retrieves the leaf certificate from a TLS endpoint and grades
// it. The handshake skips built-in verification; trust is evaluated
// explicitly afterwards so an untrusted chain is an analyzable finding, not
// a connection error.
type TLSProber struct {
	Timeout time.Duration

	// Roots overrides the system trust pool; tests use it to pin a known
	// CA. Nil means system roots.
	Roots *x509.CertPool

	// Now overrides the clock for expiry math. Nil means time.Now.
	Now func() time.Time
}

func (t *TLSProber) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Probe dials host:port, performs the handshake and analyzes the leaf
// certificate. Any failure retrieving or parsing the chain yields
// Success=false; there is no default grade.
func (t *TLSProber) Probe(ctx context.Context, host string, port int) TLSResult {
	result := TLSResult{Port: port}

	dialCtx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	start := time.Now()
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		result.TimeMS = float64(time.Since(start).Microseconds()) / 1000.0
		result.Error = fmt.Sprintf("dial: %v", err)
		return result
	}
	defer rawConn.Close()

	cfg := &tls.Config{InsecureSkipVerify: true}
	if net.ParseIP(host) == nil {
		cfg.ServerName = host
	}
	conn := tls.Client(rawConn, cfg)
	if err := conn.HandshakeContext(dialCtx); err != nil {
		result.TimeMS = float64(time.Since(start).Microseconds()) / 1000.0
		result.Error = fmt.Sprintf("tls handshake: %v", err)
		return result
	}
	result.TimeMS = float64(time.Since(start).Microseconds()) / 1000.0

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		result.Error = "no peer certificates presented"
		return result
	}

	info := t.analyze(state.PeerCertificates, host)
	grade := GradeCertificate(info)
	result.Success = true
	result.Certificate = info
	result.Grade = &grade
	return result
}

// analyze extracts the grader's inputs from the presented chain. The first
// certificate is the leaf; the rest serve as intermediates for the trust
// check.
func (t *TLSProber) analyze(chain []*x509.Certificate, host string) *CertificateInfo {
	leaf := chain[0]
	now := t.now()

	info := &CertificateInfo{
		Subject:            leaf.Subject.String(),
		Issuer:             leaf.Issuer.String(),
		SerialNumber:       leaf.SerialNumber.String(),
		NotBefore:          leaf.NotBefore,
		NotAfter:           leaf.NotAfter,
		DaysUntilExpiry:    int(leaf.NotAfter.Sub(now).Hours() / 24),
		SignatureAlgorithm: leaf.SignatureAlgorithm.String(),
		DNSNames:           leaf.DNSNames,
		SelfSigned:         bytes.Equal(leaf.RawSubject, leaf.RawIssuer),
	}

	intermediates := x509.NewCertPool()
	for _, cert := range chain[1:] {
		intermediates.AddCert(cert)
	}
	opts := x509.VerifyOptions{
		Roots:         t.Roots,
		Intermediates: intermediates,
		CurrentTime:   now,
	}
	if net.ParseIP(host) == nil {
		opts.DNSName = host
	}
	_, err := leaf.Verify(opts)
	info.Trusted = err == nil
	return info
}
