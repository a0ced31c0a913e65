package probe

import "strings"

// Grading issues
const (
	issueExpired      = "certificate expired"
	issueExpiringSoon = "expiring soon"
	issueUntrusted    = "self-signed or untrusted issuer"
	issueWeakSig      = "weak signature algorithm"
)

// GradeCertificate derives a security grade purely from certificate fields.
// The rule set is deterministic and makes no external calls; rendering
// layers may recompute it on demand and always obtain the same answer.
//
// Rules: start at 100. An expired certificate forces F. Expiry within 15
// days costs 30 points, within 30 days costs 10. A self-signed or untrusted
// issuer costs 40. An MD5/SHA1-family signature costs 30. The score is
// clamped to [0,100].
func GradeCertificate(cert *CertificateInfo) SecurityGrade {
	score := 100
	issues := []string{}
	expired := cert.DaysUntilExpiry < 0

	switch {
	case expired:
		issues = append(issues, issueExpired)
	case cert.DaysUntilExpiry < 15:
		score -= 30
		issues = append(issues, issueExpiringSoon)
	case cert.DaysUntilExpiry < 30:
		score -= 10
	}

	if cert.SelfSigned || !cert.Trusted {
		score -= 40
		issues = append(issues, issueUntrusted)
	}
	if weakSignature(cert.SignatureAlgorithm) {
		score -= 30
		issues = append(issues, issueWeakSig)
	}

	if expired {
		score = 0
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	letter := "F"
	switch {
	case expired:
		letter = "F"
	case score == 100:
		letter = "A+"
	case score >= 85:
		letter = "A"
	case score >= 70:
		letter = "B"
	case score >= 50:
		letter = "C"
	case score >= 30:
		letter = "D"
	}

	return SecurityGrade{Score: score, Letter: letter, Issues: issues}
}

func weakSignature(algorithm string) bool {
	alg := strings.ToUpper(algorithm)
	return strings.Contains(alg, "MD2") ||
		strings.Contains(alg, "MD5") ||
		strings.Contains(alg, "SHA1")
}
