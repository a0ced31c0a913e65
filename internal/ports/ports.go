// Package ports expands CLI-level port expressions into the ordered set of
// ports to probe. Expansion is pure: the same spec always yields the same
// ascending, deduplicated sequence, and malformed input is rejected with a
// ValidationError naming the offending token instead of being clamped.
package ports

import (
	"sort"
	"strconv"
	"strings"

	sharederrors "github.com/eznet/eznet/internal/shared/errors"
)

// NamedCommon selects the built-in common-ports table.
const NamedCommon = "common"

// Expand parses a port specification and returns sorted, deduplicated ports.
// Supported forms:
//   - single: "443"
//   - range: "80-90"
//   - list, possibly mixed: "80,443,8000-8010"
//   - named set: "common"
func Expand(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, sharederrors.NewValidation(spec, "empty port spec")
	}
	if strings.EqualFold(spec, NamedCommon) {
		return Common(), nil
	}

	seen := make(map[int]struct{})
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return nil, sharederrors.NewValidation(spec, "empty token in port spec")
		}
		if strings.Contains(tok, "-") {
			lo, hi, err := parseRange(tok)
			if err != nil {
				return nil, err
			}
			for p := lo; p <= hi; p++ {
				seen[p] = struct{}{}
			}
			continue
		}
		p, err := parsePort(tok)
		if err != nil {
			return nil, err
		}
		seen[p] = struct{}{}
	}

	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out, nil
}

func parseRange(tok string) (lo, hi int, err error) {
	bounds := strings.SplitN(tok, "-", 2)
	if len(bounds) != 2 {
		return 0, 0, sharederrors.NewValidation(tok, "malformed port range")
	}
	lo, err = parsePort(strings.TrimSpace(bounds[0]))
	if err != nil {
		return 0, 0, sharederrors.NewValidation(tok, "malformed port range")
	}
	hi, err = parsePort(strings.TrimSpace(bounds[1]))
	if err != nil {
		return 0, 0, sharederrors.NewValidation(tok, "malformed port range")
	}
	if lo > hi {
		return 0, 0, sharederrors.NewValidation(tok, "range start greater than end")
	}
	return lo, hi, nil
}

func parsePort(tok string) (int, error) {
	p, err := strconv.Atoi(tok)
	if err != nil {
		return 0, sharederrors.NewValidation(tok, "not a port number")
	}
	if p < 1 || p > 65535 {
		return 0, sharederrors.NewValidation(tok, "port out of range 1-65535")
	}
	return p, nil
}
