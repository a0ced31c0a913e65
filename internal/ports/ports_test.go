package ports

import (
	"errors"
	"strings"
	"testing"

	sharederrors "github.com/eznet/eznet/internal/shared/errors"
)

func TestExpand_Single(t *testing.T) {
	got, err := Expand("443")
	if err != nil {
		t.Fatalf("Expand(\"443\") returned error: %v", err)
	}
	if len(got) != 1 || got[0] != 443 {
		t.Errorf("Expand(\"443\") = %v, want [443]", got)
	}
}

func TestExpand_Range(t *testing.T) {
	got, err := Expand("80-90")
	if err != nil {
		t.Fatalf("Expand(\"80-90\") returned error: %v", err)
	}
	if len(got) != 11 {
		t.Fatalf("Expand(\"80-90\") returned %d ports, want 11", len(got))
	}
	for i, p := range got {
		if p != 80+i {
			t.Errorf("Expand(\"80-90\")[%d] = %d, want %d", i, p, 80+i)
		}
	}
}

func TestExpand_MixedDeduplicated(t *testing.T) {
	got, err := Expand("443,80,443,8000-8002,8001")
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	want := []int{80, 443, 8000, 8001, 8002}
	if len(got) != len(want) {
		t.Fatalf("Expand returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expand[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestExpand_NamedCommonSet(t *testing.T) {
	got, err := Expand("common")
	if err != nil {
		t.Fatalf("Expand(\"common\") returned error: %v", err)
	}
	if len(got) < 115 {
		t.Errorf("common set has %d ports, want at least 115", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("common set not strictly ascending at index %d: %d <= %d", i, got[i], got[i-1])
		}
	}
}

func TestExpand_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		spec  string
		token string
	}{
		{name: "empty", spec: ""},
		{name: "not a number", spec: "abc", token: "abc"},
		{name: "zero", spec: "0", token: "0"},
		{name: "too large", spec: "65536", token: "65536"},
		{name: "reversed range", spec: "90-80", token: "90-80"},
		{name: "range out of bounds", spec: "1-70000", token: "1-70000"},
		{name: "open range", spec: "80-", token: "80-"},
		{name: "empty token", spec: "80,,443"},
		{name: "negative", spec: "-5", token: "-5"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Expand(tc.spec)
			if err == nil {
				t.Fatalf("Expand(%q) succeeded, want validation error", tc.spec)
			}
			if !errors.Is(err, sharederrors.ErrValidation) {
				t.Errorf("Expand(%q) error is not ErrValidation: %v", tc.spec, err)
			}
			if tc.token != "" && !strings.Contains(err.Error(), tc.token) {
				t.Errorf("Expand(%q) error %q does not name token %q", tc.spec, err, tc.token)
			}
		})
	}
}

func TestExpand_Idempotent(t *testing.T) {
	first, err := Expand("22,80-85,443")
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	second, err := Expand("22,80-85,443")
	if err != nil {
		t.Fatalf("Expand returned error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("Expand not deterministic: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Expand not deterministic at %d: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestServiceName(t *testing.T) {
	tests := []struct {
		port int
		want string
	}{
		{22, "SSH"},
		{80, "HTTP"},
		{443, "HTTPS"},
		{5432, "PostgreSQL"},
		{6379, "Redis"},
		{27017, "MongoDB"},
		{12345, "unknown"},
	}

	for _, tt := range tests {
		if got := ServiceName(tt.port); got != tt.want {
			t.Errorf("ServiceName(%d) = %q, want %q", tt.port, got, tt.want)
		}
	}
}

func TestCommon_ReturnsCopy(t *testing.T) {
	a := Common()
	a[0] = -1
	b := Common()
	if b[0] == -1 {
		t.Error("Common() returned shared backing storage; mutation leaked")
	}
}
