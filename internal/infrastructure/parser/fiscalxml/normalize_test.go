package fiscalxml

import (
	"testing"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

func ptr(s string) *string { return &s }

func TestCleanText(t *testing.T) {
	cases := map[string]*string{
		"":                      nil,
		"   \n\t ":              nil,
		"abc":                   ptr("abc"),
		"  Rua   das\n Flores  ": ptr("Rua das Flores"),
	}
	for in, want := range cases {
		got := CleanText(in)
		switch {
		case want == nil && got != nil:
			t.Fatalf("CleanText(%q): expected nil, got %q", in, *got)
		case want != nil && (got == nil || *got != *want):
			t.Fatalf("CleanText(%q): expected %q, got %v", in, *want, got)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in    *string
		want  string
		valid bool
	}{
		{in: ptr("1.234,56"), want: "1234.56", valid: true},
		{in: ptr("1234,56"), want: "1234.56", valid: true},
		{in: ptr("1234.56"), want: "1234.56", valid: true},
		{in: ptr(" 10 "), want: "10", valid: true},
		{in: ptr("0.00"), want: "0", valid: true},
		{in: ptr("abc"), valid: false},
		{in: ptr(""), valid: false},
		{in: nil, valid: false},
	}
	for _, tc := range cases {
		got := ParseDecimal(tc.in)
		if got.Valid != tc.valid {
			t.Fatalf("ParseDecimal(%v): expected valid=%v, got %v", tc.in, tc.valid, got.Valid)
		}
		if tc.valid {
			assertDecimal(t, *tc.in, got, tc.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "2024-03-01T10:00:00-03:00", want: "2024-03-01T10:00:00"},
		{in: "2024-03-01T10:00:00+05:30", want: "2024-03-01T10:00:00"},
		{in: "2024-03-01T10:00:00Z", want: "2024-03-01T10:00:00"},
		{in: "2024-03-01T10:00:00", want: "2024-03-01T10:00:00"},
		{in: "2024-03-01 23:59:59", want: "2024-03-01T23:59:59"},
		{in: "2024-03-01", want: "2024-03-01T00:00:00"},
	}
	for _, tc := range cases {
		got := ParseTimestamp(ptr(tc.in))
		if got == nil {
			t.Fatalf("ParseTimestamp(%q): expected value, got nil", tc.in)
		}
		if text := got.Format(domain.TimestampLayout); text != tc.want {
			t.Fatalf("ParseTimestamp(%q): expected %s, got %s", tc.in, tc.want, text)
		}
	}

	for _, bad := range []string{"", "yesterday", "01/03/2024"} {
		if got := ParseTimestamp(ptr(bad)); got != nil {
			t.Fatalf("ParseTimestamp(%q): expected nil, got %v", bad, got)
		}
	}
	if ParseTimestamp(nil) != nil {
		t.Fatalf("expected nil for absent input")
	}
}

func TestFirstPresentStopsAtFirstValue(t *testing.T) {
	calls := 0
	counted := func(v *string) candidate {
		return func() *string {
			calls++
			return v
		}
	}

	got := FirstPresent(counted(nil), counted(ptr("a")), counted(ptr("b")))
	if got == nil || *got != "a" {
		t.Fatalf("expected first declared value, got %v", got)
	}
	if calls != 2 {
		t.Fatalf("expected later candidates to be skipped, got %d calls", calls)
	}
	if FirstPresent() != nil {
		t.Fatalf("expected nil without candidates")
	}
}
