package bimi

import (
	"context"
	"testing"

	mimidns "github.com/gwire/mimi-headers/dns"
)

func TestParseBad(t *testing.T) {
	bad := func(s string) {
		t.Helper()
		_, isBIMI, err := ParseRecord(s)
		if !isBIMI {
			t.Fatalf("expected %q to be recognized as BIMI", s)
		}
		if err == nil {
			t.Fatalf("got parse success for %q, expected error", s)
		}
	}

	bad("v=BIMI1; l")       // tag without value
	bad("v=BIMI1; v=BIMI1") // dup version
	bad("v=BIMI1; l=https://a.example/l.svg; l=https://b.example/l.svg")
	bad("v=BIMI1; l=not a url")
	bad("v=BIMI1; a=::::")
	bad("v=BIMI1; l=relative/path")
}

func TestParseValid(t *testing.T) {
	valid := func(s string, exp Record) {
		t.Helper()
		r, isBIMI, err := ParseRecord(s)
		if !isBIMI {
			t.Fatalf("expected %q to be recognized as BIMI", s)
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %s", s, err)
		}
		if *r != exp {
			t.Fatalf("got %#v, expected %#v", *r, exp)
		}
	}

	valid("v=BIMI1; l=https://example.com/logo.svg; a=https://example.com/vmc.pem", Record{
		Version:   "BIMI1",
		Location:  "https://example.com/logo.svg",
		Authority: "https://example.com/vmc.pem",
	})
	valid("v=BIMI1; l=https://example.com/logo.svg", Record{
		Version:  "BIMI1",
		Location: "https://example.com/logo.svg",
	})
	// Declined: explicit empty l=
	valid("v=BIMI1; l=;", Record{Version: "BIMI1"})
	valid("v=BIMI1;", Record{Version: "BIMI1"})
	// Whitespace tolerance and unknown tags
	valid("v=BIMI1; l= https://example.com/logo.svg ; x=y", Record{
		Version:  "BIMI1",
		Location: "https://example.com/logo.svg",
	})
}

func TestParseNotBIMI(t *testing.T) {
	for _, s := range []string{"v=DMARC1; p=reject", "v=BIMI2; l=x", "", "some text"} {
		_, isBIMI, _ := ParseRecord(s)
		if isBIMI {
			t.Errorf("expected %q to not be BIMI", s)
		}
	}
}

func TestRecordString(t *testing.T) {
	r := Record{Version: "BIMI1", Location: "https://example.com/logo.svg", Authority: "https://example.com/vmc.pem"}
	want := "v=BIMI1; l=https://example.com/logo.svg; a=https://example.com/vmc.pem"
	if got := r.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	declined := Record{Version: "BIMI1"}
	if got := declined.String(); got != "v=BIMI1; l=" {
		t.Errorf("String() = %q, want declined form", got)
	}
	if !declined.Declined() {
		t.Error("expected Declined() for empty l=")
	}
}

func TestLookup(t *testing.T) {
	resolver := mimidns.MockResolver{
		TXT: map[string][]string{
			"default._bimi.example.com.":      {"v=BIMI1; l=https://example.com/logo.svg; a=https://example.com/vmc.pem"},
			"default._bimi.sub.example.com.":  {"v=BIMI1; l=https://sub.example.com/logo.svg"},
			"brand._bimi.example.com.":        {"v=BIMI1; l=https://example.com/brand.svg"},
			"default._bimi.declined.example.": {"v=BIMI1; l="},
		},
		Fail: []string{"txt default._bimi.flaky.example."},
	}

	ctx := context.Background()

	// Exact match.
	status, domain, record, _, err := Lookup(ctx, resolver, "example.com", "default")
	if err != nil || status == StatusNone || domain != "example.com" {
		t.Fatalf("got %v/%v/%v, expected record at example.com", status, domain, err)
	}
	if record.Location != "https://example.com/logo.svg" {
		t.Errorf("unexpected location %q", record.Location)
	}

	// Subdomain record takes precedence over the organizational domain.
	_, domain, record, _, _ = Lookup(ctx, resolver, "sub.example.com", "default")
	if domain != "sub.example.com" || record.Authority != "" {
		t.Errorf("expected subdomain record, got %q / %#v", domain, record)
	}

	// Walk-up: subdomain without a record falls back to the organizational
	// domain, selector unchanged, and yields the same record as resolving the
	// organizational domain directly.
	_, domain, record, _, err = Lookup(ctx, resolver, "mail.example.com", "default")
	if err != nil || domain != "example.com" {
		t.Fatalf("expected fallback to example.com, got %q, %v", domain, err)
	}
	_, _, direct, _, _ := Lookup(ctx, resolver, "example.com", "default")
	if *record != *direct {
		t.Errorf("walk-up result %#v differs from direct result %#v", record, direct)
	}

	// Non-default selector.
	_, _, record, _, _ = Lookup(ctx, resolver, "mail.example.com", "brand")
	if record == nil || record.Location != "https://example.com/brand.svg" {
		t.Errorf("unexpected record for brand selector: %#v", record)
	}

	// Empty selector means "default".
	_, _, record, _, _ = Lookup(ctx, resolver, "example.com", "")
	if record == nil || record.Location != "https://example.com/logo.svg" {
		t.Errorf("unexpected record for empty selector: %#v", record)
	}

	// Missing everywhere.
	status, _, record, _, _ = Lookup(ctx, resolver, "mail.missing.example", "default")
	if status != StatusNone || record != nil {
		t.Errorf("expected none, got %v / %#v", status, record)
	}

	// Declined record is still a record.
	status, _, record, _, _ = Lookup(ctx, resolver, "declined.example", "default")
	if status == StatusNone || record == nil || !record.Declined() {
		t.Errorf("expected declined record, got %v / %#v", status, record)
	}

	// DNS error at the organizational domain is absorbed into "none".
	status, _, record, _, err = Lookup(ctx, resolver, "flaky.example", "default")
	if status != StatusNone || record != nil {
		t.Errorf("expected none on DNS failure, got %v / %#v", status, record)
	}
	if err == nil {
		t.Error("expected error detail for logging")
	}
}

func TestQualify(t *testing.T) {
	resolver := mimidns.MockResolver{
		TXT: map[string][]string{
			"_dmarc.reject.example.":      {"v=DMARC1; p=reject"},
			"_dmarc.monitor.example.":     {"v=DMARC1; p=none"},
			"_dmarc.spnone.example.":      {"v=DMARC1; p=reject; sp=none"},
			"_dmarc.q50.example.":         {"v=DMARC1; p=quarantine; pct=50"},
			"_dmarc.q100.example.":        {"v=DMARC1; p=quarantine; pct=100"},
			"_dmarc.r50.example.":         {"v=DMARC1; p=reject; pct=50"},
			"_dmarc.sub.reject.example.":  {"v=DMARC1; p=reject"},
			"_dmarc.sub.monitor.example.": {"v=DMARC1; p=reject"},
			"_dmarc.weak.strict.example.": {"v=DMARC1; p=none"},
			"_dmarc.strict.example.":      {"v=DMARC1; p=reject"},
		},
		Fail: []string{"txt _dmarc.flaky.example."},
	}

	ctx := context.Background()

	tests := []struct {
		domain string
		want   bool
	}{
		{"reject.example", true},
		{"monitor.example", false},      // p=none
		{"spnone.example", false},       // sp=none
		{"q50.example", false},          // quarantine below 100%
		{"q100.example", true},          // quarantine at 100%
		{"r50.example", true},           // pct not checked under p=reject (preserved asymmetry)
		{"missing.example", false},      // no record at org domain
		{"mail.missing.example", false}, // no record anywhere
		{"flaky.example", false},        // DNS error degrades to no policy
		{"mail.reject.example", true},   // subdomain inherits org policy
		{"sub.reject.example", true},    // subdomain policy confirmed against org
		{"sub.monitor.example", false},  // strict subdomain, weak org domain
		{"weak.strict.example", false},  // weak subdomain policy disqualifies
	}

	for _, tt := range tests {
		if got := Qualify(ctx, resolver, tt.domain); got != tt.want {
			t.Errorf("Qualify(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}
}
