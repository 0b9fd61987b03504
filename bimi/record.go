package bimi

import (
	"fmt"
	"net/url"
	"strings"
)

// Record is a parsed BIMI assertion record.
//
// Example record:
//
//	v=BIMI1; l=https://example.com/logo.svg; a=https://example.com/vmc.pem
//
// Both l= and a= may be present but empty: an empty l= is an explicit
// statement that the domain declines to participate for this selector.
type Record struct {
	// Version must be "BIMI1".
	Version string

	// Location is the URL of the brand indicator (l= tag). HTTPS only.
	Location string

	// Authority is the URL of the Verified Mark Certificate that vouches for
	// the indicator (a= tag). HTTPS only. May be empty.
	Authority string
}

// ParseRecord parses a BIMI assertion record from a TXT string.
//
// Returns the parsed record, whether the string looks like a BIMI record
// (starts with "v=BIMI1"), and any parsing error. Unknown tags are ignored;
// absent tags default to empty strings.
func ParseRecord(s string) (record *Record, isBIMI bool, err error) {
	parts := strings.Split(s, ";")

	version := strings.TrimSpace(parts[0])
	if version != "v=BIMI1" {
		return nil, false, nil
	}

	r := &Record{Version: "BIMI1"}
	seen := map[string]bool{}

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			// Trailing semicolon
			continue
		}

		tag, value, found := strings.Cut(part, "=")
		if !found {
			return nil, true, fmt.Errorf("%w: tag %q has no value", ErrSyntax, part)
		}
		tag = strings.ToLower(strings.TrimSpace(tag))
		value = strings.TrimSpace(value)

		if seen[tag] {
			return nil, true, fmt.Errorf("%w: duplicate tag %q", ErrSyntax, tag)
		}
		seen[tag] = true

		switch tag {
		case "v":
			return nil, true, fmt.Errorf("%w: duplicate v= tag", ErrSyntax)
		case "l":
			if value != "" && !validIndicatorURL(value) {
				return nil, true, fmt.Errorf("%w: invalid l= value %q", ErrSyntax, value)
			}
			r.Location = value
		case "a":
			if value != "" && !validIndicatorURL(value) {
				return nil, true, fmt.Errorf("%w: invalid a= value %q", ErrSyntax, value)
			}
			r.Authority = value
		default:
			// Unknown tags are tolerated for forward compatibility.
		}
	}

	return r, true, nil
}

// validIndicatorURL reports whether the value is an absolute URL. The scheme
// is not restricted here; dereferencing is where the https-only rule is
// enforced, so a published http:// URL still parses but never resolves to an
// indicator.
func validIndicatorURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// String returns the BIMI record formatted for DNS TXT. Empty tags are
// emitted explicitly, since an empty l= carries meaning (declined).
func (r Record) String() string {
	var b strings.Builder
	b.WriteString("v=")
	b.WriteString(r.Version)
	fmt.Fprintf(&b, "; l=%s", r.Location)
	if r.Authority != "" {
		fmt.Fprintf(&b, "; a=%s", r.Authority)
	}
	return b.String()
}

// Declined reports whether the record is an explicit opt-out: published, but
// with no indicator location.
func (r *Record) Declined() bool {
	return r.Location == ""
}
