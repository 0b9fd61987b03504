package mimi

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// AuthenticationResults renders the bimi method portion of an
// Authentication-Results header for hostname, e.g.
//
//	mx.example.org; bimi=pass header.d=example.com header.selector=default policy.authority=pass
//
// Properties with no value are omitted.
func AuthenticationResults(hostname string, r Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s; bimi=%s", hostname, r.Status)
	if r.Domain != "" {
		fmt.Fprintf(&b, " header.d=%s", r.Domain)
	}
	if r.Selector != "" {
		fmt.Fprintf(&b, " header.selector=%s", r.Selector)
	}
	if r.Authority != "" {
		fmt.Fprintf(&b, " policy.authority=%s", r.Authority)
	}
	return b.String()
}

// IndicatorHeader renders the value of a BIMI-Indicator header: the base64
// encoding of the svg. Folding to line length limits is left to the caller's
// header writer.
func IndicatorHeader(svg []byte) string {
	return base64.StdEncoding.EncodeToString(svg)
}

// LocationHeader renders the value of a BIMI-Location header for a passing
// result, or "" when the result did not pass or has no record.
func LocationHeader(r Result) string {
	if r.Status != "pass" || r.Record == nil {
		return ""
	}
	return fmt.Sprintf("v=BIMI1; l=%s", r.Record.Location)
}
