// Package mimi evaluates BIMI (Brand Indicators for Message Identification)
// for an author domain and produces the mail headers that carry the result.
//
// Given a domain and selector, the evaluator answers one question: is the
// domain authorized to display a verified brand logo, and if so, is the
// logo's supplying certificate provably bound to the domain? The flow layers
// on an existing DMARC result:
//
//  1. The DMARC policy chain is checked for BIMI eligibility (bimi.Qualify);
//     domains without a sufficiently strict policy are skipped.
//  2. The BIMI assertion record is discovered under
//     "<selector>._bimi.<domain>", falling back once to the organizational
//     domain (bimi.Lookup).
//  3. The indicator is fetched (https only, bounded, gunzipped when
//     compressed) and, when the record names an authority, the Verified Mark
//     Certificate is validated against pinned roots (vmc.Verify).
//
// # Usage
//
//	ev := &mimi.Evaluator{
//	    Resolver: dns.NewResolver(dns.ResolverConfig{}),
//	    Roots:    roots,
//	    Cache:    cache.New("/var/cache/mimi"),
//	}
//
//	result := ev.Evaluate(ctx, "example.com", "default")
//	fmt.Println(mimi.AuthenticationResults("mx.example.org", result))
//
// The result status is always one of pass, fail, none, declined, skipped or
// temperror; no evaluation error is fatal to the caller.
//
// SVG sanitization, message-header folding and Authentication-Results
// assembly beyond the BIMI method are out of scope.
package mimi

import (
	"crypto/x509"

	"github.com/gwire/mimi-headers/bimi"
)

// Result is the outcome of one BIMI evaluation.
type Result struct {
	// Status is the final result code: pass, fail, none, declined, skipped
	// or temperror.
	Status bimi.Status

	// Domain is the domain whose BIMI record governed, which may be the
	// organizational domain rather than the evaluated domain.
	Domain string

	// Selector is the selector that was evaluated.
	Selector string

	// Record is the assertion record found, or nil.
	Record *bimi.Record

	// Authority is the certificate verdict: "pass" or "fail" when the record
	// named an authority, empty otherwise.
	Authority string

	// Indicator is the logo on a pass verdict: the certificate-embedded
	// image when an authority was verified, otherwise the record's own.
	Indicator []byte

	// Cert is the verified mark certificate on an authority pass.
	Cert *x509.Certificate

	// Err carries failure detail for logging. It never widens the status
	// vocabulary.
	Err error
}
