// Package bimi implements Brand Indicators for Message Identification (BIMI)
// record discovery and DMARC-eligibility checking.
//
// BIMI lets a domain publish a DNS TXT record under
// "<selector>._bimi.<domain>" pointing to a brand indicator (an SVG logo) and
// optionally to a Verified Mark Certificate that vouches for it. Mail
// receivers only evaluate BIMI for domains whose DMARC policy is strict
// enough, so record discovery is gated on the published DMARC policy chain.
//
// This package provides:
//   - BIMI assertion record parsing (l= and a= tags)
//   - Record lookup with a bounded organizational-domain fallback
//   - The DMARC qualification decision (Qualify)
//   - The BIMI status vocabulary used in Authentication-Results
//
// Checking eligibility and finding the record:
//
//	resolver := dns.NewResolver(dns.ResolverConfig{})
//
//	if !bimi.Qualify(ctx, resolver, "example.com") {
//	    // DMARC requirements unmet: status "skipped"
//	}
//
//	status, bimiDomain, record, _, err := bimi.Lookup(ctx, resolver, "example.com", "default")
//	if status == bimi.StatusNone {
//	    // No record at the domain or its organizational domain
//	}
//
// Certificate validation and indicator retrieval live in the vmc package; the
// root mimi package ties the whole flow together.
//
// # References
//
//   - draft-brand-indicators-for-message-identification (BIMI)
//   - RFC 7489: DMARC
package bimi
