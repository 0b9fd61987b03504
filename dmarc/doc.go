// Package dmarc implements the DMARC (RFC 7489) record discovery and parsing
// needed to decide BIMI eligibility.
//
// BIMI evaluation is gated on the author domain publishing a sufficiently
// strict DMARC policy, so this package deliberately retains only the policy
// fields that matter for that decision: p, sp and pct. Reporting addresses,
// alignment modes and other tags are parsed past and discarded. Message
// verification (SPF/DKIM alignment) is out of scope; only the published
// policy is consumed.
//
// This package provides:
//   - DMARC record parsing for the policy tags (p, sp, pct)
//   - Record lookup with organizational-domain fallback
//   - Organizational domain detection using the Public Suffix List
//
// Looking up a DMARC policy:
//
//	resolver := dns.NewResolver(dns.ResolverConfig{})
//
//	status, domain, record, txt, err := dmarc.Lookup(ctx, resolver, "example.com")
//	if status == dmarc.StatusFound {
//	    // record.Policy, record.EffectiveSubdomainPolicy(), record.Percentage
//	}
//
// # Organizational Domain
//
// The organizational domain is determined using the Public Suffix List. For example:
//   - example.com has organizational domain example.com
//   - sub.example.com has organizational domain example.com
//   - sub.example.co.uk has organizational domain example.co.uk
//
// # References
//
//   - RFC 7489: Domain-based Message Authentication, Reporting, and Conformance (DMARC)
package dmarc
