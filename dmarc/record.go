package dmarc

import (
	"fmt"
	"strings"
)

// Record is a parsed DMARC DNS TXT record, reduced to the fields that govern
// BIMI eligibility. Reporting addresses, alignment modes and other tags are
// accepted on input but not retained.
//
// Example record:
//
//	v=DMARC1; p=reject; pct=100
type Record struct {
	// Version must be "DMARC1".
	Version string

	// Policy is the requested policy for messages that fail DMARC. Required.
	Policy Policy

	// SubdomainPolicy is the policy for subdomains. If empty, Policy applies.
	SubdomainPolicy Policy

	// Percentage is the percentage of messages to which the policy applies.
	// Between 0 and 100, default is 100.
	Percentage int
}

// DefaultRecord holds the default values for a DMARC record.
var DefaultRecord = Record{
	Version:    "DMARC1",
	Percentage: 100,
}

// String returns the DMARC record formatted for DNS TXT.
func (r Record) String() string {
	var b strings.Builder
	b.WriteString("v=")
	b.WriteString(r.Version)

	write := func(do bool, tag, value string) {
		if do {
			fmt.Fprintf(&b, "; %s=%s", tag, value)
		}
	}

	write(r.Policy != "", "p", string(r.Policy))
	write(r.SubdomainPolicy != "", "sp", string(r.SubdomainPolicy))
	write(r.Percentage != 100, "pct", fmt.Sprintf("%d", r.Percentage))

	return b.String()
}

// EffectiveSubdomainPolicy returns the policy applied to subdomains:
// SubdomainPolicy if set, otherwise Policy.
func (r *Record) EffectiveSubdomainPolicy() Policy {
	if r.SubdomainPolicy != PolicyEmpty {
		return r.SubdomainPolicy
	}
	return r.Policy
}
