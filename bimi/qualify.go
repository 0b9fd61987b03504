package bimi

import (
	"context"

	"github.com/gwire/mimi-headers/dmarc"
	mimidns "github.com/gwire/mimi-headers/dns"
)

// Qualify reports whether the domain's DMARC policy chain meets the BIMI
// requirements, i.e. whether BIMI evaluation should proceed at all.
//
// The decision procedure, per domain:
//
//  1. Look up the DMARC record at exactly that domain. If absent (including
//     DNS errors, which degrade to "no policy"): fall back to the
//     organizational domain, or fail if already there.
//  2. If present: p=none disqualifies; an effective sp=none disqualifies;
//     p=quarantine with pct below 100 disqualifies. A qualifying policy at
//     the organizational domain qualifies; a qualifying policy at a
//     subdomain is confirmed against the organizational domain.
//
// Note the asymmetry: pct is only checked under p=quarantine, not p=reject.
// That mirrors upstream behavior and is preserved deliberately rather than
// corrected.
//
// The walk is a bounded loop over [domain, organizationalDomain(domain)] and
// always terminates once the organizational domain has been checked.
func Qualify(ctx context.Context, resolver mimidns.Resolver, domain string) bool {
	org := dmarc.OrganizationalDomain(domain)

	d := domain
	for {
		_, record, _, _ := dmarc.LookupSingle(ctx, resolver, d)
		if record == nil {
			// No policy at this level; DNS trouble is treated the same.
			if d != org {
				d = org
				continue
			}
			return false
		}

		if record.Policy == dmarc.PolicyNone {
			return false
		}
		if record.EffectiveSubdomainPolicy() == dmarc.PolicyNone {
			return false
		}
		if record.Policy == dmarc.PolicyQuarantine && record.Percentage != 100 {
			return false
		}

		if d == org {
			return true
		}
		// Subdomain policy is acceptable; the organizational domain must
		// also hold up.
		d = org
	}
}
