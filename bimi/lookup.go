package bimi

import (
	"context"
	"fmt"
	"strings"

	"github.com/gwire/mimi-headers/dmarc"
	mimidns "github.com/gwire/mimi-headers/dns"
)

// Lookup looks up the BIMI assertion record for the given domain and selector.
//
// It queries "<selector>._bimi.<domain>". If no record is found and the domain
// is not already its organizational domain, it retries once at the
// organizational domain with the same selector. The walk is a bounded loop:
// once the organizational domain has been tried, the lookup terminates.
//
// DNS errors are treated like "no record" for the purpose of the walk; an
// error at the organizational domain is absorbed and reported as StatusNone
// (the error detail is still returned for logging).
//
// Returns:
//   - status: StatusNone when no usable record exists, StatusPass-neutral
//     otherwise (the caller assigns the final verdict)
//   - bimiDomain: the domain whose record governs
//   - record: the parsed record (nil if none)
//   - txt: the raw TXT record text
//   - err: detail for logging; never fatal
func Lookup(ctx context.Context, resolver mimidns.Resolver, domain, selector string) (status Status, bimiDomain string, record *Record, txt string, err error) {
	if selector == "" {
		selector = DefaultSelector
	}

	org := dmarc.OrganizationalDomain(domain)

	// Bounded walk over [domain, org]; terminates unconditionally once the
	// organizational domain has been queried.
	d := domain
	for {
		record, txt, err = lookupRecord(ctx, resolver, d, selector)
		if record != nil {
			return StatusPass, d, record, txt, nil
		}
		if d == org {
			return StatusNone, d, nil, txt, err
		}
		d = org
	}
}

// lookupRecord queries one name and returns the first BIMI record, if any.
func lookupRecord(ctx context.Context, resolver mimidns.Resolver, domain, selector string) (*Record, string, error) {
	name := selector + "._bimi." + domain
	if !strings.HasSuffix(name, ".") {
		name += "."
	}

	result, err := resolver.LookupTXT(ctx, name)
	if err != nil {
		if mimidns.IsNotFound(err) {
			return nil, "", ErrNoRecord
		}
		return nil, "", fmt.Errorf("%w: %v", ErrDNS, err)
	}

	for _, txt := range result.Records {
		r, isBIMI, parseErr := ParseRecord(txt)
		if !isBIMI {
			// Not a BIMI record, skip
			continue
		}
		if parseErr != nil {
			// A malformed record is treated as no record, so the walk can
			// still fall back to the organizational domain.
			return nil, txt, parseErr
		}
		// First record starting with v=BIMI1 governs.
		return r, txt, nil
	}

	return nil, "", ErrNoRecord
}
