package dmarc

import (
	"context"
	"fmt"
	"strings"

	mimidns "github.com/gwire/mimi-headers/dns"
)

// Lookup looks up the DMARC TXT record for the given domain.
//
// It first queries "_dmarc.<domain>". If no record is found, it falls back to
// the organizational domain (determined using the Public Suffix List) and
// queries "_dmarc.<orgdomain>".
//
// Returns:
//   - status: The lookup status
//   - dmarcDomain: The domain where the record was found
//   - record: The parsed DMARC record (nil if not found or invalid)
//   - txt: The raw TXT record text
//   - err: Any error that occurred
func Lookup(ctx context.Context, resolver mimidns.Resolver, domain string) (status Status, dmarcDomain string, record *Record, txt string, err error) {
	// First, try the exact domain
	dmarcDomain = domain
	status, record, txt, err = LookupSingle(ctx, resolver, dmarcDomain)
	if status != StatusNone || record != nil {
		return status, dmarcDomain, record, txt, err
	}

	// If no record at the exact domain, try the organizational domain
	orgDomain := OrganizationalDomain(domain)
	if orgDomain == domain {
		// Already at the organizational domain, no fallback
		return StatusNone, domain, nil, txt, err
	}

	dmarcDomain = orgDomain
	status, record, txt, err = LookupSingle(ctx, resolver, dmarcDomain)
	return status, dmarcDomain, record, txt, err
}

// LookupSingle performs the DNS lookup for a DMARC record at exactly one
// domain, with no organizational-domain fallback. The BIMI qualification walk
// drives the fallback itself, so it needs the single-level lookup.
//
// The first TXT string starting with "v=DMARC1" governs. DNS errors are
// reported as StatusTemperror; the caller decides whether to degrade them to
// "no policy".
func LookupSingle(ctx context.Context, resolver mimidns.Resolver, domain string) (Status, *Record, string, error) {
	name := "_dmarc." + domain
	if !strings.HasSuffix(name, ".") {
		name += "."
	}

	result, err := resolver.LookupTXT(ctx, name)
	if err != nil {
		if mimidns.IsNotFound(err) {
			return StatusNone, nil, "", ErrNoRecord
		}
		return StatusTemperror, nil, "", fmt.Errorf("%w: %v", ErrDNS, err)
	}

	for _, txt := range result.Records {
		r, isDMARC, parseErr := ParseRecord(txt)
		if !isDMARC {
			// Not a DMARC record, skip
			continue
		}
		if parseErr != nil {
			return StatusPermerror, nil, txt, fmt.Errorf("%w: %v", ErrSyntax, parseErr)
		}
		// First record starting with v=DMARC1 governs.
		return StatusFound, r, txt, nil
	}

	return StatusNone, nil, "", ErrNoRecord
}
