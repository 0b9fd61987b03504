package dns

import (
	"context"
	"errors"
)

// DNS lookup errors.
var (
	// ErrDNSNotFound indicates the name does not exist (NXDOMAIN) or no
	// records of the requested type were returned.
	ErrDNSNotFound = errors.New("dns: name or record not found")

	// ErrDNSTimeout indicates the query did not complete in time.
	ErrDNSTimeout = errors.New("dns: query timeout")

	// ErrDNSServFail indicates the upstream server failed (SERVFAIL) or no
	// nameserver produced a usable answer.
	ErrDNSServFail = errors.New("dns: server failure")

	// ErrDNSRefused indicates the upstream server refused the query.
	ErrDNSRefused = errors.New("dns: query refused")

	// ErrDNSBogus indicates a SERVFAIL while DNSSEC validation was requested,
	// which may mean the zone failed validation.
	ErrDNSBogus = errors.New("dns: dnssec validation failed")
)

// Result is the outcome of a DNS lookup.
type Result[T any] struct {
	// Records are the answer records, in server order.
	Records []T

	// Authentic indicates the response was DNSSEC-validated (AD bit set by a
	// validating resolver). Always false for resolvers without DNSSEC support.
	Authentic bool
}

// Resolver performs the DNS lookups the BIMI evaluation needs. Both policy
// records (DMARC and BIMI) are published as TXT, so TXT is the only query
// type required.
type Resolver interface {
	// LookupTXT retrieves TXT records for the given name. Multi-string TXT
	// records are joined into single strings.
	LookupTXT(ctx context.Context, name string) (Result[string], error)
}

// IsNotFound reports whether err means the name or record does not exist.
// Callers use this to distinguish "no policy published" from lookup trouble.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDNSNotFound)
}

// IsTimeout reports whether err is a query timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrDNSTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsServFail reports whether err is an upstream server failure.
func IsServFail(err error) bool {
	return errors.Is(err, ErrDNSServFail) || errors.Is(err, ErrDNSBogus)
}

// IsTemporary reports whether err may clear up on a later attempt.
func IsTemporary(err error) bool {
	return IsTimeout(err) || IsServFail(err) || errors.Is(err, ErrDNSRefused)
}
