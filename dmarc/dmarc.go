package dmarc

import (
	"errors"
)

// DMARC lookup errors.
var (
	// ErrNoRecord indicates no DMARC DNS record was found.
	ErrNoRecord = errors.New("dmarc: no DMARC DNS record found")

	// ErrSyntax indicates the DMARC record has invalid syntax.
	ErrSyntax = errors.New("dmarc: malformed DMARC DNS record")

	// ErrDNS indicates a DNS lookup error occurred.
	ErrDNS = errors.New("dmarc: DNS lookup error")
)

// Status is the result of a DMARC record lookup.
type Status string

const (
	// StatusNone indicates no DMARC TXT DNS record was found.
	StatusNone Status = "none"

	// StatusFound indicates a valid DMARC record was found and parsed.
	StatusFound Status = "found"

	// StatusTemperror indicates a temporary error, typically a DNS lookup failure.
	// A later attempt may result in a conclusion.
	StatusTemperror Status = "temperror"

	// StatusPermerror indicates a permanent error, typically a malformed DMARC
	// DNS record.
	StatusPermerror Status = "permerror"
)

// Policy determines how receivers should handle messages that fail DMARC.
// BIMI evaluation only proceeds for domains whose effective policy is
// sufficiently strict.
type Policy string

const (
	// PolicyEmpty is only for the optional SubdomainPolicy field.
	PolicyEmpty Policy = ""

	// PolicyNone requests no specific action be taken for failing messages.
	// This is typically used for monitoring/reporting during initial deployment.
	PolicyNone Policy = "none"

	// PolicyQuarantine requests that failing messages be treated as suspicious.
	PolicyQuarantine Policy = "quarantine"

	// PolicyReject requests that failing messages be rejected.
	PolicyReject Policy = "reject"
)
