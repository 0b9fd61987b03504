package bimi

import (
	"errors"
)

// BIMI lookup errors.
var (
	// ErrNoRecord indicates no BIMI DNS record was found.
	ErrNoRecord = errors.New("bimi: no BIMI DNS record found")

	// ErrSyntax indicates the BIMI record has invalid syntax.
	ErrSyntax = errors.New("bimi: malformed BIMI DNS record")

	// ErrDNS indicates a DNS lookup error occurred.
	ErrDNS = errors.New("bimi: DNS lookup error")
)

// Status is the result of BIMI evaluation, for use in an
// Authentication-Results header.
type Status string

const (
	// StatusPass indicates the domain qualified, a record was found and the
	// indicator (and authority evidence, when published) checked out.
	StatusPass Status = "pass"

	// StatusFail indicates the indicator or its authority evidence could not
	// be retrieved or verified.
	StatusFail Status = "fail"

	// StatusNone indicates no BIMI record was found for the domain or its
	// organizational domain.
	StatusNone Status = "none"

	// StatusDeclined indicates a record was found but the domain declined to
	// publish an indicator (empty l= tag).
	StatusDeclined Status = "declined"

	// StatusSkipped indicates the domain's DMARC policy does not meet the
	// BIMI requirements, so evaluation did not proceed.
	StatusSkipped Status = "skipped"

	// StatusTemperror is the initial, unset state. A well-formed evaluation
	// always overwrites it before returning.
	StatusTemperror Status = "temperror"
)

// DefaultSelector is the selector used when none is specified, analogous to
// DKIM selectors.
const DefaultSelector = "default"
