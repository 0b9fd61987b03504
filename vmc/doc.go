// Package vmc validates Verified Mark Certificates (VMCs) and extracts the
// brand indicator they bind to a domain.
//
// A VMC is an X.509 certificate that carries the RFC 3709 logotype extension
// (OID 1.3.6.1.5.5.7.1.12) embedding the media type, hashes and URI of a
// trademarked logo. Mainstream certificate tooling does not parse this
// extension, so this package decodes it directly from the fixed RFC 3709
// schema.
//
// Validation combines three steps:
//   - locate the subject certificate in an unordered candidate bundle by
//     matching subjectAltName entries against the domain's valid names
//   - decode the logotype extension and fetch the declared SVG indicator
//   - build a trust path through any intermediates to a pinned root set
//
// The verdict is binary (pass/fail); causes are surfaced only for logging.
// General-purpose X.509 path validation concerns (policy constraints,
// CRL/OCSP revocation) are out of scope.
package vmc
