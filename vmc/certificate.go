package vmc

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/gwire/mimi-headers/dmarc"
)

// Certificate handling errors.
var (
	// ErrNoCertificates indicates a PEM bundle contained no certificates.
	ErrNoCertificates = errors.New("vmc: no certificates in PEM bundle")

	// ErrNoSubjectCertificate indicates no candidate certificate names the
	// domain under evaluation.
	ErrNoSubjectCertificate = errors.New("vmc: no certificate matches the domain")
)

// ParseBundle parses a PEM bundle into certificates, preserving input order.
// Non-certificate PEM blocks are skipped. The source gives no ordering
// guarantee: the subject certificate may appear anywhere in the bundle.
func ParseBundle(pemData []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate

	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("vmc: parsing certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		return nil, ErrNoCertificates
	}
	return certs, nil
}

// ValidNames returns the DNS names a Verified Mark Certificate may carry to
// be bound to the given domain and selector: the domain itself, its
// organizational domain, and the selector-qualified BIMI names.
func ValidNames(domain, selector string) []string {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	if selector == "" {
		selector = "default"
	}
	selector = strings.ToLower(selector)

	names := []string{
		domain,
		dmarc.OrganizationalDomain(domain),
		selector + "._bimi." + domain,
		"default._bimi." + domain,
	}

	// The organizational domain may equal the domain; duplicates are
	// harmless for matching but kept out for cleanliness.
	seen := map[string]bool{}
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// FindSubject partitions candidates into the subject certificate and the
// remaining certificates, classifying by content rather than position: the
// subject certificate is the one whose subjectAltName DNS entries intersect
// names. Certificates that fail the test are returned as potential
// intermediates regardless of where they appeared in the input.
func FindSubject(candidates []*x509.Certificate, names []string) (subject *x509.Certificate, intermediates []*x509.Certificate) {
	lower := make(map[string]bool, len(names))
	for _, n := range names {
		lower[strings.ToLower(n)] = true
	}

	for _, cert := range candidates {
		if subject == nil && matchesAny(cert, lower) {
			subject = cert
			continue
		}
		intermediates = append(intermediates, cert)
	}
	return subject, intermediates
}

// matchesAny reports whether any SAN DNS name of cert is in names.
func matchesAny(cert *x509.Certificate, names map[string]bool) bool {
	for _, dns := range cert.DNSNames {
		if names[strings.TrimSuffix(strings.ToLower(dns), ".")] {
			return true
		}
	}
	return false
}
