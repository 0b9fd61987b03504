package vmc

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
)

// MaxIndicatorSize is the largest accepted indicator payload, measured after
// gzip decompression. Larger payloads are rejected outright.
const MaxIndicatorSize = 32768

// Verification errors, for logging. The external contract stays binary: any
// of these collapses to a fail verdict.
var (
	// ErrNoIndicator indicates the subject certificate declares no usable
	// SVG image.
	ErrNoIndicator = errors.New("vmc: certificate declares no svg indicator")

	// ErrIndicatorTooLarge indicates the indicator payload exceeds
	// MaxIndicatorSize.
	ErrIndicatorTooLarge = errors.New("vmc: indicator payload too large")

	// ErrChain indicates the subject certificate does not chain to a pinned
	// root.
	ErrChain = errors.New("vmc: certificate chain verification failed")
)

// FetchFunc retrieves the resource at url. Implementations must enforce the
// https-only rule and a bounded timeout; the engine never retries.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

// Verdict is the terminal result of certificate validation. The external
// contract is binary: Pass plus the indicator bytes on success, fail
// otherwise. Err carries the cause for logging only and must never widen the
// verdict vocabulary.
type Verdict struct {
	// Pass indicates the subject certificate matched the domain, declared an
	// SVG indicator, and chained to a pinned root.
	Pass bool

	// Indicator is the extracted, decompressed logo on pass.
	Indicator []byte

	// Cert is the subject certificate examined, if one was found.
	Cert *x509.Certificate

	// Err is the failure cause, for logging.
	Err error
}

// Verify validates a Verified Mark Certificate set for the given domain and
// selector against pinned roots, and extracts the embedded indicator.
//
// The candidate set is partitioned by content: the subject certificate is the
// one whose subjectAltName entries intersect the valid names for the domain;
// everything else is treated as a potential intermediate. The subject's
// logotype extension supplies the indicator URI, which is fetched (and
// gunzipped when gzip-compressed) before any chain building: a chain without
// a verified subject-to-image binding is meaningless.
//
// Chain building seeds a trust store with the pinned roots and extends it
// with intermediates until a fixpoint, so multi-hop intermediate chains
// converge regardless of input order. The subject certificate is then
// verified against the extended store.
func Verify(ctx context.Context, domain, selector string, candidates, roots []*x509.Certificate, fetch FetchFunc) Verdict {
	names := ValidNames(domain, selector)

	subject, intermediates := FindSubject(candidates, names)
	if subject == nil {
		return Verdict{Err: ErrNoSubjectCertificate}
	}

	logos, err := LogotypeFromCertificate(subject)
	if err != nil {
		// Decode errors and an absent extension both fail the verdict, but
		// stay distinguishable here for the caller's log.
		return Verdict{Cert: subject, Err: err}
	}

	svg, ok := SelectSVG(logos)
	if !ok || len(svg.URIs) == 0 {
		return Verdict{Cert: subject, Err: ErrNoIndicator}
	}

	payload, err := fetch(ctx, svg.URIs[0])
	if err != nil {
		return Verdict{Cert: subject, Err: fmt.Errorf("vmc: fetching indicator: %w", err)}
	}
	indicator, err := NormalizeIndicator(payload)
	if err != nil {
		return Verdict{Cert: subject, Err: err}
	}

	store := buildTrustStore(roots, intermediates)

	// VMCs carry the BIMI extended key usage, which the default key-usage
	// check would reject.
	_, err = subject.Verify(x509.VerifyOptions{
		Roots:     store,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return Verdict{Cert: subject, Err: fmt.Errorf("%w: %v", ErrChain, err)}
	}

	return Verdict{Pass: true, Indicator: indicator, Cert: subject}
}

// buildTrustStore returns a fresh pool seeded with roots and extended with
// every intermediate that verifies against it. Verification repeats until a
// pass adds nothing, so an intermediate issued by another intermediate is
// admitted no matter the input order.
func buildTrustStore(roots, intermediates []*x509.Certificate) *x509.CertPool {
	store := x509.NewCertPool()
	for _, root := range roots {
		store.AddCert(root)
	}

	pending := make([]*x509.Certificate, len(intermediates))
	copy(pending, intermediates)

	for {
		var next []*x509.Certificate
		progress := false

		for _, cert := range pending {
			_, err := cert.Verify(x509.VerifyOptions{
				Roots:     store,
				KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
			})
			if err != nil {
				next = append(next, cert)
				continue
			}
			store.AddCert(cert)
			progress = true
		}

		if !progress || len(next) == 0 {
			return store
		}
		pending = next
	}
}

// NormalizeIndicator prepares a fetched indicator payload: gunzip when the
// gzip magic bytes (1F 8B) lead, and enforce MaxIndicatorSize on the result.
func NormalizeIndicator(data []byte) ([]byte, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("vmc: gunzip indicator: %w", err)
		}
		defer zr.Close()

		// Read one byte past the cap so oversized payloads are detected
		// without unbounded buffering.
		inflated, err := io.ReadAll(io.LimitReader(zr, MaxIndicatorSize+1))
		if err != nil {
			return nil, fmt.Errorf("vmc: gunzip indicator: %w", err)
		}
		data = inflated
	}

	if len(data) > MaxIndicatorSize {
		return nil, ErrIndicatorTooLarge
	}
	return data, nil
}
