package mimi

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/gwire/mimi-headers/bimi"
	"github.com/gwire/mimi-headers/cache"
	"github.com/gwire/mimi-headers/dns"
	"github.com/gwire/mimi-headers/vmc"
)

var oidSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}

// testCA issues synthetic certificates for end-to-end tests.
type testCA struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
}

var serial int64 = 1000

func nextSerial() *big.Int {
	serial++
	return big.NewInt(serial)
}

func newRoot(t *testing.T, name string) *testCA {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	template := x509.Certificate{
		SerialNumber:          nextSerial(),
		Subject:               pkix.Name{CommonName: name},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("creating root: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parsing root: %v", err)
	}
	return &testCA{cert: cert, key: key}
}

// newVMC issues a leaf certificate for dnsName carrying an SVG logotype.
func (ca *testCA) newVMC(t *testing.T, dnsName, logoURL string, svg []byte) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	sum := sha256.Sum256(svg)
	value, err := vmc.MarshalLogotype([]vmc.Logotype{{
		MediaType: vmc.SVGMediaType,
		Hashes:    []vmc.HashAlgAndValue{{Algorithm: oidSHA256, Value: sum[:]}},
		URIs:      []string{logoURL},
	}})
	if err != nil {
		t.Fatalf("marshaling logotype: %v", err)
	}
	template := x509.Certificate{
		SerialNumber:    nextSerial(),
		Subject:         pkix.Name{CommonName: dnsName},
		NotBefore:       time.Now().Add(-time.Hour),
		NotAfter:        time.Now().Add(24 * time.Hour),
		KeyUsage:        x509.KeyUsageDigitalSignature,
		DNSNames:        []string{dnsName},
		ExtraExtensions: []pkix.Extension{{Id: vmc.OIDLogotype, Value: value}},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, ca.cert, &key.PublicKey, ca.key)
	if err != nil {
		t.Fatalf("creating leaf: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parsing leaf: %v", err)
	}
	return cert
}

func pemBundle(certs ...*x509.Certificate) []byte {
	var buf bytes.Buffer
	for _, c := range certs {
		pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: c.Raw})
	}
	return buf.Bytes()
}

// staticFetch serves fixed bytes per URL, failing unknown URLs.
func staticFetch(m map[string][]byte) vmc.FetchFunc {
	return func(ctx context.Context, url string) ([]byte, error) {
		if data, ok := m[url]; ok {
			return data, nil
		}
		return nil, fmt.Errorf("unexpected fetch of %q", url)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEvaluateAuthorityPass(t *testing.T) {
	root := newRoot(t, "Test VMC Root")
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)
	leaf := root.newVMC(t, "example.com", "https://cdn.example.com/cert-logo.svg", svg)

	resolver := dns.MockResolver{TXT: map[string][]string{
		"_dmarc.example.com.":        {"v=DMARC1; p=reject"},
		"default._bimi.example.com.": {"v=BIMI1; l=https://cdn.example.com/logo.svg; a=https://cdn.example.com/vmc.pem"},
	}}
	fetch := staticFetch(map[string][]byte{
		"https://cdn.example.com/logo.svg":      svg,
		"https://cdn.example.com/cert-logo.svg": svg,
		"https://cdn.example.com/vmc.pem":       pemBundle(leaf),
	})

	store := cache.New(t.TempDir())
	ev := &Evaluator{
		Resolver: resolver,
		Fetch:    fetch,
		Roots:    []*x509.Certificate{root.cert},
		Cache:    store,
		Logger:   quietLogger(),
	}

	result := ev.Evaluate(context.Background(), "example.com", "default")
	if result.Status != bimi.StatusPass {
		t.Fatalf("status %q, want pass (err: %v)", result.Status, result.Err)
	}
	if result.Authority != "pass" {
		t.Errorf("authority %q, want pass", result.Authority)
	}
	if !bytes.Equal(result.Indicator, svg) {
		t.Errorf("unexpected indicator %q", result.Indicator)
	}
	if result.Cert == nil {
		t.Error("expected the verified certificate on the result")
	}

	// Artifacts and the evaluation record are persisted.
	for _, key := range []string{
		cache.LogoKey("example.com", "default"),
		cache.VerifiedLogoKey("example.com", "default"),
		cache.CertsKey("example.com", "default"),
	} {
		if _, err := store.Get(key); err != nil {
			t.Errorf("expected cached %s: %v", key, err)
		}
	}
	rec, err := store.GetEvaluation("example.com", "default")
	if err != nil {
		t.Fatalf("evaluation record: %v", err)
	}
	if rec.Status != "pass" || rec.Authority != "pass" || rec.ID == "" {
		t.Errorf("unexpected evaluation record %+v", rec)
	}
}

func TestEvaluatePassWithoutAuthority(t *testing.T) {
	svg := []byte("<svg/>")
	resolver := dns.MockResolver{TXT: map[string][]string{
		"_dmarc.example.com.":        {"v=DMARC1; p=quarantine; pct=100"},
		"default._bimi.example.com.": {"v=BIMI1; l=https://cdn.example.com/logo.svg"},
	}}
	ev := &Evaluator{
		Resolver: resolver,
		Fetch:    staticFetch(map[string][]byte{"https://cdn.example.com/logo.svg": svg}),
		Logger:   quietLogger(),
	}

	result := ev.Evaluate(context.Background(), "example.com", "default")
	if result.Status != bimi.StatusPass {
		t.Fatalf("status %q, want pass (err: %v)", result.Status, result.Err)
	}
	if result.Authority != "" {
		t.Errorf("authority %q, want empty without a= evidence", result.Authority)
	}
	if !bytes.Equal(result.Indicator, svg) {
		t.Errorf("unexpected indicator %q", result.Indicator)
	}
}

func TestEvaluateOrganizationalFallback(t *testing.T) {
	svg := []byte("<svg/>")
	resolver := dns.MockResolver{TXT: map[string][]string{
		"_dmarc.example.com.":        {"v=DMARC1; p=reject"},
		"default._bimi.example.com.": {"v=BIMI1; l=https://cdn.example.com/logo.svg"},
	}}
	ev := &Evaluator{
		Resolver: resolver,
		Fetch:    staticFetch(map[string][]byte{"https://cdn.example.com/logo.svg": svg}),
		Logger:   quietLogger(),
	}

	result := ev.Evaluate(context.Background(), "mail.example.com", "")
	if result.Status != bimi.StatusPass {
		t.Fatalf("status %q, want pass (err: %v)", result.Status, result.Err)
	}
	if result.Domain != "example.com" {
		t.Errorf("governing domain %q, want organizational example.com", result.Domain)
	}
	if result.Selector != "default" {
		t.Errorf("selector %q, want default", result.Selector)
	}
}

func TestEvaluateSkipped(t *testing.T) {
	resolver := dns.MockResolver{TXT: map[string][]string{
		"_dmarc.example.com.": {"v=DMARC1; p=none"},
	}}
	ev := &Evaluator{Resolver: resolver, Logger: quietLogger()}

	result := ev.Evaluate(context.Background(), "example.com", "default")
	if result.Status != bimi.StatusSkipped {
		t.Errorf("status %q, want skipped", result.Status)
	}
}

func TestEvaluateNone(t *testing.T) {
	resolver := dns.MockResolver{TXT: map[string][]string{
		"_dmarc.example.com.": {"v=DMARC1; p=reject"},
	}}
	ev := &Evaluator{Resolver: resolver, Logger: quietLogger()}

	result := ev.Evaluate(context.Background(), "example.com", "default")
	if result.Status != bimi.StatusNone {
		t.Errorf("status %q, want none", result.Status)
	}
}

func TestEvaluateDeclined(t *testing.T) {
	resolver := dns.MockResolver{TXT: map[string][]string{
		"_dmarc.example.com.":        {"v=DMARC1; p=reject"},
		"default._bimi.example.com.": {"v=BIMI1; l="},
	}}
	ev := &Evaluator{Resolver: resolver, Logger: quietLogger()}

	result := ev.Evaluate(context.Background(), "example.com", "default")
	if result.Status != bimi.StatusDeclined {
		t.Errorf("status %q, want declined", result.Status)
	}
}

func TestEvaluateIndicatorFetchFailure(t *testing.T) {
	resolver := dns.MockResolver{TXT: map[string][]string{
		"_dmarc.example.com.":        {"v=DMARC1; p=reject"},
		"default._bimi.example.com.": {"v=BIMI1; l=https://cdn.example.com/logo.svg"},
	}}
	ev := &Evaluator{
		Resolver: resolver,
		Fetch:    staticFetch(nil),
		Logger:   quietLogger(),
	}

	result := ev.Evaluate(context.Background(), "example.com", "default")
	if result.Status != bimi.StatusFail {
		t.Errorf("status %q, want fail", result.Status)
	}
	if result.Err == nil {
		t.Error("expected the fetch error on the result")
	}
}

func TestEvaluateAuthorityFail(t *testing.T) {
	// Leaf chains to a root that is not pinned.
	actualRoot := newRoot(t, "Actual Root")
	pinnedRoot := newRoot(t, "Pinned Root")
	svg := []byte("<svg/>")
	leaf := actualRoot.newVMC(t, "example.com", "https://cdn.example.com/cert-logo.svg", svg)

	resolver := dns.MockResolver{TXT: map[string][]string{
		"_dmarc.example.com.":        {"v=DMARC1; p=reject"},
		"default._bimi.example.com.": {"v=BIMI1; l=https://cdn.example.com/logo.svg; a=https://cdn.example.com/vmc.pem"},
	}}
	ev := &Evaluator{
		Resolver: resolver,
		Fetch: staticFetch(map[string][]byte{
			"https://cdn.example.com/logo.svg":      svg,
			"https://cdn.example.com/cert-logo.svg": svg,
			"https://cdn.example.com/vmc.pem":       pemBundle(leaf),
		}),
		Roots:  []*x509.Certificate{pinnedRoot.cert},
		Logger: quietLogger(),
	}

	result := ev.Evaluate(context.Background(), "example.com", "default")
	if result.Status != bimi.StatusFail {
		t.Fatalf("status %q, want fail", result.Status)
	}
	if result.Authority != "fail" {
		t.Errorf("authority %q, want fail", result.Authority)
	}
	if len(result.Indicator) != 0 {
		t.Errorf("no indicator must surface on an authority failure, got %d bytes", len(result.Indicator))
	}
}
