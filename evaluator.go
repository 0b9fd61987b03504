package mimi

import (
	"context"
	"crypto/x509"
	"log/slog"
	"time"

	"github.com/gwire/mimi-headers/bimi"
	"github.com/gwire/mimi-headers/cache"
	"github.com/gwire/mimi-headers/dns"
	"github.com/gwire/mimi-headers/vmc"
)

// Evaluator runs the BIMI evaluation flow. The zero value is not usable; a
// Resolver is required, everything else has defaults.
//
// Evaluations are synchronous and sequential: DNS lookups, HTTP fetches and
// certificate verification are blocking calls with no overlap. An Evaluator
// holds no mutable state, so concurrent Evaluate calls are safe; the cache
// store makes writes atomic.
type Evaluator struct {
	// Resolver performs DNS TXT lookups. Required.
	Resolver dns.Resolver

	// Fetch retrieves indicators and certificate bundles over HTTPS.
	// Defaults to NewFetcher(nil).
	Fetch vmc.FetchFunc

	// Roots are the pinned roots VMC chains must terminate at. Without
	// roots, records that name an authority fail validation.
	Roots []*x509.Certificate

	// Cache persists fetched indicators, certificate bundles and evaluation
	// records. Optional.
	Cache *cache.Store

	// Logger receives per-step detail. Defaults to slog.Default().
	Logger *slog.Logger

	// Timeout bounds each evaluation. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// Evaluate runs the full BIMI flow for domain and selector and returns a
// Result whose Status is one of the six result codes. No failure is raised
// to the caller; the worst outcomes are the fail and temperror codes.
func (ev *Evaluator) Evaluate(ctx context.Context, domain, selector string) Result {
	if selector == "" {
		selector = bimi.DefaultSelector
	}

	log := ev.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("domain", domain), slog.String("selector", selector))

	fetch := ev.Fetch
	if fetch == nil {
		fetch = NewFetcher(nil)
	}

	timeout := ev.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// temperror is the initial state; every well-formed path below
	// overwrites it.
	result := Result{Status: bimi.StatusTemperror, Domain: domain, Selector: selector}
	defer func() { ev.persist(log, &result) }()

	if !bimi.Qualify(ctx, ev.Resolver, domain) {
		log.Debug("dmarc requirements unmet, skipping bimi")
		result.Status = bimi.StatusSkipped
		return result
	}

	status, bimiDomain, record, _, err := bimi.Lookup(ctx, ev.Resolver, domain, selector)
	if status == bimi.StatusNone {
		log.Debug("no bimi record", slog.Any("error", err))
		result.Status = bimi.StatusNone
		result.Err = err
		return result
	}
	result.Domain = bimiDomain
	result.Record = record

	if record.Declined() {
		log.Debug("bimi record declines to publish an indicator")
		result.Status = bimi.StatusDeclined
		return result
	}

	indicator, err := ev.fetchIndicator(ctx, fetch, record.Location)
	if err != nil {
		log.Debug("indicator fetch failed", slog.Any("error", err))
		result.Status = bimi.StatusFail
		result.Err = err
		return result
	}
	if ev.Cache != nil {
		if err := ev.Cache.Put(cache.LogoKey(bimiDomain, selector), indicator); err != nil {
			log.Warn("caching indicator failed", slog.Any("error", err))
		}
	}

	if record.Authority == "" {
		// No authority evidence published; the record's own indicator is the
		// result.
		result.Status = bimi.StatusPass
		result.Indicator = indicator
		return result
	}

	verdict := ev.validateAuthority(ctx, log, fetch, bimiDomain, selector, record.Authority)
	if !verdict.Pass {
		result.Status = bimi.StatusFail
		result.Authority = "fail"
		result.Err = verdict.Err
		return result
	}

	result.Status = bimi.StatusPass
	result.Authority = "pass"
	result.Indicator = verdict.Indicator
	result.Cert = verdict.Cert

	if ev.Cache != nil {
		if err := ev.Cache.Put(cache.VerifiedLogoKey(bimiDomain, selector), verdict.Indicator); err != nil {
			log.Warn("caching verified indicator failed", slog.Any("error", err))
		}
	}
	return result
}

// fetchIndicator retrieves and normalizes the indicator at url.
func (ev *Evaluator) fetchIndicator(ctx context.Context, fetch vmc.FetchFunc, url string) ([]byte, error) {
	payload, err := fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return vmc.NormalizeIndicator(payload)
}

// validateAuthority downloads the VMC bundle at url and verifies it for the
// domain against the pinned roots. Any failure along the way collapses into
// a fail verdict with the cause attached.
func (ev *Evaluator) validateAuthority(ctx context.Context, log *slog.Logger, fetch vmc.FetchFunc, domain, selector, url string) vmc.Verdict {
	bundle, err := fetch(ctx, url)
	if err != nil {
		log.Debug("authority fetch failed", slog.Any("error", err))
		return vmc.Verdict{Err: err}
	}
	if ev.Cache != nil {
		if err := ev.Cache.Put(cache.CertsKey(domain, selector), bundle); err != nil {
			log.Warn("caching certificate bundle failed", slog.Any("error", err))
		}
	}

	candidates, err := vmc.ParseBundle(bundle)
	if err != nil {
		log.Debug("authority bundle unusable", slog.Any("error", err))
		return vmc.Verdict{Err: err}
	}

	verdict := vmc.Verify(ctx, domain, selector, candidates, ev.Roots, fetch)
	if !verdict.Pass {
		log.Debug("authority validation failed", slog.Any("error", verdict.Err))
	}
	return verdict
}

// persist records the completed evaluation when a cache is configured.
func (ev *Evaluator) persist(log *slog.Logger, result *Result) {
	if ev.Cache == nil {
		return
	}
	record := &cache.Evaluation{
		Domain:    result.Domain,
		Selector:  result.Selector,
		Status:    string(result.Status),
		Authority: result.Authority,
		When:      time.Now(),
	}
	if err := ev.Cache.PutEvaluation(record); err != nil {
		log.Warn("persisting evaluation failed", slog.Any("error", err))
	}
}
