// Command mimi evaluates BIMI for a domain and prints the resulting mail
// headers.
//
//	mimi -domain example.com
//	mimi -domain example.com -selector brand -config mimi.yaml -v
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	mimi "github.com/gwire/mimi-headers"
	"github.com/gwire/mimi-headers/cache"
	"github.com/gwire/mimi-headers/dns"
	"github.com/gwire/mimi-headers/vmc"
)

func main() {
	var (
		domain     = flag.String("domain", "", "author domain to evaluate (required)")
		selector   = flag.String("selector", "default", "BIMI selector")
		configPath = flag.String("config", "", "path to YAML config")
		cacheDir   = flag.String("cache", "", "cache directory, overrides config")
		hostname   = flag.String("hostname", "", "authserv-id for the Authentication-Results header")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *domain == "" {
		flag.Usage()
		os.Exit(2)
	}

	config := &Config{}
	if *configPath != "" {
		var err error
		config, err = LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}
	if *cacheDir != "" {
		config.CacheDir = *cacheDir
	}
	if *hostname != "" {
		config.Hostname = *hostname
	}
	if config.Hostname == "" {
		config.Hostname, _ = os.Hostname()
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ev := &mimi.Evaluator{
		Resolver: dns.NewResolver(dns.ResolverConfig{
			Nameservers: config.DNS.Nameservers,
			DNSSEC:      config.DNS.DNSSEC,
			Timeout:     config.DNS.Timeout,
		}),
		Logger: logger,
	}

	if config.CacheDir != "" {
		ev.Cache = cache.New(config.CacheDir)
	}

	if config.RootsFile != "" {
		pem, err := os.ReadFile(config.RootsFile)
		if err != nil {
			log.Fatalf("loading roots: %v", err)
		}
		roots, err := vmc.ParseBundle(pem)
		if err != nil {
			log.Fatalf("parsing roots: %v", err)
		}
		ev.Roots = roots
	}

	result := ev.Evaluate(context.Background(), *domain, *selector)

	fmt.Printf("Authentication-Results: %s\n", mimi.AuthenticationResults(config.Hostname, result))
	if location := mimi.LocationHeader(result); location != "" {
		fmt.Printf("BIMI-Location: %s\n", location)
	}
	if len(result.Indicator) > 0 {
		fmt.Printf("BIMI-Indicator: %s\n", mimi.IndicatorHeader(result.Indicator))
	}

	if result.Status == "temperror" || result.Status == "fail" {
		os.Exit(1)
	}
}
