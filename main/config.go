package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the optional YAML configuration for the evaluator CLI. Every
// field has a working default; an absent config file is not an error.
type Config struct {
	DNS struct {
		Nameservers []string      `yaml:"nameservers"`
		DNSSEC      bool          `yaml:"dnssec"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"dns"`

	// CacheDir persists fetched indicators, certificate bundles and
	// evaluation records. Empty disables caching.
	CacheDir string `yaml:"cacheDir"`

	// RootsFile is a PEM bundle of pinned VMC roots. Without roots, records
	// that name an authority fail validation.
	RootsFile string `yaml:"rootsFile"`

	// Hostname is the authserv-id used in the Authentication-Results header.
	Hostname string `yaml:"hostname"`
}

// LoadConfig reads a YAML file and unmarshals it into a Config struct.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}
