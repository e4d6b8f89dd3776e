package config

import (
	"fmt"
	"net/url"
	"time"
)

// Analytics describes the upstream API that produces the scores.
type Analytics struct {
	Endpoint string `yaml:"Endpoint"`
	// ScoresPath returns both scores in one object, it's used when content
	// publishing is disabled.
	ScoresPath string `yaml:"ScoresPath"`
	// BlackSwanPath and MarketPeakPath return full analyses, they're used
	// when content publishing is enabled.
	BlackSwanPath  string        `yaml:"BlackSwanPath"`
	MarketPeakPath string        `yaml:"MarketPeakPath"`
	APIKey         string        `yaml:"APIKey"`
	Timeout        time.Duration `yaml:"Timeout"`
	Breaker        Breaker       `yaml:"Breaker"`
}

// Breaker configures the circuit breaker guarding upstream requests.
type Breaker struct {
	// FailureThreshold is the number of consecutive failures opening the
	// circuit, zero disables the breaker.
	FailureThreshold uint32        `yaml:"FailureThreshold"`
	OpenTimeout      time.Duration `yaml:"OpenTimeout"`
}

// Validate checks Analytics for internal consistency.
func (a Analytics) Validate() error {
	if a.Endpoint == "" {
		return newError("Analytics.Endpoint", ErrMissing)
	}
	u, err := url.Parse(a.Endpoint)
	if err != nil {
		return newError("Analytics.Endpoint", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return newError("Analytics.Endpoint", fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if a.Timeout <= 0 {
		return newError("Analytics.Timeout", ErrNotPositive)
	}
	if a.Breaker.FailureThreshold > 0 && a.Breaker.OpenTimeout <= 0 {
		return newError("Analytics.Breaker.OpenTimeout", ErrNotPositive)
	}
	return nil
}
