package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the version of the service, set at build time.
var Version string

// Default values used when the configuration file doesn't specify them.
const (
	DefaultPollInterval          = 60 * time.Second
	DefaultFetchTimeout          = 30 * time.Second
	DefaultConfirmTimeout        = 2 * time.Minute
	DefaultRequestTimeout        = 10 * time.Second
	DefaultManualTriggerInterval = 5 * time.Second
	DefaultStatusAddress         = ":8080"
)

// Config is the top level struct representing the service configuration.
type Config struct {
	Logger     Logger       `yaml:"Logger"`
	Chain      Chain        `yaml:"Chain"`
	Analytics  Analytics    `yaml:"Analytics"`
	NeoFS      NeoFS        `yaml:"NeoFS"`
	Service    Service      `yaml:"Service"`
	Status     BasicService `yaml:"Status"`
	Prometheus BasicService `yaml:"Prometheus"`
	Pprof      BasicService `yaml:"Pprof"`
}

// Service contains update loop settings.
type Service struct {
	// PollInterval is the time between two scheduled update cycles.
	PollInterval time.Duration `yaml:"PollInterval"`
	// ManualTriggerInterval is the minimum time between two manual cycles
	// requested via the status API.
	ManualTriggerInterval time.Duration `yaml:"ManualTriggerInterval"`
}

// Default returns the configuration with all defaults set. Required
// settings are left empty.
func Default() Config {
	return Config{
		Logger: Logger{
			LogLevel:    "info",
			LogEncoding: "console",
		},
		Chain: Chain{
			RequestTimeout: DefaultRequestTimeout,
			ConfirmTimeout: DefaultConfirmTimeout,
		},
		Analytics: Analytics{
			ScoresPath:     "/api/scores",
			BlackSwanPath:  "/api/blackswan/analysis",
			MarketPeakPath: "/api/marketpeak/analysis",
			Timeout:        DefaultFetchTimeout,
			Breaker: Breaker{
				FailureThreshold: 5,
				OpenTimeout:      60 * time.Second,
			},
		},
		NeoFS: NeoFS{
			DialTimeout:        10 * time.Second,
			StreamTimeout:      30 * time.Second,
			HealthcheckTimeout: 10 * time.Second,
			GatewayURL:         "https://http.fs.neo.org",
		},
		Service: Service{
			PollInterval:          DefaultPollInterval,
			ManualTriggerInterval: DefaultManualTriggerInterval,
		},
		Status: BasicService{
			Enabled:   true,
			Addresses: []string{DefaultStatusAddress},
		},
	}
}

// LoadFile loads the config from the provided path. Environment variable
// references (${VAR}) are expanded before the file is parsed. The
// result is validated, any problem is reported as *Error.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		return Config{}, fmt.Errorf("unable to load config: %w", err)
	}
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Parse(configData)
}

// Parse decodes the given YAML data on top of Default and validates the
// result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(expandEnv(data)))
	decoder.KnownFields(true)
	err := decoder.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envRef matches ${VAR} references. Bare $ is left as is, so passwords and
// keys may contain it.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}

// Validate checks Config for internal consistency.
func (c Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Chain.Validate(); err != nil {
		return err
	}
	if err := c.Analytics.Validate(); err != nil {
		return err
	}
	if err := c.NeoFS.Validate(); err != nil {
		return err
	}
	if c.Service.PollInterval <= 0 {
		return newError("Service.PollInterval", ErrNotPositive)
	}
	if c.Service.ManualTriggerInterval < 0 {
		return newError("Service.ManualTriggerInterval", ErrNotPositive)
	}
	for name, s := range map[string]BasicService{
		"Status":     c.Status,
		"Prometheus": c.Prometheus,
		"Pprof":      c.Pprof,
	} {
		if s.Enabled && len(s.Addresses) == 0 {
			return newError(name+".Addresses", ErrMissing)
		}
	}
	return nil
}
