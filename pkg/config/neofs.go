package config

import (
	"errors"
	"fmt"
	"time"

	cid "github.com/nspcc-dev/neofs-sdk-go/container/id"
)

// NeoFS represents the configuration of analysis document publishing.
type NeoFS struct {
	Enabled            bool          `yaml:"Enabled"`
	Addresses          []string      `yaml:"Addresses"`
	ContainerID        string        `yaml:"ContainerID"`
	DialTimeout        time.Duration `yaml:"DialTimeout"`
	StreamTimeout      time.Duration `yaml:"StreamTimeout"`
	HealthcheckTimeout time.Duration `yaml:"HealthcheckTimeout"`
	// GatewayURL is the HTTP gateway used to present published documents.
	GatewayURL string `yaml:"GatewayURL"`
}

// Validate checks NeoFS for internal consistency.
func (cfg NeoFS) Validate() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.ContainerID == "" {
		return newError("NeoFS.ContainerID", ErrMissing)
	}
	var containerID cid.ID
	err := containerID.DecodeString(cfg.ContainerID)
	if err != nil {
		return newError("NeoFS.ContainerID", fmt.Errorf("invalid container ID: %w", err))
	}
	if len(cfg.Addresses) == 0 {
		return newError("NeoFS.Addresses", errors.New("addresses are not set"))
	}
	return nil
}
