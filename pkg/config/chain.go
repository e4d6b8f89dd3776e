package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Chain contains settings of the Neo node connection, the oracle contract
// and the account that signs update transactions.
type Chain struct {
	// RPCEndpoint is the node RPC address, either http(s):// or ws(s)://.
	// WebSocket endpoints allow event-based transaction awaiting.
	RPCEndpoint    string        `yaml:"RPCEndpoint"`
	DialTimeout    time.Duration `yaml:"DialTimeout"`
	RequestTimeout time.Duration `yaml:"RequestTimeout"`
	// Contract is the oracle contract address or script hash (LE, with or
	// without 0x prefix).
	Contract string `yaml:"Contract"`
	// Wallet is a NEP-6 wallet holding the signing account. It conflicts
	// with WIF.
	Wallet Wallet `yaml:"Wallet"`
	// WIF is an unencrypted signing key. It conflicts with Wallet.
	WIF string `yaml:"WIF"`
	// ConfirmTimeout limits the time spent waiting for a transaction to be
	// accepted; ValidUntilBlock limits it as well.
	ConfirmTimeout time.Duration `yaml:"ConfirmTimeout"`
	Fees           Fees          `yaml:"Fees"`
}

// Wallet points to a NEP-6 wallet file and the account in it.
type Wallet struct {
	Path     string `yaml:"Path"`
	Password string `yaml:"Password"`
	// Address selects the account, the default wallet account is used
	// if empty.
	Address string `yaml:"Address"`
}

// Fees contains transaction shaping parameters. All values are in GAS.
type Fees struct {
	// MaxSystemFee is the gas ceiling for a single update, zero means no
	// limit.
	MaxSystemFee fixedn.Fixed8 `yaml:"MaxSystemFee"`
	// ExtraSystemFee is added to the system fee computed by test invocation.
	ExtraSystemFee fixedn.Fixed8 `yaml:"ExtraSystemFee"`
	// ExtraNetworkFee is added to the network fee computed by the node.
	ExtraNetworkFee fixedn.Fixed8 `yaml:"ExtraNetworkFee"`
	// ValidUntilBlockIncrement overrides the default transaction lifetime
	// (in blocks) when set.
	ValidUntilBlockIncrement uint32 `yaml:"ValidUntilBlockIncrement"`
}

// ParseHash parses an account or contract given either as Neo address or as
// a script hash in LE form.
func ParseHash(s string) (util.Uint160, error) {
	if u, err := address.StringToUint160(s); err == nil {
		return u, nil
	}
	u, err := util.Uint160DecodeStringLE(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return util.Uint160{}, errors.New("neither an address nor a script hash")
	}
	return u, nil
}

// ContractHash returns the parsed contract script hash.
func (c Chain) ContractHash() (util.Uint160, error) {
	return ParseHash(c.Contract)
}

// Validate checks Chain for internal consistency.
func (c Chain) Validate() error {
	if c.RPCEndpoint == "" {
		return newError("Chain.RPCEndpoint", ErrMissing)
	}
	u, err := url.Parse(c.RPCEndpoint)
	if err != nil {
		return newError("Chain.RPCEndpoint", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return newError("Chain.RPCEndpoint", fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if c.Contract == "" {
		return newError("Chain.Contract", ErrMissing)
	}
	if _, err := c.ContractHash(); err != nil {
		return newError("Chain.Contract", err)
	}
	switch {
	case c.WIF == "" && c.Wallet.Path == "":
		return newError("Chain.Wallet", errors.New("either Wallet.Path or WIF must be set"))
	case c.WIF != "" && c.Wallet.Path != "":
		return newError("Chain.Wallet", errors.New("Wallet.Path conflicts with WIF"))
	}
	if c.Wallet.Address != "" {
		if _, err := address.StringToUint160(c.Wallet.Address); err != nil {
			return newError("Chain.Wallet.Address", err)
		}
	}
	if c.ConfirmTimeout <= 0 {
		return newError("Chain.ConfirmTimeout", ErrNotPositive)
	}
	for name, f := range map[string]fixedn.Fixed8{
		"MaxSystemFee":    c.Fees.MaxSystemFee,
		"ExtraSystemFee":  c.Fees.ExtraSystemFee,
		"ExtraNetworkFee": c.Fees.ExtraNetworkFee,
	} {
		if f < 0 {
			return newError("Chain.Fees."+name, errors.New("can't be negative"))
		}
	}
	return nil
}
