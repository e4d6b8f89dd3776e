package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"

	"github.com/blackswanwtf/blackswan-oracle/pkg/config"
)

// Node is the RPC client interface used by Dial, both rpcclient.Client and
// rpcclient.WSClient implement it.
type Node interface {
	actor.RPCActor
	HeightGetter

	Init() error
	Close()
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
	GetRawTransactionVerbose(util.Uint256) (*result.TransactionOutputRaw, error)
	GetApplicationLog(util.Uint256, *trigger.Type) (*result.ApplicationLog, error)
}

// actorWithHeights is an actor able to get transaction heights from the
// node it uses.
type actorWithHeights struct {
	*actor.Actor
	HeightGetter
}

// Dial connects to the node and checks that the oracle contract is deployed.
// The Client signs transactions with acc (see LoadAccount). Any error is a
// *ConnectivityError.
func Dial(ctx context.Context, cfg config.Chain, acc *wallet.Account, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	contract, err := cfg.ContractHash()
	if err != nil {
		return nil, &ConnectivityError{Op: "parse contract", Err: err}
	}
	rpc, err := DialNode(ctx, cfg)
	if err != nil {
		return nil, &ConnectivityError{Op: "connect to node", Err: err}
	}
	if _, err := rpc.GetContractStateByHash(contract); err != nil {
		rpc.Close()
		return nil, &ConnectivityError{Op: "get oracle contract", Err: err}
	}
	act, err := actor.NewSimple(rpc, acc)
	if err != nil {
		rpc.Close()
		return nil, &ConnectivityError{Op: "create actor", Err: err}
	}

	c := New(Config{
		Log:                      log,
		Contract:                 contract,
		ConfirmTimeout:           cfg.ConfirmTimeout,
		MaxSystemFee:             int64(cfg.Fees.MaxSystemFee),
		ExtraSystemFee:           int64(cfg.Fees.ExtraSystemFee),
		ExtraNetworkFee:          int64(cfg.Fees.ExtraNetworkFee),
		ValidUntilBlockIncrement: cfg.Fees.ValidUntilBlockIncrement,
	}, actorWithHeights{act, rpc})
	c.closer = rpc.Close
	log.Info("connected to the node",
		zap.String("endpoint", cfg.RPCEndpoint),
		zap.String("contract", address.Uint160ToString(contract)),
		zap.String("sender", address.Uint160ToString(acc.ScriptHash())))
	return c, nil
}

// DialNode creates and initializes RPC client for the configured endpoint.
// WebSocket endpoints get WSClient which allows event-based awaiting.
func DialNode(ctx context.Context, cfg config.Chain) (Node, error) {
	u, err := url.Parse(cfg.RPCEndpoint)
	if err != nil {
		return nil, err
	}
	opts := rpcclient.Options{
		DialTimeout:    cfg.DialTimeout,
		RequestTimeout: cfg.RequestTimeout,
	}
	var n Node
	switch u.Scheme {
	case "ws", "wss":
		n, err = rpcclient.NewWS(ctx, cfg.RPCEndpoint, rpcclient.WSOptions{Options: opts})
	default:
		n, err = rpcclient.New(ctx, cfg.RPCEndpoint, opts)
	}
	if err != nil {
		return nil, err
	}
	if err := n.Init(); err != nil {
		n.Close()
		return nil, fmt.Errorf("can't init RPC client: %w", err)
	}
	return n, nil
}

// LoadAccount returns the signing account, either from WIF or from the
// wallet (decrypted).
func LoadAccount(cfg config.Chain) (*wallet.Account, error) {
	if cfg.WIF != "" {
		return wallet.NewAccountFromWIF(cfg.WIF)
	}
	w, err := wallet.NewWalletFromFile(cfg.Wallet.Path)
	if err != nil {
		return nil, fmt.Errorf("can't open wallet: %w", err)
	}
	defer w.Close()

	var h util.Uint160
	if cfg.Wallet.Address != "" {
		h, err = address.StringToUint160(cfg.Wallet.Address)
		if err != nil {
			return nil, fmt.Errorf("invalid wallet address: %w", err)
		}
	} else {
		h = w.GetChangeAddress()
	}
	acc := w.GetAccount(h)
	if acc == nil {
		return nil, errors.New("account is not found in the wallet")
	}
	if err := acc.Decrypt(cfg.Wallet.Password, w.Scrypt); err != nil {
		return nil, fmt.Errorf("can't decrypt account: %w", err)
	}
	return acc, nil
}
