/*
Package admin implements oracle contract management commands. All of them
except dev-wallets must be signed by the contract owner.
*/
package admin

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/urfave/cli/v2"

	"github.com/blackswanwtf/blackswan-oracle/cli/options"
	"github.com/blackswanwtf/blackswan-oracle/pkg/config"
	"github.com/blackswanwtf/blackswan-oracle/pkg/rpcclient/scoreoracle"
)

// NewCommands returns 'admin' command.
func NewCommands() []*cli.Command {
	readFlags := append(slices.Clone(options.Config), options.Timeout)
	txFlags := append(slices.Clone(readFlags), options.Await)
	txFlags = append(txFlags, options.Wallet...)
	return []*cli.Command{{
		Name:  "admin",
		Usage: "Manage the oracle contract",
		Subcommands: []*cli.Command{
			{
				Name:      "add-dev-wallet",
				Usage:     "Allow the account to update the oracle",
				UsageText: "blackswan-oracle admin add-dev-wallet <address> [--wallet path] [--await]",
				Action:    addDevWallet,
				Flags:     txFlags,
			},
			{
				Name:      "remove-dev-wallet",
				Usage:     "Revoke the account permission to update the oracle",
				UsageText: "blackswan-oracle admin remove-dev-wallet <address> [--wallet path] [--await]",
				Action:    removeDevWallet,
				Flags:     txFlags,
			},
			{
				Name:      "dev-wallets",
				Usage:     "List accounts allowed to update the oracle",
				UsageText: "blackswan-oracle admin dev-wallets [--config path]",
				Action:    listDevWallets,
				Flags:     readFlags,
			},
			{
				Name:      "pause",
				Usage:     "Disable oracle updates",
				UsageText: "blackswan-oracle admin pause [--wallet path] [--await]",
				Action:    func(ctx *cli.Context) error { return setPaused(ctx, true) },
				Flags:     txFlags,
			},
			{
				Name:      "unpause",
				Usage:     "Enable oracle updates",
				UsageText: "blackswan-oracle admin unpause [--wallet path] [--await]",
				Action:    func(ctx *cli.Context) error { return setPaused(ctx, false) },
				Flags:     txFlags,
			},
		},
	}}
}

func addDevWallet(ctx *cli.Context) error {
	acc, err := accountArg(ctx)
	if err != nil {
		return err
	}
	return sendTx(ctx, func(c *scoreoracle.Contract) (util.Uint256, uint32, error) {
		return c.AddDevWallet(acc)
	})
}

func removeDevWallet(ctx *cli.Context) error {
	acc, err := accountArg(ctx)
	if err != nil {
		return err
	}
	return sendTx(ctx, func(c *scoreoracle.Contract) (util.Uint256, uint32, error) {
		return c.RemoveDevWallet(acc)
	})
}

func setPaused(ctx *cli.Context, paused bool) error {
	if ctx.NArg() != 0 {
		return cli.Exit("unexpected arguments", 1)
	}
	return sendTx(ctx, func(c *scoreoracle.Contract) (util.Uint256, uint32, error) {
		return c.SetPaused(paused)
	})
}

func accountArg(ctx *cli.Context) (util.Uint160, error) {
	if ctx.NArg() != 1 {
		return util.Uint160{}, cli.Exit("exactly one account address is expected", 1)
	}
	acc, err := config.ParseHash(ctx.Args().First())
	if err != nil {
		return util.Uint160{}, cli.Exit(fmt.Errorf("invalid account %q: %w", ctx.Args().First(), err), 1)
	}
	return acc, nil
}

// sendTx signs and sends the oracle transaction created by f and waits for
// its acceptance if --await is set.
func sendTx(ctx *cli.Context, f func(*scoreoracle.Contract) (util.Uint256, uint32, error)) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return options.ExitError(err)
	}
	contract, _ := cfg.Chain.ContractHash()
	acc, err := options.GetAccount(ctx, cfg.Chain)
	if err != nil {
		return cli.Exit(fmt.Errorf("can't get signing account: %w", err), 1)
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, exitErr := options.GetRPCClient(gctx, cfg.Chain)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	act, err := actor.NewSimple(c, acc)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to create actor: %w", err), 1)
	}
	return send(gctx, ctx.App.Writer, act, contract, ctx.Bool("await"), f)
}

// Actor is the part of actor.Actor used to send and await owner
// transactions.
type Actor interface {
	scoreoracle.Actor

	WaitAny(ctx context.Context, vub uint32, hashes ...util.Uint256) (*state.AppExecResult, error)
}

func send(ctx context.Context, w io.Writer, act Actor, contract util.Uint160, await bool, f func(*scoreoracle.Contract) (util.Uint256, uint32, error)) error {
	h, vub, err := f(scoreoracle.New(act, contract))
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to send transaction: %w", err), 1)
	}
	fmt.Fprintln(w, h.StringLE())
	if !await {
		return nil
	}
	aer, err := act.WaitAny(ctx, vub, h)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to await transaction: %w", err), 1)
	}
	if aer.VMState != vmstate.Halt {
		return cli.Exit(fmt.Errorf("transaction failed: %s", aer.FaultException), 1)
	}
	fmt.Fprintln(w, "Transaction accepted")
	return nil
}

func listDevWallets(ctx *cli.Context) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return options.ExitError(err)
	}
	contract, _ := cfg.Chain.ContractHash()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, exitErr := options.GetRPCClient(gctx, cfg.Chain)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	wallets, err := scoreoracle.NewReader(invoker.New(c, nil), contract).DevWallets()
	if err != nil {
		return cli.Exit(fmt.Errorf("can't get dev wallets: %w", err), 1)
	}
	for _, w := range wallets {
		fmt.Fprintln(ctx.App.Writer, address.Uint160ToString(w))
	}
	return nil
}
