/*
Package query implements read-only commands inspecting the oracle state on
chain.
*/
package query

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/invoker"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/urfave/cli/v2"

	"github.com/blackswanwtf/blackswan-oracle/cli/options"
	"github.com/blackswanwtf/blackswan-oracle/pkg/neofs"
	"github.com/blackswanwtf/blackswan-oracle/pkg/rpcclient/scoreoracle"
)

// NewCommands returns 'query' command.
func NewCommands() []*cli.Command {
	flags := append(slices.Clone(options.Config), options.Timeout)
	queryTxFlags := append([]cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Output full tx info and execution logs",
		},
	}, flags...)
	return []*cli.Command{{
		Name:  "query",
		Usage: "Query oracle data from the chain",
		Subcommands: []*cli.Command{
			{
				Name:      "scores",
				Usage:     "Show scores and analysis references stored in the oracle contract",
				UsageText: "blackswan-oracle query scores [--config path] [--timeout time]",
				Action:    queryScores,
				Flags:     flags,
			},
			{
				Name:      "tx",
				Usage:     "Query oracle update transaction status",
				UsageText: "blackswan-oracle query tx <hash> [--config path] [--timeout time] [--verbose]",
				Action:    queryTx,
				Flags:     queryTxFlags,
			},
		},
	}}
}

// OracleState is the full state of the oracle contract.
type OracleState struct {
	BlackSwan          int64
	MarketPeak         int64
	BlackSwanAnalysis  string
	MarketPeakAnalysis string
	// LastUpdate is zero if the oracle was never updated.
	LastUpdate time.Time
	Owner      util.Uint160
	Paused     bool
}

// GetOracleState reads the oracle state with the given reader.
func GetOracleState(r *scoreoracle.ContractReader) (*OracleState, error) {
	var (
		res OracleState
		err error
	)
	if res.BlackSwan, err = r.BlackSwanScore(); err != nil {
		return nil, fmt.Errorf("blackswan score: %w", err)
	}
	if res.MarketPeak, err = r.MarketPeakScore(); err != nil {
		return nil, fmt.Errorf("marketpeak score: %w", err)
	}
	if res.BlackSwanAnalysis, err = r.BlackSwanAnalysis(); err != nil {
		return nil, fmt.Errorf("blackswan analysis: %w", err)
	}
	if res.MarketPeakAnalysis, err = r.MarketPeakAnalysis(); err != nil {
		return nil, fmt.Errorf("marketpeak analysis: %w", err)
	}
	lu, err := r.LastUpdate()
	if err != nil {
		return nil, fmt.Errorf("last update: %w", err)
	}
	if lu != 0 {
		res.LastUpdate = time.UnixMilli(lu).UTC()
	}
	if res.Owner, err = r.Owner(); err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}
	if res.Paused, err = r.IsPaused(); err != nil {
		return nil, fmt.Errorf("paused: %w", err)
	}
	return &res, nil
}

func queryScores(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.Exit("scores takes no arguments", 1)
	}
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

	st, err := GetOracleState(scoreoracle.NewReader(invoker.New(c, nil), contract))
	if err != nil {
		return cli.Exit(err, 1)
	}
	DumpOracleState(ctx.App.Writer, st, cfg.NeoFS.GatewayURL)
	return nil
}

// DumpOracleState prints the oracle state, analysis references are
// accompanied by gateway links if gateway is set.
func DumpOracleState(w io.Writer, st *OracleState, gateway string) {
	buf := bytes.NewBuffer(nil)

	// Ignore the errors below because `Write` to buffer doesn't return error.
	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "BlackSwan score:\t%d\n", st.BlackSwan)
	_, _ = fmt.Fprintf(tw, "MarketPeak score:\t%d\n", st.MarketPeak)
	for _, a := range []struct{ name, ref string }{
		{"BlackSwan analysis", st.BlackSwanAnalysis},
		{"MarketPeak analysis", st.MarketPeakAnalysis},
	} {
		if a.ref == "" {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", a.name, a.ref)
		if u := neofs.GatewayURL(gateway, a.ref); u != "" {
			_, _ = fmt.Fprintf(tw, "\t%s\n", u)
		}
	}
	if st.LastUpdate.IsZero() {
		_, _ = fmt.Fprint(tw, "Last update:\tnever\n")
	} else {
		_, _ = fmt.Fprintf(tw, "Last update:\t%s\n", st.LastUpdate.Format(time.RFC3339))
	}
	_, _ = fmt.Fprintf(tw, "Owner:\t%s\n", address.Uint160ToString(st.Owner))
	_, _ = fmt.Fprintf(tw, "Paused:\t%t\n", st.Paused)
	_ = tw.Flush()
	_, _ = fmt.Fprint(w, buf.String())
}

func queryTx(ctx *cli.Context) error {
	args := ctx.Args().Slice()
	if len(args) == 0 {
		return cli.Exit("transaction hash is missing", 1)
	}
	txHash, err := util.Uint256DecodeStringLE(strings.TrimPrefix(args[0], "0x"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid tx hash: %s", args[0]), 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return options.ExitError(err)
	}

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	c, exitErr := options.GetRPCClient(gctx, cfg.Chain)
	if exitErr != nil {
		return exitErr
	}
	defer c.Close()

	txOut, err := c.GetRawTransactionVerbose(txHash)
	if err != nil {
		return cli.Exit(err, 1)
	}
	var res *result.ApplicationLog
	if !txOut.Blockhash.Equals(util.Uint256{}) {
		res, err = c.GetApplicationLog(txHash, nil)
		if err != nil {
			return cli.Exit(err, 1)
		}
	}
	DumpApplicationLog(ctx.App.Writer, res, txOut, ctx.Bool("verbose"))
	return nil
}

// DumpApplicationLog prints transaction status and (optionally) its details.
func DumpApplicationLog(w io.Writer, res *result.ApplicationLog, tx *result.TransactionOutputRaw, verbose bool) {
	buf := bytes.NewBuffer(nil)

	tw := tabwriter.NewWriter(buf, 0, 4, 4, '\t', 0)
	_, _ = fmt.Fprintf(tw, "Hash:\t%s\n", tx.Hash().StringLE())
	_, _ = fmt.Fprintf(tw, "OnChain:\t%t\n", res != nil)
	if res == nil {
		_, _ = fmt.Fprintf(tw, "ValidUntil:\t%d\n", tx.ValidUntilBlock)
	} else {
		_, _ = fmt.Fprintf(tw, "BlockHash:\t%s\n", tx.Blockhash.StringLE())
		_, _ = fmt.Fprintf(tw, "Success:\t%t\n", tx.VMState == vmstate.Halt.String())
	}
	if verbose {
		for _, sig := range tx.Signers {
			_, _ = fmt.Fprintf(tw, "Signer:\t%s (%s)\n", address.Uint160ToString(sig.Account), sig.Scopes)
		}
		_, _ = fmt.Fprintf(tw, "SystemFee:\t%s GAS\n", fixedn.Fixed8(tx.SystemFee))
		_, _ = fmt.Fprintf(tw, "NetworkFee:\t%s GAS\n", fixedn.Fixed8(tx.NetworkFee))
		_, _ = fmt.Fprintf(tw, "Script:\t%s\n", base64.StdEncoding.EncodeToString(tx.Script))
		if res != nil {
			for _, e := range res.Executions {
				if e.VMState != vmstate.Halt {
					_, _ = fmt.Fprintf(tw, "Exception:\t%s\n", e.FaultException)
				}
				for _, ev := range e.Events {
					_, _ = fmt.Fprintf(tw, "Event:\t%s\n", ev.Name)
				}
			}
		}
	}
	_ = tw.Flush()
	_, _ = fmt.Fprint(w, buf.String())
}
