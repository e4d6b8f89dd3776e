/*
Package analysis implements commands reading published analysis documents.
*/
package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/urfave/cli/v2"

	"github.com/blackswanwtf/blackswan-oracle/cli/options"
	document "github.com/blackswanwtf/blackswan-oracle/pkg/analysis"
	"github.com/blackswanwtf/blackswan-oracle/pkg/neofs"
)

// NewCommands returns 'analysis' command.
func NewCommands() []*cli.Command {
	flags := append(slices.Clone(options.Config), options.Timeout,
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "Print the object as is, without formatting",
		})
	return []*cli.Command{{
		Name:  "analysis",
		Usage: "Work with published analysis documents",
		Subcommands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Get the analysis document from NeoFS",
				UsageText: "blackswan-oracle analysis get <neofs-uri> [--config path] [--raw]\n\n" +
					"   URI is the reference stored in the oracle contract (neofs:<container>/<object>),\n" +
					"   header, hash and range commands can be appended to it like\n" +
					"   neofs:<container>/<object>/header.",
				Action: getAnalysis,
				Flags:  flags,
			},
		},
	}}
}

func getAnalysis(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.Exit("exactly one NeoFS URI is expected", 1)
	}
	uri := ctx.Args().First()
	addr, ps, err := neofs.ParseURI(uri)
	if err != nil {
		return cli.Exit(fmt.Errorf("invalid URI: %w", err), 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return options.ExitError(err)
	}

	// Any key can be used to read public containers.
	priv, err := keys.NewPrivateKey()
	if err != nil {
		return cli.Exit(err, 1)
	}
	p, err := neofs.NewPublisher(neofs.Config{
		Addresses:          cfg.NeoFS.Addresses,
		ContainerID:        addr.Container(),
		DialTimeout:        cfg.NeoFS.DialTimeout,
		StreamTimeout:      cfg.NeoFS.StreamTimeout,
		HealthcheckTimeout: cfg.NeoFS.HealthcheckTimeout,
	}, priv)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer p.Close()

	gctx, cancel := options.GetTimeoutContext(ctx)
	defer cancel()
	if err := p.Dial(gctx); err != nil {
		return cli.Exit(err, 1)
	}
	data, err := p.Get(gctx, uri)
	if err != nil {
		return cli.Exit(fmt.Errorf("can't get %s: %w", uri, err), 1)
	}
	if ctx.Bool("raw") {
		_, _ = ctx.App.Writer.Write(data)
		return nil
	}
	out, err := Format(data, len(ps) == 0)
	if err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, out)
	return nil
}

// Format indents JSON data. If strict is set, data must be a valid
// analysis document.
func Format(data []byte, strict bool) (string, error) {
	if strict {
		var d document.Document
		if err := json.Unmarshal(data, &d); err != nil {
			return "", fmt.Errorf("not an analysis document: %w", err)
		}
	}
	buf := bytes.NewBuffer(nil)
	if err := json.Indent(buf, data, "", "  "); err != nil {
		return string(data), nil
	}
	return buf.String(), nil
}
