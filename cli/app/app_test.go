package app_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/blackswanwtf/blackswan-oracle/cli/app"
	"github.com/blackswanwtf/blackswan-oracle/pkg/config"
)

func TestCLIVersion(t *testing.T) {
	config.Version = "0.1.0-test"
	ctl := app.New()
	buf := bytes.NewBuffer(nil)
	ctl.Writer = buf
	require.NoError(t, ctl.Run([]string{"blackswan-oracle", "--version"}))
	require.Contains(t, buf.String(), "Version: 0.1.0-test")
}

func TestCommands(t *testing.T) {
	ctl := app.New()
	for _, name := range []string{"start", "update", "query", "admin", "analysis"} {
		require.NotNil(t, ctl.Command(name), name)
	}
	require.ElementsMatch(t, []string{"scores", "tx"}, subcommands(ctl.Command("query")))
	require.ElementsMatch(t, []string{"add-dev-wallet", "remove-dev-wallet", "dev-wallets", "pause", "unpause"},
		subcommands(ctl.Command("admin")))
	require.ElementsMatch(t, []string{"get"}, subcommands(ctl.Command("analysis")))
}

func subcommands(c *cli.Command) []string {
	var res []string
	for _, sc := range c.Subcommands {
		res = append(res, sc.Name)
	}
	return res
}

func TestConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "oracle.yml")
	require.NoError(t, os.WriteFile(bad, []byte("Chain:\n  RPCEndpoint: http://localhost:30333\n"), 0o644))

	for _, args := range [][]string{
		{"update", "--config", filepath.Join(dir, "missing.yml")},
		{"update", "--config", bad},
		{"start", "--config", bad},
		{"query", "scores", "--config", bad},
		{"admin", "dev-wallets", "--config", bad},
		{"update", "--config", bad, "--env-file", filepath.Join(dir, "missing.env")},
	} {
		ctl := app.New()
		ctl.Writer = bytes.NewBuffer(nil)
		err := ctl.Run(append([]string{"blackswan-oracle"}, args...))
		require.Error(t, err, args)
		var ec cli.ExitCoder
		require.ErrorAs(t, err, &ec, args)
		require.Equal(t, 1, ec.ExitCode(), args)
	}
}

func TestArgumentErrors(t *testing.T) {
	for _, args := range [][]string{
		{"admin", "add-dev-wallet"},
		{"admin", "add-dev-wallet", "not-an-address"},
		{"admin", "remove-dev-wallet", "a", "b"},
		{"admin", "pause", "extra"},
		{"query", "tx"},
		{"query", "tx", "not-a-hash"},
		{"query", "scores", "extra"},
		{"analysis", "get"},
		{"analysis", "get", "ipfs://whatever"},
	} {
		ctl := app.New()
		ctl.Writer = bytes.NewBuffer(nil)
		err := ctl.Run(append([]string{"blackswan-oracle"}, args...))
		require.Error(t, err, args)
	}
}
