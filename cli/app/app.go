package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/blackswanwtf/blackswan-oracle/cli/admin"
	"github.com/blackswanwtf/blackswan-oracle/cli/analysis"
	"github.com/blackswanwtf/blackswan-oracle/cli/query"
	"github.com/blackswanwtf/blackswan-oracle/cli/server"
	"github.com/blackswanwtf/blackswan-oracle/pkg/config"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "BlackSwan oracle\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "blackswan-oracle"
	ctl.Version = config.Version
	ctl.Usage = "BlackSwan and MarketPeak score oracle for Neo N3"
	ctl.ErrWriter = os.Stdout
	ctl.ExitErrHandler = func(*cli.Context, error) {}

	ctl.Commands = append(ctl.Commands, server.NewCommands()...)
	ctl.Commands = append(ctl.Commands, query.NewCommands()...)
	ctl.Commands = append(ctl.Commands, admin.NewCommands()...)
	ctl.Commands = append(ctl.Commands, analysis.NewCommands()...)
	return ctl
}
