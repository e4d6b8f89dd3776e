/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/blackswanwtf/blackswan-oracle/cli/input"
	"github.com/blackswanwtf/blackswan-oracle/pkg/config"
	"github.com/blackswanwtf/blackswan-oracle/pkg/oracle"
)

const (
	// DefaultTimeout is the default timeout used for RPC requests.
	DefaultTimeout = 10 * time.Second
	// DefaultAwaitableTimeout is the default timeout used for commands that
	// wait for transaction acceptance. It is set to the approximate time of
	// three Neo N3 mainnet blocks.
	DefaultAwaitableTimeout = 3 * 15 * time.Second
	// DefaultConfigPath is used if no --config is given.
	DefaultConfigPath = "./config/oracle.yml"
)

// ConfigFlag is a long flag name for the configuration file.
const ConfigFlag = "config"

// Config is a set of flags selecting the configuration file and the
// environment it's expanded with.
var Config = []cli.Flag{
	&cli.StringFlag{
		Name:    ConfigFlag,
		Aliases: []string{"c"},
		Value:   DefaultConfigPath,
		Usage:   "Path to the oracle configuration file",
	},
	&cli.StringFlag{
		Name:    "env-file",
		Aliases: []string{"e"},
		Usage:   "Path to the .env file loaded before the configuration (existing variables are not overridden)",
	},
}

// Debug is a flag for commands that allow debug logging.
var Debug = &cli.BoolFlag{
	Name:    "debug",
	Aliases: []string{"d"},
	Usage:   "Enable debug logging (overrides configuration)",
}

// Timeout is a flag for commands doing RPC requests.
var Timeout = &cli.DurationFlag{
	Name:    "timeout",
	Aliases: []string{"s"},
	Value:   DefaultTimeout,
	Usage:   "Timeout for the operation",
}

// Await is a flag for commands sending transactions.
var Await = &cli.BoolFlag{
	Name:    "await",
	Aliases: []string{"a"},
	Usage:   "Wait for the transaction to be included in a block",
}

// Wallet is a set of flags overriding the signing account of the
// configuration.
var Wallet = []cli.Flag{
	&cli.StringFlag{
		Name:    "wallet",
		Aliases: []string{"w"},
		Usage:   "Wallet to use to get the key for transaction signing instead of the configured one",
	},
	&cli.StringFlag{
		Name:  "address",
		Usage: "Address of the wallet account to use (default account is used if not set)",
	},
}

// GetTimeoutContext returns a context.Context with the default or a user-set
// timeout.
func GetTimeoutContext(ctx *cli.Context) (context.Context, func()) {
	dur := ctx.Duration("timeout")
	if dur == 0 {
		dur = DefaultTimeout
	}
	if !ctx.IsSet("timeout") && ctx.Bool("await") {
		dur = DefaultAwaitableTimeout
	}
	return context.WithTimeout(ctx.Context, dur)
}

// GetConfigFromContext loads the environment file (if any) and the
// configuration file given in the context. Configuration problems are
// returned as *config.Error.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if envFile := ctx.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return config.Config{}, fmt.Errorf("can't load env file: %w", err)
		}
	}
	return config.LoadFile(ctx.String(ConfigFlag))
}

// HandleLoggingParams creates a logger for the given configuration. Debug
// level is enabled if debug is set. If LogPath is configured, logs are
// written there with size-based rotation and the returned closer must be
// called to release the file.
func HandleLoggingParams(debug bool, cfg config.Logger) (*zap.Logger, *zap.AtomicLevel, func() error, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionEncoderConfig()
	cc.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if cfg.LogEncoding == "json" {
		enc = zapcore.NewJSONEncoder(cc)
	} else {
		enc = zapcore.NewConsoleEncoder(cc)
	}

	var (
		sink   zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
		closer                     = func() error { return nil }
	)
	if cfg.LogPath != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
		}
		sink = zapcore.AddSync(lj)
		closer = lj.Close
	}

	atom := zap.NewAtomicLevelAt(level)
	log := zap.New(zapcore.NewCore(enc, sink, atom))
	return log, &atom, closer, nil
}

// GetLogger reads the configuration and creates a logger for it, it's a
// shortcut for commands that don't need to change logging at runtime.
func GetLogger(ctx *cli.Context) (config.Config, *zap.Logger, func() error, cli.ExitCoder) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return config.Config{}, nil, nil, ExitError(err)
	}
	log, _, closer, err := HandleLoggingParams(ctx.Bool("debug"), cfg.Logger)
	if err != nil {
		return config.Config{}, nil, nil, cli.Exit(err, 1)
	}
	return cfg, log, closer, nil
}

// ExitError converts err into cli.ExitCoder, configuration errors are
// reported with their field.
func ExitError(err error) cli.ExitCoder {
	var ce *config.Error
	if errors.As(err, &ce) {
		return cli.Exit(fmt.Errorf("invalid configuration: %w", err), 1)
	}
	return cli.Exit(err, 1)
}

// GetAccount returns the signing account for cfg, --wallet and --address
// flags override the configured wallet. If the wallet password is not
// configured, it's read from the terminal.
func GetAccount(ctx *cli.Context, cfg config.Chain) (*wallet.Account, error) {
	if w := ctx.String("wallet"); w != "" {
		cfg.WIF = ""
		cfg.Wallet = config.Wallet{Path: w}
	}
	if a := ctx.String("address"); a != "" {
		cfg.Wallet.Address = a
	}
	if cfg.WIF == "" && cfg.Wallet.Password == "" {
		pass, err := input.ReadPassword(fmt.Sprintf("Enter password for %s > ", cfg.Wallet.Path))
		if err != nil {
			return nil, fmt.Errorf("error reading password: %w", err)
		}
		cfg.Wallet.Password = pass
	}
	return oracle.LoadAccount(cfg)
}

// GetRPCClient returns an initialized RPC client for the configured node.
func GetRPCClient(gctx context.Context, cfg config.Chain) (oracle.Node, cli.ExitCoder) {
	c, err := oracle.DialNode(gctx, cfg)
	if err != nil {
		return nil, cli.Exit(fmt.Errorf("can't connect to %s: %w", cfg.RPCEndpoint, err), 1)
	}
	return c, nil
}
