/*
Package server implements the commands running the oracle service.
*/
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	cid "github.com/nspcc-dev/neofs-sdk-go/container/id"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/blackswanwtf/blackswan-oracle/cli/options"
	"github.com/blackswanwtf/blackswan-oracle/pkg/config"
	"github.com/blackswanwtf/blackswan-oracle/pkg/neofs"
	"github.com/blackswanwtf/blackswan-oracle/pkg/oracle"
	"github.com/blackswanwtf/blackswan-oracle/pkg/scores"
	"github.com/blackswanwtf/blackswan-oracle/pkg/services/metrics"
	"github.com/blackswanwtf/blackswan-oracle/pkg/services/statussrv"
	"github.com/blackswanwtf/blackswan-oracle/pkg/services/updater"
)

// NewCommands returns 'start' and 'update' commands.
func NewCommands() []*cli.Command {
	flags := append(slices.Clone(options.Config), options.Debug)
	return []*cli.Command{
		{
			Name:      "start",
			Usage:     "Start the oracle service",
			UsageText: "blackswan-oracle start [--config path] [--env-file path] [--debug]",
			Action:    startOracle,
			Flags:     flags,
		},
		{
			Name:      "update",
			Usage:     "Run a single update cycle and exit",
			UsageText: "blackswan-oracle update [--config path] [--env-file path] [--debug]",
			Action:    runUpdate,
			Flags:     flags,
		},
	}
}

// oracleService is the set of connected components of the service.
type oracleService struct {
	client    *oracle.Client
	publisher *neofs.Publisher
	updater   *updater.Service
}

// close releases connections, the updater must be stopped already.
func (o *oracleService) close() {
	if o.publisher != nil {
		o.publisher.Close()
	}
	o.client.Close()
}

// newOracleService connects to the chain and NeoFS (if enabled) and
// creates the updater. Any error here is fatal for the service.
func newOracleService(ctx context.Context, cfg config.Config, log *zap.Logger) (*oracleService, error) {
	acc, err := oracle.LoadAccount(cfg.Chain)
	if err != nil {
		return nil, &oracle.ConnectivityError{Op: "load account", Err: err}
	}
	client, err := oracle.Dial(ctx, cfg.Chain, acc, log)
	if err != nil {
		return nil, err
	}
	o := &oracleService{client: client}
	if ok, err := client.Authorized(); err != nil {
		log.Warn("can't check account permissions", zap.Error(err))
	} else if !ok {
		log.Warn("account is neither the owner nor a dev wallet, updates will fail",
			zap.String("account", address.Uint160ToString(client.Sender())))
	}

	src, err := scores.New(scores.Config{
		Log:              log,
		Endpoint:         cfg.Analytics.Endpoint,
		ScoresPath:       cfg.Analytics.ScoresPath,
		BlackSwanPath:    cfg.Analytics.BlackSwanPath,
		MarketPeakPath:   cfg.Analytics.MarketPeakPath,
		APIKey:           cfg.Analytics.APIKey,
		Timeout:          cfg.Analytics.Timeout,
		FailureThreshold: cfg.Analytics.Breaker.FailureThreshold,
		OpenTimeout:      cfg.Analytics.Breaker.OpenTimeout,
	})
	if err != nil {
		o.close()
		return nil, fmt.Errorf("can't create score source: %w", err)
	}

	ucfg := updater.Config{
		Log:              log,
		Source:           src,
		Writer:           client,
		PollInterval:     cfg.Service.PollInterval,
		BlackSwanSource:  cfg.Analytics.Endpoint + cfg.Analytics.BlackSwanPath,
		MarketPeakSource: cfg.Analytics.Endpoint + cfg.Analytics.MarketPeakPath,
	}
	if cfg.NeoFS.Enabled {
		o.publisher, err = newPublisher(ctx, cfg.NeoFS, acc, log)
		if err != nil {
			o.close()
			return nil, err
		}
		ucfg.Publisher = o.publisher
	}
	o.updater, err = updater.New(ucfg)
	if err != nil {
		o.close()
		return nil, err
	}
	return o, nil
}

func newPublisher(ctx context.Context, cfg config.NeoFS, acc *wallet.Account, log *zap.Logger) (*neofs.Publisher, error) {
	var containerID cid.ID
	if err := containerID.DecodeString(cfg.ContainerID); err != nil {
		return nil, fmt.Errorf("invalid container ID: %w", err)
	}
	p, err := neofs.NewPublisher(neofs.Config{
		Log:                log,
		Addresses:          cfg.Addresses,
		ContainerID:        containerID,
		DialTimeout:        cfg.DialTimeout,
		StreamTimeout:      cfg.StreamTimeout,
		HealthcheckTimeout: cfg.HealthcheckTimeout,
		GatewayURL:         cfg.GatewayURL,
	}, acc.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("can't create NeoFS publisher: %w", err)
	}
	if err := p.Dial(ctx); err != nil {
		return nil, &oracle.ConnectivityError{Op: "connect to NeoFS", Err: err}
	}
	return p, nil
}

func newStatusServer(cfg config.Config, o *oracleService, log *zap.Logger) *statussrv.Server {
	return statussrv.New(statussrv.Config{
		Log:     log,
		Service: cfg.Status,
		Updater: o.updater,
		Info: statussrv.Info{
			Version:           config.Version,
			PollInterval:      cfg.Service.PollInterval,
			AnalyticsEndpoint: cfg.Analytics.Endpoint,
			RPCEndpoint:       cfg.Chain.RPCEndpoint,
			Contract:          address.Uint160ToString(o.client.Contract()),
			Wallet:            address.Uint160ToString(o.client.Sender()),
			GatewayURL:        cfg.NeoFS.GatewayURL,
		},
		ManualTriggerInterval: cfg.Service.ManualTriggerInterval,
	})
}

func startOracle(ctx *cli.Context) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return options.ExitError(err)
	}
	log, logLevel, logCloser, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.Logger)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer func() {
		_ = log.Sync()
		_ = logCloser()
	}()

	o, err := newOracleService(ctx.Context, cfg, log)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer o.close()

	var (
		status = newStatusServer(cfg, o, log)
		prom   = metrics.NewPrometheusService(cfg.Prometheus, log)
		pprof  = metrics.NewPprofService(cfg.Pprof, log)
	)
	for _, s := range []*metrics.Service{status.Service, prom, pprof} {
		if err := s.Start(); err != nil {
			status.ShutDown()
			prom.ShutDown()
			pprof.ShutDown()
			return cli.Exit(fmt.Errorf("can't start %s service: %w", s.Name(), err), 1)
		}
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	o.updater.Start()
	log.Info("oracle started", zap.String("version", config.Version))

	for sig := range signalCh {
		if sig == syscall.SIGHUP {
			reloadLogLevel(ctx, log, logLevel)
			continue
		}
		log.Info("shutting down", zap.Stringer("signal", sig))
		break
	}

	// Updater goes first to complete the in-flight cycle, the status server
	// then drains requests and the RPC client is closed last.
	o.updater.Shutdown()
	status.ShutDown()
	prom.ShutDown()
	pprof.ShutDown()
	log.Info("oracle stopped")
	return nil
}

func reloadLogLevel(ctx *cli.Context, log *zap.Logger, level *zap.AtomicLevel) {
	log.Info("SIGHUP received, reloading log level")
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		log.Warn("can't reload configuration", zap.Error(err))
		return
	}
	l := zapcore.InfoLevel
	if cfg.Logger.LogLevel != "" {
		l, err = zapcore.ParseLevel(cfg.Logger.LogLevel)
		if err != nil {
			log.Warn("wrong LogLevel in the configuration", zap.Error(err))
			return
		}
	}
	if ctx.Bool("debug") {
		l = zapcore.DebugLevel
	}
	level.SetLevel(l)
	log.Info("log level changed", zap.Stringer("level", l))
}

func runUpdate(ctx *cli.Context) error {
	cfg, log, logCloser, exitErr := options.GetLogger(ctx)
	if exitErr != nil {
		return exitErr
	}
	defer func() {
		_ = log.Sync()
		_ = logCloser()
	}()

	o, err := newOracleService(ctx.Context, cfg, log)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer o.close()

	out, err := o.updater.RunCycle(ctx.Context)
	if err != nil {
		var te *oracle.TransactionError
		if errors.As(err, &te) && !te.TxHash.Equals(util.Uint256{}) {
			fmt.Fprintf(ctx.App.Writer, "Transaction: %s\n", te.TxHash.StringLE())
		}
		return cli.Exit(fmt.Errorf("update failed: %w", err), 1)
	}
	fmt.Fprintf(ctx.App.Writer, "BlackSwan score:\t%d\nMarketPeak score:\t%d\n", out.Snapshot.BlackSwan, out.Snapshot.MarketPeak)
	if !out.Updated {
		fmt.Fprintln(ctx.App.Writer, "Scores are unchanged")
		return nil
	}
	fmt.Fprintf(ctx.App.Writer, "Updated (%s): %s\n", out.Mode, out.Result.TxHash.StringLE())
	return nil
}
