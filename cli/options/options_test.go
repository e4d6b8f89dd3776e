package options

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/blackswanwtf/blackswan-oracle/pkg/config"
)

const testConfig = `Chain:
  RPCEndpoint: http://localhost:30333
  Contract: NgEisvCqr2h8wpRxQb7bVPWUZdbVCY8Uo6
  WIF: ${TEST_ORACLE_WIF}
Analytics:
  Endpoint: https://api.example
`

func newContext(t *testing.T, fill func(*flag.FlagSet)) *cli.Context {
	set := flag.NewFlagSet("flagSet", flag.ContinueOnError)
	if fill != nil {
		fill(set)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestGetTimeoutContext(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		start := time.Now()
		ctx := newContext(t, nil)
		actualCtx, cancel := GetTimeoutContext(ctx)
		defer cancel()
		end := time.Now()
		dl, _ := actualCtx.Deadline()
		require.True(t, start.Before(dl) && dl.Before(end.Add(DefaultTimeout)))
	})

	t.Run("set", func(t *testing.T) {
		start := time.Now()
		ctx := newContext(t, func(set *flag.FlagSet) {
			set.Duration("timeout", time.Duration(20), "")
		})
		require.NoError(t, ctx.Set("timeout", "20ns"))
		actualCtx, cancel := GetTimeoutContext(ctx)
		defer cancel()
		end := time.Now()
		dl, _ := actualCtx.Deadline()
		require.True(t, start.Before(dl) && dl.Before(end.Add(time.Nanosecond*20)))
	})

	t.Run("await", func(t *testing.T) {
		ctx := newContext(t, func(set *flag.FlagSet) {
			set.Bool("await", true, "")
		})
		actualCtx, cancel := GetTimeoutContext(ctx)
		defer cancel()
		dl, _ := actualCtx.Deadline()
		require.True(t, time.Until(dl) > DefaultTimeout)
	})
}

func TestGetConfigFromContext(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "oracle.yml")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte("TEST_ORACLE_WIF=KxhEDBQyyEFymvfJD96q8stMbJMbZUb6D1PmXqBWZDU2WvbvVs9o\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("TEST_ORACLE_WIF") })

	t.Run("no env", func(t *testing.T) {
		ctx := newContext(t, func(set *flag.FlagSet) {
			set.String(ConfigFlag, cfgPath, "")
		})
		_, err := GetConfigFromContext(ctx)
		var ce *config.Error
		require.ErrorAs(t, err, &ce)
		require.Equal(t, "Chain.Wallet", ce.Field)
		require.Error(t, ExitError(err))
	})
	t.Run("env file", func(t *testing.T) {
		ctx := newContext(t, func(set *flag.FlagSet) {
			set.String(ConfigFlag, cfgPath, "")
			set.String("env-file", envPath, "")
		})
		cfg, err := GetConfigFromContext(ctx)
		require.NoError(t, err)
		require.Equal(t, "KxhEDBQyyEFymvfJD96q8stMbJMbZUb6D1PmXqBWZDU2WvbvVs9o", cfg.Chain.WIF)
		require.Equal(t, config.DefaultPollInterval, cfg.Service.PollInterval)
	})
	t.Run("missing env file", func(t *testing.T) {
		ctx := newContext(t, func(set *flag.FlagSet) {
			set.String(ConfigFlag, cfgPath, "")
			set.String("env-file", filepath.Join(dir, "missing"), "")
		})
		_, err := GetConfigFromContext(ctx)
		require.Error(t, err)
	})
}

func TestHandleLoggingParams(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		log, level, closer, err := HandleLoggingParams(false, config.Logger{})
		require.NoError(t, err)
		require.NotNil(t, log)
		require.Equal(t, zapcore.InfoLevel, level.Level())
		require.NoError(t, closer())
	})
	t.Run("invalid level", func(t *testing.T) {
		_, _, _, err := HandleLoggingParams(false, config.Logger{LogLevel: "qwerty"})
		require.Error(t, err)
	})
	t.Run("debug overrides", func(t *testing.T) {
		_, level, _, err := HandleLoggingParams(true, config.Logger{LogLevel: "warn"})
		require.NoError(t, err)
		require.Equal(t, zapcore.DebugLevel, level.Level())
	})
	t.Run("file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "logs", "oracle.log")
		log, level, closer, err := HandleLoggingParams(false, config.Logger{
			LogLevel:     "warn",
			LogEncoding:  "json",
			LogPath:      logPath,
			LogMaxSizeMB: 1,
		})
		require.NoError(t, err)
		require.Equal(t, zapcore.WarnLevel, level.Level())
		log.Info("hidden")
		log.Warn("shown")
		level.SetLevel(zapcore.InfoLevel)
		log.Info("visible now")
		require.NoError(t, log.Sync())
		require.NoError(t, closer())

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		require.NotContains(t, string(data), "hidden")
		require.Contains(t, string(data), `"msg":"shown"`)
		require.Contains(t, string(data), `"msg":"visible now"`)
	})
}
