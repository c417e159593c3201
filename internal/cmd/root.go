package cmd

import (
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/chatrelay/chatrelay/internal/ailink/driver"
	"github.com/chatrelay/chatrelay/internal/config"
	errwrap "github.com/chatrelay/chatrelay/internal/errors"
	"github.com/chatrelay/chatrelay/internal/observability"
)

// AppName is the binary, service and telemetry namespace name.
const AppName = "chatrelay"

var (
	cfgFile   string
	envFile   string
	verbose   bool
	traceFile string

	traceCleanup func()

	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var rootCmd = &cobra.Command{
	Use:   AppName,
	Short: "AI chat gateway with primary/secondary provider failover",
	Long: `chatrelay accepts chat messages on POST /chat, forwards them to a primary
AI provider (OpenAI) and fails over to a secondary provider (Gemini).

Use the subcommands to run the gateway or inspect its configuration.`,
	SilenceUsage: true,
}

// Execute runs the root command and releases the request tracer afterwards.
func Execute() error {
	defer func() {
		if traceCleanup != nil {
			traceCleanup()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	// Keep gofulmen quiet until serve installs the Prometheus-backed system.
	if sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false}); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config/config.yaml or $HOME/.chatrelay/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "trace provider requests/responses to NDJSON file")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	observability.InitCLILogger(AppName, verbose)
	logger := observability.CLILogger

	if err := config.LoadDotEnv(envFile); err != nil {
		logger.Warn("Failed to load dotenv file", zap.String("file", envFile), zap.Error(err))
	}

	if traceFile != "" {
		cleanup, err := driver.EnableTracing(traceFile)
		if err != nil {
			logger.Warn("Failed to enable tracing", zap.Error(err))
		} else {
			logger.Debug("Provider tracing enabled", zap.String("file", traceFile))
			traceCleanup = cleanup
		}
	}

	v := viper.GetViper()
	config.SetDefaults(v)
	if err := config.BindEnv(v); err != nil {
		logger.Warn("Failed to bind environment variables", zap.Error(err))
	}

	used, err := config.ReadFile(v, cfgFile)
	switch {
	case err != nil:
		logger.Warn("Error reading config file", zap.Error(err))
	case used != "":
		logger.Debug("Using config file", zap.String("path", used))
	default:
		logger.Debug("No config file found, using defaults and environment variables")
	}
}

// loadConfig decodes the effective configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, errwrap.WrapConfigInvalid(cmd.Context(), err, "configuration is invalid")
	}
	return cfg, nil
}
