package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/disaykin/ratelimit/internal/config"
)

var (
	cfgFile string
	verbose bool

	// cliLogger is replaced in PersistentPreRunE once flags are known
	cliLogger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ratebench",
	Short: "Load generator for the sliding window rate limiter",
	Long: `ratebench drives a sliding window rate limiter with many concurrent workers
and prints how many calls were admitted or rejected over time.

Use the subcommands to perform specific operations.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		syncLogger()
	},
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.BindEnv(v)

	logger, err := buildLogger(v.GetBool("verbose"))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	cliLogger = logger

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
		}
		cliLogger.Debug("Using config file", zap.String("path", v.ConfigFileUsed()))
	}
	return nil
}

// syncLogger flushes buffered entries. Syncing stderr fails on some
// platforms (EINVAL, ENOTTY), so the error is ignored.
func syncLogger() {
	_ = cliLogger.Sync()
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	return cfg.Build()
}
