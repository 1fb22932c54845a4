package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/giftwell/edgegate/internal/buildinfo"
	"github.com/giftwell/edgegate/internal/logging"
)

// global flags
var cfgFile string

const (
	LogLevelKey   = "log.level"
	LogFormatKey  = "log.format"
	LogNoColorKey = "log.no_color"

	UpstreamURLKey = "upstream.url"
	AppKey         = "app"
)

var rootCmd = &cobra.Command{
	Use:   "edgegate",
	Short: fmt.Sprintf("Giftwell edge authentication gateway (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `edgegate sits in front of every page and API route of the Giftwell
app family. It exchanges one-time authorization codes with the upstream
identity provider, verifies session tokens with a short-lived cache,
rate-limits mutations per user, and forwards authenticated requests with
identity headers attached.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(&logging.Options{
			Level:   viper.GetString(LogLevelKey),
			Format:  viper.GetString(LogFormatKey),
			NoColor: viper.GetBool(LogNoColorKey),
		})
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("execution failed")
		os.Exit(1)
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "edgegate.yaml",
		"Path to the gateway configuration file")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(LogLevelKey, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(LogFormatKey, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(LogNoColorKey, rootCmd.PersistentFlags().Lookup("no-color"))

	viper.SetEnvPrefix("EDGEGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))

	viper.AutomaticEnv()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

// requireConfigFlag turns a missing config file into a friendly error
// instead of the raw os.PathError.
func requireConfigFlag() error {
	if cfgFile == "" {
		return errors.New("config file not specified (use --config)")
	}
	if _, err := os.Stat(cfgFile); err != nil {
		return fmt.Errorf("config file %q not readable: %w", cfgFile, err)
	}
	return nil
}
