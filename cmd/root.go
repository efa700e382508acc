package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/YuminosukeSato/crimescope/internal/config"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
	"github.com/YuminosukeSato/crimescope/pkg/log"
)

var (
	cfgFile       string
	flagLogLevel  string
	flagLogFormat string
	flagDataPath  string
	flagModelPath string

	// cfg is resolved before any subcommand runs.
	cfg = cfgpkg.Default()
)

var rootCmd = &cobra.Command{
	Use:   "crimescope",
	Short: "Crime and GDP regression for RIDE/DF municipalities",
	Long: `crimescope trains and compares regression models that estimate total
crime victims from the economic indicators of RIDE/DF municipalities, and
serves an interactive dashboard for exploring the data and the best model.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute is the entry point called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ./crimescope.yaml)")
	f.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	f.StringVar(&flagLogFormat, "log-format", "", "log format: console or json (overrides config)")
	f.StringVar(&flagDataPath, "data", "", "dataset path, CSV or XLSX (overrides config)")
	f.StringVar(&flagModelPath, "model", "", "model bundle path (overrides config)")
}

// initConfig resolves cfg before any subcommand runs. Only a missing default
// file falls back to the built-in settings; a file or environment that fails
// to load or validate stops the command.
func initConfig(cmd *cobra.Command, _ []string) error {
	if cmd == configInitCmd {
		// a broken file must stay replaceable
		return nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	f := cmd.Flags()
	if f.Changed("log-level") {
		c.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") {
		c.LogFormat = flagLogFormat
	}
	if f.Changed("data") {
		c.DataPath = flagDataPath
	}
	if f.Changed("model") {
		c.ModelPath = flagModelPath
	}

	if err := log.Setup(c.LogLevel, c.LogFormat, os.Stderr); err != nil {
		return err
	}
	cfg = c
	return nil
}
