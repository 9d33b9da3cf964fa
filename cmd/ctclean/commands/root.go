// Package commands implements the CLI commands for ctclean.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/ctclean/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ctclean",
	Short: "Clean and shrink Cheat Engine tables",
	Long: `ctclean tidies Cheat Engine tables (.CT files) in place.

Every table gets its entry IDs renumbered from 1 and loses elements that only
restate defaults. Further cleanups are opt-in: repairing broken tag
delimiters, joining script lines, dropping structures and user defined
symbols, and compacting whitespace. The original is kept as <name>.bak.

Examples:
  # Apply every cleanup except signature removal
  ctclean clean -f MyGame.CT

  # Clean all tables below a directory, four at a time
  ctclean clean -f -j 4 ./tables

  # See what would change without writing anything
  ctclean clean -f --dry-run --report yaml MyGame.CT`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.ctclean.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_json", rootCmd.PersistentFlags().Lookup("log-json"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".ctclean")
		viper.SetConfigType("yaml")
	}

	// Environment variables, e.g. CTCLEAN_FULL=true
	viper.SetEnvPrefix("CTCLEAN")
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// initLogger configures logging from flags, environment and config file.
func initLogger() error {
	return logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		Level: viper.GetString("log_level"),
		JSON:  viper.GetBool("log_json"),
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
