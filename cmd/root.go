package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "catalogd",
	Short: "Multi-tenant database catalog service",
	Long: `catalogd extracts schemas from tenant relational databases (MySQL,
PostgreSQL, Oracle), keeps a normalized catalog in MongoDB, detects schema
drift against the stored snapshot and reconciles changes while preserving
user annotations.`,
}

func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.catalogd/catalogd.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}
