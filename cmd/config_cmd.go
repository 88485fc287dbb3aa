package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/catalogd/catalogd/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View, validate, and manage catalogd configuration.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.ExpandHome(config.DefaultPath)
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		cfg := &config.Config{
			Version: config.CurrentVersion,
			Store: config.StoreConfig{
				ConnectionString: "mongodb://localhost:27017",
				Database:         "catalogd",
			},
			Tenants: map[string]config.TenantConfig{
				"example": {
					Type:     "mysql",
					Host:     "localhost",
					Port:     3306,
					Schema:   "example",
					Username: "catalogd",
					Password: "${ENV:EXAMPLE_DB_PASSWORD}",
				},
			},
			Server: config.ServerConfig{Port: 8080},
		}
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Config written to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current config (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		fmt.Println("Current configuration:")
		fmt.Println()
		fmt.Printf("  Store:\n")
		fmt.Printf("    Connection:     %s\n", maskSecret(cfg.Store.ConnectionString))
		fmt.Printf("    Database:       %s\n", cfg.Store.Database)
		fmt.Println()
		fmt.Printf("  Server:\n")
		fmt.Printf("    Port:           %d\n", cfg.Server.Port)
		fmt.Println()
		fmt.Printf("  Logging:\n")
		fmt.Printf("    Level:          %s\n", cfg.Logging.Level)
		fmt.Printf("    Directory:      %s\n", cfg.Logging.Directory)
		fmt.Printf("    Retention:      %d days\n", cfg.Logging.RetentionDays)

		names := make([]string, 0, len(cfg.Tenants))
		for name := range cfg.Tenants {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			t := cfg.Tenants[name]
			fmt.Println()
			fmt.Printf("  Tenant %s:\n", name)
			fmt.Printf("    Type:           %s\n", t.Type)
			fmt.Printf("    Host:           %s\n", t.Host)
			fmt.Printf("    Port:           %d\n", t.Port)
			fmt.Printf("    Schema:         %s\n", t.Schema)
			fmt.Printf("    Username:       %s\n", t.Username)
			fmt.Printf("    Password:       %s\n", maskSecret(t.Password))
			fmt.Printf("    Max Conns:      %d\n", t.MaxConnections)
		}

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}

		var errors []string

		if cfg.Store.ConnectionString == "" {
			errors = append(errors, "store.connection_string is required")
		}
		if cfg.Store.Database == "" {
			errors = append(errors, "store.database is required")
		}
		for name, t := range cfg.Tenants {
			if t.Type == "" {
				errors = append(errors, fmt.Sprintf("tenants.%s.type is required", name))
			}
			if t.Host == "" {
				errors = append(errors, fmt.Sprintf("tenants.%s.host is required", name))
			}
			if t.Schema == "" {
				errors = append(errors, fmt.Sprintf("tenants.%s.schema is required", name))
			}
		}

		if len(errors) > 0 {
			sort.Strings(errors)
			fmt.Println("Validation errors:")
			for _, e := range errors {
				fmt.Printf("  - %s\n", e)
			}
			return fmt.Errorf("%d validation error(s)", len(errors))
		}

		fmt.Println("Configuration is valid.")
		return nil
	},
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
