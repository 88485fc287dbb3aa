package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/catalogd/catalogd/internal/config"
	"github.com/catalogd/catalogd/internal/wizard"
)

var onboardFlags struct {
	tenant      string
	dbType      string
	host        string
	port        int
	schema      string
	username    string
	password    string
	ssl         bool
	maxConns    int
	interactive bool
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Register a tenant database and build its catalog",
	Long: `Connect to a tenant database, extract its schema and create the
catalog documents. With --interactive the connection details are collected
in a terminal form; otherwise they come from flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := newRuntime(ctx, nil)
		if err != nil {
			return err
		}
		defer rt.close(context.Background())

		if onboardFlags.interactive {
			model := wizard.NewOnboardModel(rt.engine)
			p := tea.NewProgram(model)
			final, err := p.Run()
			if err != nil {
				return err
			}
			m := final.(wizard.OnboardModel)
			if m.Cancelled() {
				return fmt.Errorf("onboarding cancelled")
			}
			fmt.Printf("Tenant %s onboarded.\n", m.Result().Tenant)
			return nil
		}

		if onboardFlags.tenant == "" || onboardFlags.dbType == "" ||
			onboardFlags.host == "" || onboardFlags.schema == "" {
			return fmt.Errorf("--tenant, --type, --host and --schema are required (or use --interactive)")
		}

		password, err := config.ResolveValue(onboardFlags.password)
		if err != nil {
			return fmt.Errorf("resolving password: %w", err)
		}

		tc := &config.TenantConfig{
			Type:           onboardFlags.dbType,
			Host:           onboardFlags.host,
			Port:           onboardFlags.port,
			Schema:         onboardFlags.schema,
			Username:       onboardFlags.username,
			Password:       password,
			SSL:            onboardFlags.ssl,
			MaxConnections: onboardFlags.maxConns,
		}
		if err := rt.engine.Onboard(ctx, onboardFlags.tenant, tc); err != nil {
			return err
		}
		fmt.Printf("Tenant %s onboarded.\n", onboardFlags.tenant)
		return nil
	},
}

func init() {
	onboardCmd.Flags().StringVar(&onboardFlags.tenant, "tenant", "", "tenant identifier")
	onboardCmd.Flags().StringVar(&onboardFlags.dbType, "type", "", "database type (mysql, postgresql, oracle)")
	onboardCmd.Flags().StringVar(&onboardFlags.host, "host", "", "database host")
	onboardCmd.Flags().IntVar(&onboardFlags.port, "port", 0, "database port (default per engine)")
	onboardCmd.Flags().StringVar(&onboardFlags.schema, "schema", "", "schema to catalog")
	onboardCmd.Flags().StringVar(&onboardFlags.username, "username", "", "database username")
	onboardCmd.Flags().StringVar(&onboardFlags.password, "password", "", "database password (supports ${ENV:..}, ${VAULT:..}, ${AWS_SM:..})")
	onboardCmd.Flags().BoolVar(&onboardFlags.ssl, "ssl", false, "require TLS")
	onboardCmd.Flags().IntVar(&onboardFlags.maxConns, "max-connections", 0, "pool size cap (default 10)")
	onboardCmd.Flags().BoolVarP(&onboardFlags.interactive, "interactive", "i", false, "use the interactive form")
	rootCmd.AddCommand(onboardCmd)
}
