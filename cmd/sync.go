package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/catalogd/catalogd/internal/diff"
)

var syncApplyDrift bool

var syncCmd = &cobra.Command{
	Use:   "sync <tenant>",
	Short: "Re-extract the live schema and refresh the stored catalog",
	Long: `Sync re-extracts the tenant's schema and refreshes the stored catalog
in place. Structural fields are overwritten; user descriptions and notes
are preserved. With --apply-drift, drift is detected first and deleted
tables and columns are removed from the catalog before the refresh.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tenant := args[0]

		rt, err := newRuntime(ctx, nil)
		if err != nil {
			return err
		}
		defer rt.close(context.Background())

		var report *diff.Report
		if syncApplyDrift {
			report, err = rt.engine.DetectDrift(ctx, tenant)
			if err != nil {
				return err
			}
			if report.Changed {
				fmt.Println(renderDriftReport(tenant, report))
			}
		}

		if err := rt.engine.ApplyUpdate(ctx, tenant, report); err != nil {
			return err
		}

		fmt.Printf("Catalog for %s synced.\n", tenant)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncApplyDrift, "apply-drift", false, "detect drift and remove deleted tables and columns before refreshing")
	rootCmd.AddCommand(syncCmd)
}
