package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "List onboarded databases and their catalog summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := newRuntime(ctx, nil)
		if err != nil {
			return err
		}
		defer rt.close(context.Background())

		records, err := rt.engine.ListDatabases(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No databases onboarded.")
			return nil
		}

		fmt.Printf("%-20s %-20s %8s %12s %10s  %s\n", "TENANT", "SCHEMA", "TABLES", "ROWS", "SIZE MB", "LAST SYNC")
		for _, rec := range records {
			fmt.Printf("%-20s %-20s %8d %12d %10.2f  %s\n",
				rec.Tenant,
				rec.Schema,
				len(rec.Tables),
				rec.TotalRowCount,
				rec.TotalByteSizeMB,
				rec.LastSyncedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(databasesCmd)
}
