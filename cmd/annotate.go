package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Attach descriptions and notes to catalog entries",
}

var annotateTableCmd = &cobra.Command{
	Use:   "table <tenant> <table> <description>",
	Short: "Set the user description on a table",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tenant, table, description := args[0], args[1], args[2]

		rt, err := newRuntime(ctx, nil)
		if err != nil {
			return err
		}
		defer rt.close(context.Background())

		stats, err := rt.engine.DatabaseStats(ctx, tenant)
		if err != nil {
			return err
		}
		if err := rt.engine.AnnotateTable(ctx, tenant, stats.Schema, table, description); err != nil {
			return err
		}

		fmt.Printf("Description set on %s.%s.\n", stats.Schema, table)
		return nil
	},
}

var annotateColumnCmd = &cobra.Command{
	Use:   "column <tenant> <table> <column> <note>",
	Short: "Set the user note on a column",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tenant, table, column, note := args[0], args[1], args[2], args[3]

		rt, err := newRuntime(ctx, nil)
		if err != nil {
			return err
		}
		defer rt.close(context.Background())

		stats, err := rt.engine.DatabaseStats(ctx, tenant)
		if err != nil {
			return err
		}
		if err := rt.engine.AnnotateColumn(ctx, tenant, stats.Schema, table, column, note); err != nil {
			return err
		}

		fmt.Printf("Note set on %s.%s.%s.\n", stats.Schema, table, column)
		return nil
	},
}

func init() {
	annotateCmd.AddCommand(annotateTableCmd)
	annotateCmd.AddCommand(annotateColumnCmd)
	rootCmd.AddCommand(annotateCmd)
}
