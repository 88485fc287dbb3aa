package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/catalogd/catalogd/internal/diff"
)

var (
	driftHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	driftAddedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	driftDeletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	driftUpdatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	driftDimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var driftCmd = &cobra.Command{
	Use:   "drift <tenant>",
	Short: "Compare the live schema against the stored catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		tenant := args[0]

		rt, err := newRuntime(ctx, nil)
		if err != nil {
			return err
		}
		defer rt.close(context.Background())

		report, err := rt.engine.DetectDrift(ctx, tenant)
		if err != nil {
			return err
		}

		fmt.Println(renderDriftReport(tenant, report))
		return nil
	},
}

func renderDriftReport(tenant string, report *diff.Report) string {
	var b strings.Builder

	b.WriteString(driftHeaderStyle.Render(fmt.Sprintf("Drift report for %s", tenant)) + "\n\n")

	if report.Empty() {
		b.WriteString(driftDimStyle.Render("  No drift detected.") + "\n")
		return b.String()
	}

	if report.Tables.Changed {
		b.WriteString("  Tables:\n")
		for _, t := range report.Tables.Added {
			b.WriteString(driftAddedStyle.Render(fmt.Sprintf("    + %s", t)) + "\n")
		}
		for _, t := range report.Tables.Deleted {
			b.WriteString(driftDeletedStyle.Render(fmt.Sprintf("    - %s", t)) + "\n")
		}
		b.WriteString("\n")
	}

	if report.Columns.Changed {
		b.WriteString("  Columns:\n")
		for _, tc := range report.Columns.Added {
			b.WriteString(driftAddedStyle.Render(
				fmt.Sprintf("    + %s: %s", tc.Table, strings.Join(tc.Columns, ", "))) + "\n")
		}
		for _, tc := range report.Columns.Deleted {
			b.WriteString(driftDeletedStyle.Render(
				fmt.Sprintf("    - %s: %s", tc.Table, strings.Join(tc.Columns, ", "))) + "\n")
		}
		for _, tc := range report.Columns.Updated {
			b.WriteString(driftUpdatedStyle.Render(
				fmt.Sprintf("    ~ %s: %s", tc.Table, strings.Join(tc.Columns, ", "))) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(driftDimStyle.Render(fmt.Sprintf("  Run `catalogd sync %s --apply-drift` to reconcile.", tenant)) + "\n")
	return b.String()
}

func init() {
	rootCmd.AddCommand(driftCmd)
}
