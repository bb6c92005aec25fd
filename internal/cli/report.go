package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/sitehue/internal/report"
)

func newReportCmd() *cobra.Command {
	var (
		format       string
		failuresOnly bool
	)
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Render a saved JSON report",
		Long: `Render a report written by "sitehue audit --format json --output <file>".
Files ending in .xz are decompressed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := report.ReadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "table":
				return report.WriteText(out, rep, report.TextOptions{
					Colour:       swatchesFor(out),
					FailuresOnly: failuresOnly,
				})
			case "json":
				return report.WriteJSON(out, rep)
			default:
				return fmt.Errorf("unsupported output format: %s (use table or json)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, json)")
	cmd.Flags().BoolVar(&failuresOnly, "failures-only", false, "list only AA failures and undeterminable backgrounds")
	return cmd
}
