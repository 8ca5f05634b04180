package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/quotadesk/internal/activity"
	"github.com/sadopc/quotadesk/internal/export"
	"github.com/sadopc/quotadesk/internal/store"
)

func newExportCommand(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:       "export csv|json",
		Short:     "Export the activity log",
		Long:      "Writes every daily log as CSV, or every log and monthly plan as JSON.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"csv", "json"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format := args[0]
			if out == "" {
				out = fmt.Sprintf("quotadesk-export-%s.%s", activity.DateKey(e.svc.Now()), format)
			}

			ctx := cmd.Context()
			logs, err := e.svc.Logs(ctx, store.LogFilter{})
			if err != nil {
				return err
			}

			switch format {
			case "csv":
				err = export.ToCSV(logs, out)
			case "json":
				plans, perr := e.store.ListPlans(ctx)
				if perr != nil {
					return perr
				}
				err = export.ToJSON(logs, plans, out)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d logs to %s\n", len(logs), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default quotadesk-export-DATE.FORMAT)")
	return cmd
}
