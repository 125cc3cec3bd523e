package cli

import (
	"encoding/json"
	"fmt"

	"cdr-tool/internal/report"
	"github.com/spf13/cobra"
)

// NewReportCmd prints the result screen of a stored session.
func NewReportCmd(configPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report <session-id>",
		Short: "Show the results of a finished session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := loadDeps(ctx, *configPath)
			if err != nil {
				return err
			}
			defer d.Close()

			rec, reports, err := d.service.Report(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					SessionID string              `json:"sessionId"`
					Edition   string              `json:"edition"`
					Record    any                 `json:"record"`
					Rules     []report.RuleReport `json:"rules"`
				}{rec.SessionID, rec.Edition, rec.Record, reports})
			}
			fmt.Fprintf(out, "Session %s (%s, %s)\n\n", rec.SessionID, rec.Edition, rec.SavedAt.Format("2006-01-02 15:04"))
			return report.WriteText(out, reports)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the answer record and reports as JSON")
	return cmd
}
