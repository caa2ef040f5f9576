package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tanin47/single-instance-deep-link/internal/service/packager"
)

// planCmd prints what a run would do.
var planCmd = &cobra.Command{
	Use:   "plan [stage]",
	Short: "Show which stages would run and why.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := packager.Plan(context.Background(), newOptions(args))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "STAGE\tOUTCOME\tREASON")

		for _, s := range report.Stages {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Outcome, s.Reason)
		}

		return w.Flush()
	},
}
