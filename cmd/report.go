package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/courtscout/internal/report"
)

var (
	reportRegion string
	reportIndoor string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize persisted venues by city and venue type",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		scope, err := reportScope(reportRegion, reportIndoor)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		recs, err := st.List(ctx)
		if err != nil {
			return err
		}
		report.Render(os.Stdout, nil, report.Summarize(recs, scope))
		return nil
	},
}

// reportScope parses the --indoor flag: "" for both, else a bool.
func reportScope(region, indoor string) (report.Scope, error) {
	scope := report.Scope{RegionCode: region}
	if indoor == "" {
		return scope, nil
	}
	b, err := parseBoolFlag("indoor", indoor)
	if err != nil {
		return scope, err
	}
	scope.Indoor = &b
	return scope, nil
}

func init() {
	reportCmd.Flags().StringVar(&reportRegion, "region", "", "restrict to a region code")
	reportCmd.Flags().StringVar(&reportIndoor, "indoor", "", "restrict to indoor (true) or outdoor (false) venues")
	rootCmd.AddCommand(reportCmd)
}
