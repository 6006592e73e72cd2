package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/courtscout/internal/plan"
)

var (
	planRegion string
	planList   bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the query plan for a region",
	RunE: func(cmd *cobra.Command, args []string) error {
		region, err := loadRegion(planRegion)
		if err != nil {
			return err
		}
		policy := policyFromConfig(cfg.Discovery)
		p, err := plan.Generate(region, policy)
		if err != nil {
			return eris.Wrap(err, "generate plan")
		}
		renderPlan(os.Stdout, region, policy, p, planList)
		return nil
	},
}

func renderPlan(w io.Writer, region plan.Region, policy plan.Policy, p plan.Plan, list bool) {
	tiers := map[plan.Tier]int{}
	for rank := range region.Cities {
		tiers[policy.TierFor(rank)]++
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Plan: %s (%s)", p.RegionName, p.RegionCode))
	t.AppendHeader(table.Row{"Tier", "Cities", "Queries per city"})
	t.AppendRows([]table.Row{
		{plan.TierTop, tiers[plan.TierTop], len(policy.TopCategories)},
		{plan.TierMid, tiers[plan.TierMid], len(policy.MidCategories)},
		{plan.TierTail, tiers[plan.TierTail], len(policy.TailCategories)},
		{"region sweep", "", len(policy.RegionSweep)},
	})
	t.AppendFooter(table.Row{"Total queries", "", len(p.Queries)})
	t.Render()

	if list {
		for _, q := range p.Queries {
			fmt.Fprintln(w, q) //nolint:errcheck
		}
	}
}

func init() {
	planCmd.Flags().StringVar(&planRegion, "region", "IL", "region code")
	planCmd.Flags().BoolVar(&planList, "list", false, "print every query")
	rootCmd.AddCommand(planCmd)
}
