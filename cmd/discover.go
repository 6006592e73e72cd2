package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/courtscout/internal/config"
	"github.com/sells-group/courtscout/internal/monitoring"
	"github.com/sells-group/courtscout/internal/pipeline"
	"github.com/sells-group/courtscout/internal/plan"
	"github.com/sells-group/courtscout/internal/report"
	"github.com/sells-group/courtscout/internal/resilience"
	"github.com/sells-group/courtscout/internal/search"
	"github.com/sells-group/courtscout/pkg/geocode"
	"github.com/sells-group/courtscout/pkg/google"
	"github.com/sells-group/courtscout/pkg/overpass"
)

var (
	discoverRegion     string
	discoverDryRun     bool
	discoverNoProgress bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run a discovery pass against a place-search service",
}

var discoverPlacesCmd = &cobra.Command{
	Use:   "places",
	Short: "Discover indoor venues with Google Places text search",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		if err := cfg.Validate("places"); err != nil {
			return err
		}
		region, err := loadRegion(discoverRegion)
		if err != nil {
			return err
		}
		p, err := plan.Generate(region, policyFromConfig(cfg.Discovery))
		if err != nil {
			return eris.Wrap(err, "generate plan")
		}

		gc := google.NewClient(cfg.Google.Key,
			google.WithBaseURL(cfg.Google.BaseURL),
			google.WithMaxResults(cfg.Google.MaxResults),
		)
		client := search.NewClient(search.NewPlacesSource(gc, cfg.Google.MaxResults), searchOptions(cfg.Google.TimeoutSecs, search.MalformedEmpty))

		v := pipeline.Places(p.RegionCode, cfg.Discovery.PlacesThresholdM/1000)
		return runDiscovery(ctx, v, client, p.Queries)
	},
}

var discoverOSMCmd = &cobra.Command{
	Use:   "osm",
	Short: "Discover outdoor courts with OpenStreetMap tag queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		if err := cfg.Validate("osm"); err != nil {
			return err
		}
		region, err := loadRegion(discoverRegion)
		if err != nil {
			return err
		}
		queries, err := osmQueries(region, cfg.Overpass.Grid, cfg.Overpass.Sport)
		if err != nil {
			return err
		}

		oc := overpass.NewClient(overpass.WithBaseURL(cfg.Overpass.BaseURL))
		var gc geocode.Client
		if cfg.Geocode.Key != "" {
			gc = newGeocoder()
		} else {
			zap.L().Warn("geocode.key not set; courts without address tags will be dropped as region mismatches")
		}
		client := search.NewClient(search.NewOSMSource(oc, gc), searchOptions(cfg.Overpass.TimeoutSecs, search.MalformedRetry))

		v := pipeline.OSM(region.Code, cfg.Discovery.OSMThresholdM/1000)
		return runDiscovery(ctx, v, client, queries)
	},
}

func runDiscovery(ctx context.Context, v pipeline.Variant, searcher pipeline.Searcher, queries []string) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	cl, err := loadClassifier()
	if err != nil {
		return err
	}

	zap.L().Info("starting discovery",
		zap.String("variant", v.Name),
		zap.String("region", v.RegionCode),
		zap.Int("queries", len(queries)),
		zap.Bool("dry_run", discoverDryRun),
	)

	r := &pipeline.Runner{
		Store:      st,
		Search:     searcher,
		Classifier: cl,
		Import:     importOptions(),
		DryRun:     discoverDryRun,
		Progress:   newProgress(len(queries), v.Name, !discoverNoProgress),
	}
	res, runErr := r.Run(ctx, v, queries)
	if res != nil {
		report.Render(os.Stdout, &res.Counters, res.Summary)
		monitoring.NewAlerter(cfg.Monitor).Check(ctx, v.Name, v.RegionCode, res.Counters)
	}
	return runErr
}

func loadRegion(code string) (plan.Region, error) {
	regions, err := plan.LoadRegions(cfg.Discovery.RegionsFile)
	if err != nil {
		return plan.Region{}, err
	}
	return regions.Get(code)
}

func policyFromConfig(d config.DiscoveryConfig) plan.Policy {
	return plan.Policy{
		TopTierSize:    d.TopTierSize,
		MidTierSize:    d.MidTierSize,
		TopCategories:  d.TopCategories,
		MidCategories:  d.MidCategories,
		TailCategories: d.TailCategories,
		RegionSweep:    d.RegionSweep,
	}
}

// osmQueries tiles the region bbox into grid x grid cells, one tag query each.
func osmQueries(region plan.Region, grid int, sport string) ([]string, error) {
	if !region.HasBound() {
		return nil, eris.Errorf("region %s has no bbox configured", region.Code)
	}
	if grid < 1 {
		grid = 1
	}
	tiles := overpass.SplitBound(region.Bound(), grid, grid)
	out := make([]string, 0, len(tiles))
	for _, t := range tiles {
		out = append(out, overpass.BuildQuery(t, sport))
	}
	return out, nil
}

func searchOptions(timeoutSecs int, malformed search.MalformedPolicy) search.Options {
	d := cfg.Discovery
	return search.Options{
		Delay:     d.Delay(),
		Timeout:   time.Duration(timeoutSecs) * time.Second,
		Retry:     resilience.FromSearchConfig(d.MaxAttempts, d.RateLimitBackoff(), d.TransientBackoff()),
		Malformed: malformed,
	}
}

func newProgress(n int, desc string, visible bool) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(visible),
	)
}

func init() {
	for _, c := range []*cobra.Command{discoverPlacesCmd, discoverOSMCmd} {
		c.Flags().StringVar(&discoverRegion, "region", "IL", "region code")
		c.Flags().BoolVar(&discoverDryRun, "dry-run", false, "search, filter and dedup without importing")
		c.Flags().BoolVar(&discoverNoProgress, "no-progress", false, "hide the progress bar")
		discoverCmd.AddCommand(c)
	}
	rootCmd.AddCommand(discoverCmd)
}
