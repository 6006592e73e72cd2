package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/courtscout/internal/curated"
	"github.com/sells-group/courtscout/internal/monitoring"
	"github.com/sells-group/courtscout/internal/pipeline"
	"github.com/sells-group/courtscout/internal/report"
	"github.com/sells-group/courtscout/pkg/geocode"
)

var (
	importFile   string
	importDryRun bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import venues from maintained sources",
}

var importCuratedCmd = &cobra.Command{
	Use:   "curated",
	Short: "Import a curated seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		sf, err := curated.Load(importFile)
		if err != nil {
			return err
		}

		var gc geocode.Client
		if cfg.Geocode.Key != "" {
			gc = newGeocoder()
		} else {
			zap.L().Warn("geocode.key not set; seeds without coordinates will be skipped")
		}
		resolver := &curated.Resolver{Geocoder: gc, Concurrency: cfg.Geocode.Concurrency}
		cands, _, err := resolver.Resolve(ctx, sf.Venues)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		cl, err := loadClassifier()
		if err != nil {
			return err
		}

		r := &pipeline.Runner{
			Store:      st,
			Classifier: cl,
			Import:     importOptions(),
			DryRun:     importDryRun,
		}
		v := pipeline.Curated(sf.Region, sf.Indoor, cfg.Discovery.PlacesThresholdM/1000)
		res, err := r.RunCandidates(ctx, v, cands)
		if err != nil {
			return eris.Wrap(err, "import curated")
		}
		report.Render(os.Stdout, &res.Counters, res.Summary)
		monitoring.NewAlerter(cfg.Monitor).Check(ctx, v.Name, v.RegionCode, res.Counters)
		return nil
	},
}

func init() {
	importCuratedCmd.Flags().StringVar(&importFile, "file", "", "seed YAML file")
	importCuratedCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "resolve and dedup without importing")
	_ = importCuratedCmd.MarkFlagRequired("file")
	importCmd.AddCommand(importCuratedCmd)
	rootCmd.AddCommand(importCmd)
}
