package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/courtscout/internal/classify"
	"github.com/sells-group/courtscout/internal/importer"
	"github.com/sells-group/courtscout/internal/store"
	"github.com/sells-group/courtscout/pkg/geocode"
)

// openStore validates the store section and opens the configured backend.
func openStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

func loadClassifier() (*classify.Classifier, error) {
	cl, err := classify.Load(cfg.Discovery.RulesFile)
	if err != nil {
		return nil, eris.Wrap(err, "load classification rules")
	}
	return cl, nil
}

func newGeocoder() geocode.Client {
	return geocode.NewClient(cfg.Geocode.Key,
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithRateLimit(cfg.Geocode.RateLimit),
	)
}

func importOptions() importer.Options {
	return importer.Options{
		ThrottleEvery: cfg.Import.ThrottleEvery,
		ThrottlePause: cfg.Import.ThrottlePause(),
	}
}
