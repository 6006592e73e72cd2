// Package pipeline runs one discovery pass: search, filter, dedup, region
// check, import and report.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/courtscout/internal/classify"
	"github.com/sells-group/courtscout/internal/dedup"
	"github.com/sells-group/courtscout/internal/importer"
	"github.com/sells-group/courtscout/internal/report"
	"github.com/sells-group/courtscout/internal/store"
	"github.com/sells-group/courtscout/internal/venue"
)

// Searcher runs one query. *search.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string) ([]venue.Candidate, error)
}

// Progress receives one tick per query. *progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(n int) error
	Finish() error
}

// Runner wires the stages together.
type Runner struct {
	Store      store.Store
	Search     Searcher
	Classifier *classify.Classifier
	Import     importer.Options
	// DryRun skips imports; everything else runs.
	DryRun   bool
	Progress Progress
}

// Result is the outcome of a run.
type Result struct {
	Counters report.Counters
	Summary  report.Summary
	// New holds the records built for new unique candidates, in discovery
	// order.
	New []venue.Record
}

// run is the state of a single pass.
type run struct {
	v        Variant
	dedup    *dedup.Deduplicator
	counters report.Counters
	log      *zap.Logger
}

// Run executes queries sequentially. Only a failure to load the persisted
// snapshot aborts the run; failed queries and imports are counted. If ctx is
// canceled between queries the partial result is returned with ctx's error.
func (r *Runner) Run(ctx context.Context, v Variant, queries []string) (*Result, error) {
	st, err := r.begin(ctx, v)
	if err != nil {
		return nil, err
	}

	var runErr error
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			runErr = eris.Wrapf(err, "pipeline: stopped after %d of %d queries", i, len(queries))
			break
		}
		st.counters.QueriesIssued++
		cands, err := r.Search.Search(ctx, q)
		if err != nil {
			st.counters.QueriesFailed++
			st.log.Warn("query failed", zap.String("query", q), zap.Error(err))
		} else {
			st.log.Debug("query done", zap.String("query", q), zap.Int("results", len(cands)))
			st.process(r.Classifier, cands)
		}
		if r.Progress != nil {
			_ = r.Progress.Add(1)
		}
	}
	if r.Progress != nil {
		_ = r.Progress.Finish()
	}

	res := r.finish(ctx, st)
	return res, runErr
}

// RunCandidates runs pre-resolved candidates through the same stages as Run.
func (r *Runner) RunCandidates(ctx context.Context, v Variant, cands []venue.Candidate) (*Result, error) {
	st, err := r.begin(ctx, v)
	if err != nil {
		return nil, err
	}
	st.process(r.Classifier, cands)
	return r.finish(ctx, st), nil
}

func (r *Runner) begin(ctx context.Context, v Variant) (*run, error) {
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("variant", v.Name),
		zap.String("region", v.RegionCode),
	)
	snapshot, err := r.Store.List(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load persisted records")
	}
	d := dedup.New(snapshot, v.ThresholdKM)
	log.Info("loaded persisted records",
		zap.Int("count", len(snapshot)),
		zap.Int("usable", d.Persisted()),
		zap.Float64("threshold_km", d.ThresholdKM()),
	)
	return &run{v: v, dedup: d, log: log}, nil
}

// process applies filter, dedup and region check to one batch. A candidate
// that fails the region check is dropped without entering the in-run set.
func (st *run) process(cl *classify.Classifier, cands []venue.Candidate) {
	st.counters.RawResults += len(cands)
	for _, c := range cands {
		if !c.HasLocation() {
			st.counters.MissingCoordinates++
			continue
		}
		if st.v.Filter && cl != nil {
			if d := cl.Include(c); !d.Accepted {
				st.counters.Filtered++
				st.log.Debug("filtered", zap.String("name", c.Name), zap.String("reason", d.Reason), zap.String("pattern", d.Pattern))
				continue
			}
		}
		switch st.dedup.Check(c) {
		case dedup.DuplicateInRun:
			st.counters.DuplicatesInRun++
			continue
		case dedup.DuplicateExisting:
			st.counters.DuplicatesExisting++
			continue
		}
		if !venue.MatchesRegion(c.RegionLabel, st.v.RegionCode) {
			st.counters.RegionMismatch++
			st.log.Debug("region mismatch", zap.String("name", c.Name), zap.String("label", c.RegionLabel))
			continue
		}
		st.dedup.Add(c)
		st.counters.NewUnique++
	}
}

func (r *Runner) finish(ctx context.Context, st *run) *Result {
	res := &Result{}
	for _, c := range st.dedup.InRun() {
		res.New = append(res.New, BuildRecord(c, st.v, r.Classifier))
	}

	if !r.DryRun {
		im := importer.New(r.Store, r.Import)
		for _, rec := range res.New {
			if ok, _ := im.Import(ctx, rec); ok {
				st.counters.ImportsSucceeded++
			} else {
				st.counters.ImportsFailed++
			}
		}
		stats := im.Stats()
		st.log.Info("import finished",
			zap.Int("created", stats.Created),
			zap.Int("existing", stats.Existing),
			zap.Int("failed", stats.Failed),
		)
	}

	final, err := r.Store.List(ctx)
	if err != nil {
		st.log.Warn("re-read persisted records failed; summary is empty", zap.Error(err))
	} else {
		indoor := st.v.Indoor
		res.Summary = report.Summarize(final, report.Scope{RegionCode: st.v.RegionCode, Indoor: &indoor})
	}

	res.Counters = st.counters
	st.counters.Log(st.v.Name)
	return res
}

// BuildRecord converts an accepted candidate into a persisted record with
// inline classification. Valid "venue_type" and "access" tags on the
// candidate override the classifier.
func BuildRecord(c venue.Candidate, v Variant, cl *classify.Classifier) venue.Record {
	lat, lng := c.Location.Lat(), c.Location.Lon()

	vt := v.FixedType
	if t := venue.VenueType(c.Tags["venue_type"]); t.Valid() {
		vt = t
	}
	if vt == "" {
		vt = venue.TypeOther
		if cl != nil {
			vt = cl.VenueType(c.Name)
		}
	}

	access := venue.AccessPublic
	if cl != nil {
		access = cl.Access(c.Name, vt)
	}
	if a := venue.Access(c.Tags["access"]); a.Valid() {
		access = a
	}

	return venue.Record{
		ID:        importer.DeriveID(v.KeyMode, c.Name, c.RegionLabel, lat, lng),
		Name:      c.Name,
		City:      c.RegionLabel,
		Lat:       lat,
		Lng:       lng,
		Address:   c.FormattedAddress,
		Indoor:    v.Indoor,
		Access:    access,
		VenueType: vt,
		Source:    v.Source,
	}
}
