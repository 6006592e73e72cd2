package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/courtscout/internal/classify"
	"github.com/sells-group/courtscout/internal/geo"
	"github.com/sells-group/courtscout/internal/importer"
	"github.com/sells-group/courtscout/internal/resilience"
	"github.com/sells-group/courtscout/internal/search"
	"github.com/sells-group/courtscout/internal/store"
	storemocks "github.com/sells-group/courtscout/internal/store/mocks"
	"github.com/sells-group/courtscout/internal/venue"
)

type fakeResult struct {
	cands []venue.Candidate
	err   error
}

type fakeSearcher struct {
	results map[string]fakeResult
	calls   []string
}

func (f *fakeSearcher) Search(_ context.Context, q string) ([]venue.Candidate, error) {
	f.calls = append(f.calls, q)
	r := f.results[q]
	return r.cands, r.err
}

type countingProgress struct{ added, finished int }

func (p *countingProgress) Add(n int) error { p.added += n; return nil }
func (p *countingProgress) Finish() error   { p.finished++; return nil }

func cand(name, label string, lat, lng float64) venue.Candidate {
	p := geo.Point(lat, lng)
	return venue.Candidate{Name: name, Location: &p, RegionLabel: label, FormattedAddress: "x, " + label}
}

func newSQLite(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "venues.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func classifier(t *testing.T) *classify.Classifier {
	t.Helper()
	c, err := classify.Default()
	require.NoError(t, err)
	return c
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)
	_, err := st.Create(ctx, venue.Record{
		ID: "existing", Name: "Bloomington Rec", City: "Bloomington, IL",
		Lat: 41.0, Lng: -88.0, Indoor: true, Access: venue.AccessPublic, Source: venue.SourceCurated,
	})
	require.NoError(t, err)

	search := &fakeSearcher{results: map[string]fakeResult{
		"q1": {cands: []venue.Candidate{
			cand("Peoria YMCA", "Peoria, IL", 40.70, -89.60),
			{Name: "No Coordinates Gym", RegionLabel: "Peoria, IL"},
			cand("Elite Dance Studio", "Peoria, IL", 40.71, -89.61),
			cand("Bloomington Rec Center", "Bloomington, IL", 41.0002, -88.0),
		}},
		"q2": {cands: []venue.Candidate{
			cand("Peoria YMCA Annex", "Peoria, IL", 40.70005, -89.60),
			cand("Kenosha YMCA", "Kenosha, WI", 42.58, -87.82),
			cand("Lincoln High School", "Lincoln, IL", 40.15, -89.36),
		}},
		"q3": {err: errors.New("retries exhausted: status 429")},
	}}
	progress := &countingProgress{}

	r := &Runner{Store: st, Search: search, Classifier: classifier(t), Progress: progress}
	res, err := r.Run(ctx, Places("IL", 0.1), []string{"q1", "q2", "q3"})
	require.NoError(t, err)

	c := res.Counters
	assert.Equal(t, 3, c.QueriesIssued)
	assert.Equal(t, 1, c.QueriesFailed)
	assert.Equal(t, 7, c.RawResults)
	assert.Equal(t, 1, c.MissingCoordinates)
	assert.Equal(t, 1, c.Filtered)
	assert.Equal(t, 1, c.DuplicatesInRun)
	assert.Equal(t, 1, c.DuplicatesExisting)
	assert.Equal(t, 1, c.RegionMismatch)
	assert.Equal(t, 2, c.NewUnique)
	assert.Equal(t, 2, c.ImportsSucceeded)
	assert.Equal(t, 0, c.ImportsFailed)

	assert.Equal(t, 3, progress.added)
	assert.Equal(t, 1, progress.finished)

	require.Len(t, res.New, 2)
	ymca := res.New[0]
	assert.Equal(t, "Peoria YMCA", ymca.Name)
	assert.Equal(t, venue.TypeRecCenter, ymca.VenueType)
	assert.Equal(t, venue.AccessMembers, ymca.Access)
	assert.Equal(t, importer.DeriveID(importer.KeyNameRegion, "Peoria YMCA", "Peoria, IL", 0, 0), ymca.ID)
	assert.True(t, ymca.Indoor)
	assert.Equal(t, venue.SourceGoogle, ymca.Source)

	school := res.New[1]
	assert.Equal(t, venue.TypeSchool, school.VenueType)
	assert.Equal(t, venue.AccessPrivate, school.Access)

	assert.Equal(t, 3, res.Summary.Total)

	all, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRun_NearbyPersistedCourtIsDuplicate(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)
	_, err := st.Create(ctx, venue.Record{
		ID: "persisted", Name: "Lincoln Park Courts", City: "San Francisco, CA",
		Lat: 37.77495, Lng: -122.41945, Access: venue.AccessPublic,
		VenueType: venue.TypeOutdoor, Source: venue.SourceOSM,
	})
	require.NoError(t, err)

	fake := &fakeSearcher{results: map[string]fakeResult{
		"q": {cands: []venue.Candidate{cand("Lincoln Park Courts", "San Francisco, CA", 37.7749, -122.4194)}},
	}}
	r := &Runner{Store: st, Search: fake}
	res, err := r.Run(ctx, OSM("CA", 0.1), []string{"q"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Counters.DuplicatesExisting)
	assert.Zero(t, res.Counters.NewUnique)
	assert.Empty(t, res.New)

	all, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// failingSource always fails with a retryable status.
type failingSource struct{ calls int }

func (s *failingSource) Name() string { return "failing" }

func (s *failingSource) Search(context.Context, string) ([]venue.Candidate, error) {
	s.calls++
	return nil, resilience.NewTransientError(eris.New("status 503"), 503)
}

func TestRun_RetriesExhaustedQueryIsCounted(t *testing.T) {
	ctx := context.Background()
	src := &failingSource{}
	client := search.NewClient(src, search.Options{
		Retry: resilience.RetryConfig{MaxAttempts: 2, Backoff: resilience.Flat(0)},
	})
	progress := &countingProgress{}

	r := &Runner{Store: newSQLite(t), Search: client, Classifier: classifier(t), Progress: progress}
	res, err := r.Run(ctx, Places("IL", 0.1), []string{"q1", "q2"})
	require.NoError(t, err)

	assert.Equal(t, 4, src.calls)
	assert.Equal(t, 2, res.Counters.QueriesIssued)
	assert.Equal(t, 2, res.Counters.QueriesFailed)
	assert.Zero(t, res.Counters.RawResults)
	assert.Equal(t, 2, progress.added)
	assert.Equal(t, 1, progress.finished)
}

func TestRun_RerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newSQLite(t)
	search := &fakeSearcher{results: map[string]fakeResult{
		"q": {cands: []venue.Candidate{
			cand("Springfield YMCA", "Springfield, IL", 39.78, -89.65),
			cand("Southeast High School", "Springfield, IL", 39.75, -89.60),
		}},
	}}
	r := &Runner{Store: st, Search: search, Classifier: classifier(t)}

	first, err := r.Run(ctx, Places("IL", 0.1), []string{"q"})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Counters.NewUnique)

	second, err := r.Run(ctx, Places("IL", 0.1), []string{"q"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Counters.NewUnique)
	assert.Equal(t, 2, second.Counters.DuplicatesExisting)

	all, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRun_SnapshotLoadFailureIsFatal(t *testing.T) {
	st := storemocks.NewMockStore(t)
	st.On("List", mock.Anything).Return(nil, errors.New("connection refused"))
	search := &fakeSearcher{}

	r := &Runner{Store: st, Search: search}
	res, err := r.Run(context.Background(), Places("IL", 0.1), []string{"q1", "q2"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "load persisted records")
	assert.Empty(t, search.calls)
}

func TestRun_RegionMismatchSkipsDedupSet(t *testing.T) {
	st := newSQLite(t)
	search := &fakeSearcher{results: map[string]fakeResult{
		"q": {cands: []venue.Candidate{
			// Same court, first labeled across the state line.
			cand("State Line Fieldhouse", "Beloit, WI", 42.4950, -89.0300),
			cand("State Line Fieldhouse", "South Beloit, IL", 42.4951, -89.0300),
		}},
	}}

	r := &Runner{Store: st, Search: search, Classifier: classifier(t)}
	res, err := r.Run(context.Background(), Places("IL", 0.1), []string{"q"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Counters.RegionMismatch)
	assert.Equal(t, 0, res.Counters.DuplicatesInRun)
	assert.Equal(t, 1, res.Counters.NewUnique)
	require.Len(t, res.New, 1)
	assert.Equal(t, "South Beloit, IL", res.New[0].City)
}

func TestRun_DryRunSkipsImport(t *testing.T) {
	st := storemocks.NewMockStore(t)
	st.On("List", mock.Anything).Return([]venue.Record{}, nil).Twice()
	search := &fakeSearcher{results: map[string]fakeResult{
		"q": {cands: []venue.Candidate{cand("Peoria YMCA", "Peoria, IL", 40.7, -89.6)}},
	}}

	r := &Runner{Store: st, Search: search, Classifier: classifier(t), DryRun: true}
	res, err := r.Run(context.Background(), Places("IL", 0.1), []string{"q"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Counters.NewUnique)
	assert.Len(t, res.New, 1)
	assert.Zero(t, res.Counters.ImportsSucceeded)
	st.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRun_ImportFailureCounted(t *testing.T) {
	st := storemocks.NewMockStore(t)
	st.On("List", mock.Anything).Return([]venue.Record{}, nil).Once()
	st.On("Create", mock.Anything, mock.MatchedBy(func(r venue.Record) bool { return r.Name == "Peoria YMCA" })).
		Return(false, errors.New("validation failed")).Once()
	st.On("Create", mock.Anything, mock.Anything).Return(true, nil).Once()
	st.On("List", mock.Anything).Return(nil, errors.New("re-read failed")).Once()

	search := &fakeSearcher{results: map[string]fakeResult{
		"q": {cands: []venue.Candidate{
			cand("Peoria YMCA", "Peoria, IL", 40.7, -89.6),
			cand("Peoria High School", "Peoria, IL", 40.72, -89.58),
		}},
	}}

	r := &Runner{Store: st, Search: search, Classifier: classifier(t)}
	res, err := r.Run(context.Background(), Places("IL", 0.1), []string{"q"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Counters.ImportsFailed)
	assert.Equal(t, 1, res.Counters.ImportsSucceeded)
	assert.Zero(t, res.Summary.Total)
}

func TestRun_CanceledBetweenQueries(t *testing.T) {
	st := storemocks.NewMockStore(t)
	st.On("List", mock.Anything).Return([]venue.Record{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	search := &fakeSearcher{results: map[string]fakeResult{}}
	cancel()

	r := &Runner{Store: st, Search: search}
	res, err := r.Run(ctx, Places("IL", 0.1), []string{"q1"})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Zero(t, res.Counters.QueriesIssued)
	assert.Empty(t, search.calls)
}

func TestRunCandidates_Curated(t *testing.T) {
	st := newSQLite(t)
	c := cand("Kroc Center", "Chicago, IL", 41.75, -87.64)
	c.Tags = map[string]string{"venue_type": "rec_center", "access": "paid"}

	r := &Runner{Store: st, Classifier: classifier(t)}
	res, err := r.RunCandidates(context.Background(), Curated("IL", true, 0.1), []venue.Candidate{c})
	require.NoError(t, err)
	require.Len(t, res.New, 1)
	assert.Equal(t, venue.TypeRecCenter, res.New[0].VenueType)
	assert.Equal(t, venue.AccessPaid, res.New[0].Access)
	assert.Equal(t, venue.SourceCurated, res.New[0].Source)
	assert.Equal(t, 1, res.Counters.ImportsSucceeded)
}

func TestBuildRecord_OSM(t *testing.T) {
	c := cand("Basketball Court", "Evanston, IL", 42.05, -87.69)
	c.Tags = map[string]string{"access": "private", "leisure": "pitch"}

	rec := BuildRecord(c, OSM("IL", 0.05), classifier(t))
	assert.Equal(t, venue.TypeOutdoor, rec.VenueType)
	assert.Equal(t, venue.AccessPrivate, rec.Access)
	assert.False(t, rec.Indoor)
	assert.Equal(t, venue.SourceOSM, rec.Source)
	assert.Equal(t, importer.DeriveID(importer.KeyNameCoords, "Basketball Court", "", 42.05, -87.69), rec.ID)

	c.Tags["access"] = "yes"
	assert.Equal(t, venue.AccessPublic, BuildRecord(c, OSM("IL", 0.05), classifier(t)).Access)
}

func TestBuildRecord_NoClassifier(t *testing.T) {
	rec := BuildRecord(cand("Some Gym", "Peoria, IL", 40.7, -89.6), Places("IL", 0.1), nil)
	assert.Equal(t, venue.TypeOther, rec.VenueType)
	assert.Equal(t, venue.AccessPublic, rec.Access)
}

func TestVariants(t *testing.T) {
	p := Places("IL", 0.1)
	assert.True(t, p.Indoor)
	assert.True(t, p.Filter)
	assert.Equal(t, importer.KeyNameRegion, p.KeyMode)

	o := OSM("IL", 0.05)
	assert.False(t, o.Indoor)
	assert.False(t, o.Filter)
	assert.Equal(t, importer.KeyNameCoords, o.KeyMode)
	assert.InDelta(t, 0.05, o.ThresholdKM, 1e-12)
}
