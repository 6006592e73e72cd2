// Package report aggregates run counters and summarizes the persisted venue
// set by city and venue type.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/sells-group/courtscout/internal/venue"
)

// Counters are accumulated over one pipeline run.
type Counters struct {
	QueriesIssued      int
	QueriesFailed      int
	RawResults         int
	MissingCoordinates int
	Filtered           int
	DuplicatesInRun    int
	DuplicatesExisting int
	RegionMismatch     int
	NewUnique          int
	ImportsSucceeded   int
	ImportsFailed      int
}

// Fields returns the counters as zap fields.
func (c Counters) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("queries_issued", c.QueriesIssued),
		zap.Int("queries_failed", c.QueriesFailed),
		zap.Int("raw_results", c.RawResults),
		zap.Int("missing_coordinates", c.MissingCoordinates),
		zap.Int("filtered", c.Filtered),
		zap.Int("duplicates_in_run", c.DuplicatesInRun),
		zap.Int("duplicates_existing", c.DuplicatesExisting),
		zap.Int("region_mismatch", c.RegionMismatch),
		zap.Int("new_unique", c.NewUnique),
		zap.Int("imports_succeeded", c.ImportsSucceeded),
		zap.Int("imports_failed", c.ImportsFailed),
	}
}

// Log writes the counters as one structured log line.
func (c Counters) Log(variant string) {
	zap.L().Info("run complete", append([]zap.Field{zap.String("variant", variant)}, c.Fields()...)...)
}

// Scope restricts a summary. Zero values mean no restriction.
type Scope struct {
	RegionCode string
	Indoor     *bool
}

func (s Scope) matches(r venue.Record) bool {
	if s.RegionCode != "" && !venue.MatchesRegion(r.City, s.RegionCode) {
		return false
	}
	if s.Indoor != nil && r.Indoor != *s.Indoor {
		return false
	}
	return true
}

// Count is one row of a breakdown.
type Count struct {
	Key string
	N   int
}

// Unset labels records without a venue type.
const Unset = "(unset)"

// Summary is a breakdown of the persisted set.
type Summary struct {
	Total       int
	ByCity      []Count
	ByVenueType []Count
}

// Summarize groups the records in scope by city and venue type. Cities are
// ordered by count, then name; venue types follow the taxonomy order with
// unclassified records last.
func Summarize(records []venue.Record, scope Scope) Summary {
	cities := map[string]int{}
	types := map[string]int{}
	var s Summary
	for _, r := range records {
		if !scope.matches(r) {
			continue
		}
		s.Total++
		city := r.City
		if city == "" {
			city = "(unknown)"
		}
		cities[city]++
		if r.VenueType == "" {
			types[Unset]++
		} else {
			types[string(r.VenueType)]++
		}
	}

	for k, n := range cities {
		s.ByCity = append(s.ByCity, Count{Key: k, N: n})
	}
	sort.Slice(s.ByCity, func(i, j int) bool {
		if s.ByCity[i].N != s.ByCity[j].N {
			return s.ByCity[i].N > s.ByCity[j].N
		}
		return s.ByCity[i].Key < s.ByCity[j].Key
	})

	for _, vt := range venue.VenueTypes {
		if n := types[string(vt)]; n > 0 {
			s.ByVenueType = append(s.ByVenueType, Count{Key: string(vt), N: n})
			delete(types, string(vt))
		}
	}
	if n := types[Unset]; n > 0 {
		s.ByVenueType = append(s.ByVenueType, Count{Key: Unset, N: n})
		delete(types, Unset)
	}
	// Labels outside the taxonomy written by other tooling.
	var rest []string
	for k := range types {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	for _, k := range rest {
		s.ByVenueType = append(s.ByVenueType, Count{Key: k, N: types[k]})
	}
	return s
}

// Render writes the counters and summary tables to w. A nil counters value
// renders only the summary.
func Render(w io.Writer, c *Counters, s Summary) {
	if c != nil {
		t := newTable(w)
		t.SetTitle("Run")
		t.AppendHeader(table.Row{"Counter", "Value"})
		t.AppendRows([]table.Row{
			{"Queries issued", c.QueriesIssued},
			{"Queries failed", c.QueriesFailed},
			{"Raw results", c.RawResults},
			{"Missing coordinates", c.MissingCoordinates},
			{"Filtered out", c.Filtered},
			{"Duplicates (in run)", c.DuplicatesInRun},
			{"Duplicates (existing)", c.DuplicatesExisting},
			{"Region mismatch", c.RegionMismatch},
			{"New unique", c.NewUnique},
			{"Imports succeeded", c.ImportsSucceeded},
			{"Imports failed", c.ImportsFailed},
		})
		t.Render()
	}

	t := newTable(w)
	t.SetTitle("Venue types")
	t.AppendHeader(table.Row{"Type", "Venues"})
	for _, row := range s.ByVenueType {
		t.AppendRow(table.Row{row.Key, row.N})
	}
	t.AppendFooter(table.Row{"Total", s.Total})
	t.Render()

	t = newTable(w)
	t.SetTitle("Cities")
	t.AppendHeader(table.Row{"City", "Venues"})
	for _, row := range s.ByCity {
		t.AppendRow(table.Row{row.Key, row.N})
	}
	t.AppendFooter(table.Row{"Cities", fmt.Sprintf("%d", len(s.ByCity))})
	t.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}
