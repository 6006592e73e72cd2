// Package dedup decides whether a candidate is a new venue or a near-duplicate
// of one already seen in this run or already persisted.
package dedup

import (
	"github.com/paulmach/orb"

	"github.com/sells-group/courtscout/internal/geo"
	"github.com/sells-group/courtscout/internal/venue"
)

// Outcome is the result of a duplicate check.
type Outcome int

const (
	// Unique means no accumulated or persisted venue is within the threshold.
	Unique Outcome = iota
	// DuplicateInRun means a candidate accepted earlier in this run is within
	// the threshold.
	DuplicateInRun
	// DuplicateExisting means a persisted record is within the threshold.
	DuplicateExisting
	// NoLocation means the candidate has no coordinates to compare.
	NoLocation
)

func (o Outcome) String() string {
	switch o {
	case Unique:
		return "new"
	case DuplicateInRun:
		return "duplicate_in_run"
	case DuplicateExisting:
		return "duplicate_existing"
	case NoLocation:
		return "no_location"
	}
	return "unknown"
}

// bucketSpanKM bounds the distance between two points sharing a bucket.
const bucketSpanKM = 0.002

// Deduplicator holds the in-run candidate set and the persisted snapshot.
// The snapshot is fixed at construction. Not safe for concurrent use.
type Deduplicator struct {
	thresholdKM float64

	persisted        []orb.Point
	persistedBuckets map[geo.Bucket]struct{}

	inRun        []venue.Candidate
	inRunBuckets map[geo.Bucket]int
}

// New seeds a Deduplicator from persisted records. Records with missing or
// placeholder coordinates are skipped.
func New(persisted []venue.Record, thresholdKM float64) *Deduplicator {
	d := &Deduplicator{
		thresholdKM:      thresholdKM,
		persisted:        make([]orb.Point, 0, len(persisted)),
		persistedBuckets: make(map[geo.Bucket]struct{}, len(persisted)),
		inRunBuckets:     make(map[geo.Bucket]int),
	}
	for _, r := range persisted {
		if !geo.ValidCoordinates(r.Lat, r.Lng) {
			continue
		}
		p := r.Point()
		d.persisted = append(d.persisted, p)
		d.persistedBuckets[geo.BucketOf(p)] = struct{}{}
	}
	return d
}

// ThresholdKM returns the configured match distance.
func (d *Deduplicator) ThresholdKM() float64 { return d.thresholdKM }

// Persisted returns the number of usable persisted records.
func (d *Deduplicator) Persisted() int { return len(d.persisted) }

// InRun returns the candidates accepted so far, in insertion order.
func (d *Deduplicator) InRun() []venue.Candidate { return d.inRun }

// Check classifies c against the in-run set first, then the persisted set.
// It does not modify either set.
func (d *Deduplicator) Check(c venue.Candidate) Outcome {
	if !c.HasLocation() {
		return NoLocation
	}
	p := *c.Location

	fast := d.thresholdKM >= bucketSpanKM
	b := geo.BucketOf(p)

	if fast {
		if _, ok := d.inRunBuckets[b]; ok {
			return DuplicateInRun
		}
	}
	for _, e := range d.inRun {
		if geo.Within(p, *e.Location, d.thresholdKM) {
			return DuplicateInRun
		}
	}

	if fast {
		if _, ok := d.persistedBuckets[b]; ok {
			return DuplicateExisting
		}
	}
	for _, q := range d.persisted {
		if geo.Within(p, q, d.thresholdKM) {
			return DuplicateExisting
		}
	}
	return Unique
}

// Add inserts c into the in-run set. Candidates without coordinates are
// ignored.
func (d *Deduplicator) Add(c venue.Candidate) {
	if !c.HasLocation() {
		return
	}
	b := geo.BucketOf(*c.Location)
	if _, ok := d.inRunBuckets[b]; !ok {
		d.inRunBuckets[b] = len(d.inRun)
	}
	d.inRun = append(d.inRun, c)
}

// IsDuplicate reports whether c matches any in-run or persisted venue.
func (d *Deduplicator) IsDuplicate(c venue.Candidate) bool {
	o := d.Check(c)
	return o == DuplicateInRun || o == DuplicateExisting
}
