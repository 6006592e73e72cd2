// Package venue defines the candidate and persisted record types shared by
// every stage of the discovery pipeline.
package venue

import (
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
)

// VenueType is the taxonomy label assigned to a persisted record.
type VenueType string

// Venue types. An empty VenueType means the record has not been classified.
const (
	TypeSchool    VenueType = "school"
	TypeCollege   VenueType = "college"
	TypeRecCenter VenueType = "rec_center"
	TypeGym       VenueType = "gym"
	TypeOutdoor   VenueType = "outdoor"
	TypeOther     VenueType = "other"
)

// VenueTypes lists every assignable venue type in reporting order.
var VenueTypes = []VenueType{TypeSchool, TypeCollege, TypeRecCenter, TypeGym, TypeOutdoor, TypeOther}

// Valid reports whether t is a known venue type.
func (t VenueType) Valid() bool {
	for _, v := range VenueTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Access describes who can use a venue.
type Access string

// Access tiers.
const (
	AccessPublic  Access = "public"
	AccessMembers Access = "members"
	AccessPrivate Access = "private"
	AccessPaid    Access = "paid"
)

// Valid reports whether a is a known access tier.
func (a Access) Valid() bool {
	switch a {
	case AccessPublic, AccessMembers, AccessPrivate, AccessPaid:
		return true
	}
	return false
}

// Source is the provenance tag of a record.
type Source string

// Record sources.
const (
	SourceCurated Source = "curated"
	SourceGoogle  Source = "google"
	SourceOSM     Source = "osm"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceCurated, SourceGoogle, SourceOSM:
		return true
	}
	return false
}

// Candidate is an unconfirmed search result held in memory for one run.
type Candidate struct {
	Name             string
	Location         *orb.Point // nil when the provider returned no coordinates
	FormattedAddress string
	Types            []string
	RegionLabel      string
	// Tags carries raw provider attributes (OSM tags, Places id).
	Tags map[string]string
}

// HasLocation reports whether the candidate carries coordinates.
func (c Candidate) HasLocation() bool {
	return c.Location != nil
}

// HasType reports whether the candidate is tagged with any of the given
// category strings.
func (c Candidate) HasType(allowed map[string]bool) bool {
	for _, t := range c.Types {
		if allowed[t] {
			return true
		}
	}
	return false
}

// Record is a venue persisted in the backing store.
type Record struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Address   string    `json:"address,omitempty"`
	Indoor    bool      `json:"indoor"`
	Access    Access    `json:"access"`
	VenueType VenueType `json:"venue_type,omitempty"`
	Source    Source    `json:"source"`
}

// Point returns the record's coordinates as an orb.Point.
func (r Record) Point() orb.Point {
	return orb.Point{r.Lng, r.Lat}
}

// Validate checks the fields the store requires.
func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.ID) == "":
		return eris.New("venue: id is required")
	case strings.TrimSpace(r.Name) == "":
		return eris.New("venue: name is required")
	case math.IsNaN(r.Lat) || math.IsNaN(r.Lng) || r.Lat < -90 || r.Lat > 90 || r.Lng < -180 || r.Lng > 180:
		return eris.Errorf("venue: coordinates out of range (%f, %f)", r.Lat, r.Lng)
	case !r.Access.Valid():
		return eris.Errorf("venue: invalid access %q", r.Access)
	case r.VenueType != "" && !r.VenueType.Valid():
		return eris.Errorf("venue: invalid venue type %q", r.VenueType)
	case !r.Source.Valid():
		return eris.Errorf("venue: invalid source %q", r.Source)
	}
	return nil
}
