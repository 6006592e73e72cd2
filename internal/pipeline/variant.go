package pipeline

import (
	"github.com/sells-group/courtscout/internal/importer"
	"github.com/sells-group/courtscout/internal/venue"
)

// Variant fixes the per-run policy: which region, which indoor value, how
// strict the dedup threshold is and how ids are keyed.
type Variant struct {
	Name        string
	RegionCode  string
	Indoor      bool
	Source      venue.Source
	ThresholdKM float64
	KeyMode     importer.KeyMode
	// Filter applies the inclusion filter to candidates.
	Filter bool
	// FixedType, when set, replaces name-based venue typing.
	FixedType venue.VenueType
}

// Places is the indoor text-search variant.
func Places(regionCode string, thresholdKM float64) Variant {
	return Variant{
		Name:        "places",
		RegionCode:  regionCode,
		Indoor:      true,
		Source:      venue.SourceGoogle,
		ThresholdKM: thresholdKM,
		KeyMode:     importer.KeyNameRegion,
		Filter:      true,
	}
}

// OSM is the outdoor tag-query variant. Tag queries already select courts so
// no inclusion filter is applied.
func OSM(regionCode string, thresholdKM float64) Variant {
	return Variant{
		Name:        "osm",
		RegionCode:  regionCode,
		Indoor:      false,
		Source:      venue.SourceOSM,
		ThresholdKM: thresholdKM,
		KeyMode:     importer.KeyNameCoords,
		FixedType:   venue.TypeOutdoor,
	}
}

// Curated imports hand-maintained seed lists.
func Curated(regionCode string, indoor bool, thresholdKM float64) Variant {
	return Variant{
		Name:        "curated",
		RegionCode:  regionCode,
		Indoor:      indoor,
		Source:      venue.SourceCurated,
		ThresholdKM: thresholdKM,
		KeyMode:     importer.KeyNameRegion,
	}
}
