package importer

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/courtscout/internal/geo"
)

// KeyMode selects which attributes form a venue's stable key.
type KeyMode string

const (
	// KeyNameRegion keys on (name, "City, ST").
	KeyNameRegion KeyMode = "name_region"
	// KeyNameCoords keys on (name, rounded coordinates).
	KeyNameCoords KeyMode = "name_coords"
)

// Namespace is the UUIDv5 namespace for venue ids.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://courtscout.dev/venue"))

// StableKey returns the normalized key that DeriveID hashes.
func StableKey(mode KeyMode, name, regionLabel string, lat, lng float64) string {
	n := normalize(name)
	switch mode {
	case KeyNameCoords:
		return n + "|" + strconv.FormatFloat(lat, 'f', geo.BucketPrecision, 64) + "," + strconv.FormatFloat(lng, 'f', geo.BucketPrecision, 64)
	default:
		return n + "|" + normalize(regionLabel)
	}
}

// DeriveID returns a deterministic UUID-shaped id for a venue.
func DeriveID(mode KeyMode, name, regionLabel string, lat, lng float64) string {
	return uuid.NewSHA1(Namespace, []byte(StableKey(mode, name, regionLabel, lat, lng))).String()
}

// normalize applies NFC, lower-cases and collapses whitespace.
func normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
