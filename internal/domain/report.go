package domain

import (
	"strings"
	"time"
)

// Report is one geocoded social-media post. Index is the zero-based data row
// in the source table.
type Report struct {
	Index                 int     `json:"index"`
	Latitude              float64 `json:"latitude"`
	Longitude             float64 `json:"longitude"`
	Text                  string  `json:"text,omitempty"`
	AuthorProfileLocation string  `json:"author_profile_location,omitempty"`
	TweetGeo              string  `json:"tweet_geo,omitempty"`
}

// LatLng is a WGS-84 coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CellID is the string form of an H3 cell index.
type CellID string

// CellAggregate summarises the reports that fall into a single cell.
type CellAggregate struct {
	Cell          CellID `json:"h3_index"`
	ReportCount   int    `json:"report_count"`
	Center        LatLng `json:"center"`
	PointCentroid LatLng `json:"point_centroid"`
}

// Location sources recorded on a ContextResult.
const (
	LocationSourceTweetGeo = "tweet_geo"
	LocationSourceProfile  = "profile"
	LocationSourceEntity   = "entity"
	LocationSourceUnknown  = "unknown"
)

// ContextResult is the derived (location, disaster) pair for one report.
type ContextResult struct {
	LocationName    string `json:"location_name"`
	DisasterContext string `json:"disaster_context"`
	LocationSource  string `json:"location_source"`

	// Geocoding enrichment fields.
	PlaceName        string  `json:"place_name,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "forward", "reverse", "original", "failed"
}

// SearchLocation is the location string used for image search: the
// geocoded place name when enrichment found one, the resolved label otherwise.
func (c ContextResult) SearchLocation() string {
	if c.PlaceName != "" {
		return c.PlaceName
	}
	return c.LocationName
}

// HotspotSummary is the serialized form of a cell aggregate published to
// downstream consumers.
type HotspotSummary struct {
	Cell          CellID    `json:"h3_index"`
	Resolution    int       `json:"resolution"`
	ReportCount   int       `json:"report_count"`
	Center        LatLng    `json:"center"`
	PointCentroid LatLng    `json:"point_centroid"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// NewHotspotSummary stamps a cell aggregate with its resolution and the
// current time.
func NewHotspotSummary(agg CellAggregate, resolution int) HotspotSummary {
	return HotspotSummary{
		Cell:          agg.Cell,
		Resolution:    resolution,
		ReportCount:   agg.ReportCount,
		Center:        agg.Center,
		PointCentroid: agg.PointCentroid,
		GeneratedAt:   clock.Now().UTC(),
	}
}

// IsAbsent reports whether a raw table value should be treated as missing.
func IsAbsent(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, "nan")
}
