package hotspot

import (
	"github.com/uber/h3-go/v4"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
)

// Supported H3 resolutions.
const (
	MinResolution     = 0
	MaxResolution     = 15
	DefaultResolution = 7
)

// ValidateResolution rejects resolutions the H3 grid does not define.
func ValidateResolution(resolution int) error {
	if resolution < MinResolution || resolution > MaxResolution {
		return &domain.ConfigurationError{
			Setting: "H3 resolution",
			Value:   resolution,
			Reason:  "must be between 0 and 15",
		}
	}
	return nil
}

// CellFor maps a coordinate to its cell at the given resolution. The
// resolution must already be validated.
func CellFor(lat, lon float64, resolution int) domain.CellID {
	cell := h3.LatLngToCell(h3.NewLatLng(lat, lon), resolution)
	return domain.CellID(cell.String())
}

// ParseCell converts a cell string back to an H3 cell. ok is false for
// strings that are not valid cell indexes.
func ParseCell(id domain.CellID) (h3.Cell, bool) {
	cell := h3.Cell(h3.IndexFromString(string(id)))
	if !cell.IsValid() {
		return 0, false
	}
	return cell, true
}

// CellCenter returns the canonical centroid of a cell.
func CellCenter(id domain.CellID) (domain.LatLng, bool) {
	cell, ok := ParseCell(id)
	if !ok {
		return domain.LatLng{}, false
	}
	ll := h3.CellToLatLng(cell)
	return domain.LatLng{Lat: ll.Lat, Lon: ll.Lng}, true
}

// CellBoundary returns the polygon vertices of a cell, counter-clockwise.
func CellBoundary(id domain.CellID) ([]domain.LatLng, bool) {
	cell, ok := ParseCell(id)
	if !ok {
		return nil, false
	}
	boundary := h3.CellToBoundary(cell)
	out := make([]domain.LatLng, len(boundary))
	for i, ll := range boundary {
		out[i] = domain.LatLng{Lat: ll.Lat, Lon: ll.Lng}
	}
	return out, true
}
