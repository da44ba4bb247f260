package hotspot

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
)

// Map zoom levels.
const (
	OverviewZoom = 7
	SelectedZoom = 12
)

// Hexagon styling, carried as feature properties for the map client.
const (
	SelectedFill = "red"
	DefaultFill  = "orange"
	StrokeColor  = "black"
	StrokeWeight = 2
	FillOpacity  = 0.6
)

// MapView is everything a map client needs to draw the hotspot layer.
type MapView struct {
	Center   domain.LatLng              `json:"center"`
	Zoom     int                        `json:"zoom"`
	Selected domain.CellID              `json:"selected,omitempty"`
	Features *geojson.FeatureCollection `json:"features"`
}

// BuildMapView draws one polygon feature per non-empty cell, ordered by
// report count. When selected names a known cell the view is centered on
// it and zoomed in; otherwise it shows the overview around the mean report
// position.
func BuildMapView(agg *Aggregate, selected domain.CellID) MapView {
	view := MapView{
		Zoom:     OverviewZoom,
		Features: geojson.NewFeatureCollection(),
	}
	if center, ok := agg.MeanCenter(); ok {
		view.Center = center
	}
	if cell, ok := agg.Lookup(selected); ok {
		view.Center = cell.Center
		view.Zoom = SelectedZoom
		view.Selected = selected
	}

	for _, cell := range agg.Ranked() {
		boundary, ok := agg.Boundary(cell.Cell)
		if !ok {
			continue
		}
		view.Features.Append(hexFeature(cell, boundary, cell.Cell == view.Selected))
	}
	return view
}

func hexFeature(cell domain.CellAggregate, boundary []domain.LatLng, selected bool) *geojson.Feature {
	ring := make(orb.Ring, 0, len(boundary)+1)
	for _, ll := range boundary {
		ring = append(ring, orb.Point{ll.Lon, ll.Lat})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}

	f := geojson.NewFeature(orb.Polygon{ring})
	f.ID = string(cell.Cell)
	fill := DefaultFill
	if selected {
		fill = SelectedFill
	}
	f.Properties["h3_index"] = string(cell.Cell)
	f.Properties["report_count"] = cell.ReportCount
	f.Properties["selected"] = selected
	f.Properties["fillColor"] = fill
	f.Properties["color"] = StrokeColor
	f.Properties["weight"] = StrokeWeight
	f.Properties["fillOpacity"] = FillOpacity
	f.Properties["tooltip"] = fmt.Sprintf("Reports: %d<br>H3 Index: %s", cell.ReportCount, cell.Cell)
	return f
}
