package hotspot

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
)

// Aggregate buckets a report set into H3 cells. It is built once from the
// full report set and is safe for concurrent reads afterwards.
type Aggregate struct {
	resolution int
	reports    []domain.Report
	cellOf     []domain.CellID
	byCell     map[domain.CellID]*cellState
	order      []domain.CellID // first-seen order
}

type cellState struct {
	agg     domain.CellAggregate
	members []int
	sum     r3.Vector
}

// Build assigns every report to its cell at the given resolution and
// computes per-cell counts and centers. An empty report set yields an empty
// aggregate.
func Build(reports []domain.Report, resolution int) (*Aggregate, error) {
	if err := ValidateResolution(resolution); err != nil {
		return nil, err
	}

	a := &Aggregate{
		resolution: resolution,
		reports:    append([]domain.Report(nil), reports...),
		cellOf:     make([]domain.CellID, len(reports)),
		byCell:     make(map[domain.CellID]*cellState),
	}

	for i, r := range a.reports {
		id := CellFor(r.Latitude, r.Longitude, resolution)
		a.cellOf[i] = id

		st, ok := a.byCell[id]
		if !ok {
			center, _ := CellCenter(id)
			st = &cellState{agg: domain.CellAggregate{Cell: id, Center: center}}
			a.byCell[id] = st
			a.order = append(a.order, id)
		}
		st.agg.ReportCount++
		st.members = append(st.members, i)
		st.sum = st.sum.Add(s2.PointFromLatLng(s2.LatLngFromDegrees(r.Latitude, r.Longitude)).Vector)
	}

	for _, st := range a.byCell {
		st.agg.PointCentroid = sphericalMean(st.sum, st.agg.Center)
	}
	return a, nil
}

// sphericalMean projects a sum of unit vectors back onto the sphere. Points
// that cancel out (antipodal pairs) fall back to the given center.
func sphericalMean(sum r3.Vector, fallback domain.LatLng) domain.LatLng {
	if sum.Norm2() == 0 {
		return fallback
	}
	ll := s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})
	return domain.LatLng{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}
}

// Resolution returns the H3 resolution the aggregate was built at.
func (a *Aggregate) Resolution() int { return a.resolution }

// Len returns the number of reports.
func (a *Aggregate) Len() int { return len(a.reports) }

// Reports returns a copy of the report set in row order.
func (a *Aggregate) Reports() []domain.Report {
	return append([]domain.Report(nil), a.reports...)
}

// CellOf returns the cell of the report at row i.
func (a *Aggregate) CellOf(i int) (domain.CellID, bool) {
	if i < 0 || i >= len(a.cellOf) {
		return "", false
	}
	return a.cellOf[i], true
}

// Counts returns the number of reports per cell.
func (a *Aggregate) Counts() map[domain.CellID]int {
	out := make(map[domain.CellID]int, len(a.byCell))
	for id, st := range a.byCell {
		out[id] = st.agg.ReportCount
	}
	return out
}

// Centers returns the canonical centroid of every non-empty cell.
func (a *Aggregate) Centers() map[domain.CellID]domain.LatLng {
	out := make(map[domain.CellID]domain.LatLng, len(a.byCell))
	for id, st := range a.byCell {
		out[id] = st.agg.Center
	}
	return out
}

// Count returns the report count of a cell, zero when the cell is empty.
func (a *Aggregate) Count(cell domain.CellID) int {
	if st, ok := a.byCell[cell]; ok {
		return st.agg.ReportCount
	}
	return 0
}

// Lookup returns the aggregate for a single cell.
func (a *Aggregate) Lookup(cell domain.CellID) (domain.CellAggregate, bool) {
	st, ok := a.byCell[cell]
	if !ok {
		return domain.CellAggregate{}, false
	}
	return st.agg, true
}

// Cells returns every cell aggregate in first-seen order.
func (a *Aggregate) Cells() []domain.CellAggregate {
	out := make([]domain.CellAggregate, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byCell[id].agg)
	}
	return out
}

// Ranked returns every cell aggregate ordered by report count, highest
// first. Ties are broken by cell id so the order is stable across runs.
func (a *Aggregate) Ranked() []domain.CellAggregate {
	out := a.Cells()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ReportCount != out[j].ReportCount {
			return out[i].ReportCount > out[j].ReportCount
		}
		return out[i].Cell < out[j].Cell
	})
	return out
}

// Select returns the reports inside cell in row order. For a cell with no
// reports it returns the first report of the set as a default and false;
// an empty aggregate returns nil and false.
func (a *Aggregate) Select(cell domain.CellID) ([]domain.Report, bool) {
	st, ok := a.byCell[cell]
	if !ok {
		if len(a.reports) == 0 {
			return nil, false
		}
		return []domain.Report{a.reports[0]}, false
	}
	out := make([]domain.Report, len(st.members))
	for i, idx := range st.members {
		out[i] = a.reports[idx]
	}
	return out, true
}

// Boundary returns the hexagon vertices of a cell.
func (a *Aggregate) Boundary(cell domain.CellID) ([]domain.LatLng, bool) {
	return CellBoundary(cell)
}

// MeanCenter returns the arithmetic mean of all report coordinates, used as
// the overview map center.
func (a *Aggregate) MeanCenter() (domain.LatLng, bool) {
	if len(a.reports) == 0 {
		return domain.LatLng{}, false
	}
	var lat, lon float64
	for _, r := range a.reports {
		lat += r.Latitude
		lon += r.Longitude
	}
	n := float64(len(a.reports))
	return domain.LatLng{Lat: lat / n, Lon: lon / n}, true
}
