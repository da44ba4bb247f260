package hotspot

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMapView_Overview(t *testing.T) {
	agg, err := Build(sampleReports(), DefaultResolution)
	require.NoError(t, err)

	view := BuildMapView(agg, "")

	mean, _ := agg.MeanCenter()
	assert.Equal(t, OverviewZoom, view.Zoom)
	assert.Equal(t, mean, view.Center)
	assert.Empty(t, view.Selected)
	require.Len(t, view.Features.Features, len(agg.Counts()))

	for _, f := range view.Features.Features {
		assert.Equal(t, DefaultFill, f.Properties["fillColor"])
		assert.Equal(t, false, f.Properties["selected"])
	}
}

func TestBuildMapView_Selected(t *testing.T) {
	agg, err := Build(sampleReports(), DefaultResolution)
	require.NoError(t, err)

	chennai := CellFor(13.0827, 80.2707, DefaultResolution)
	view := BuildMapView(agg, chennai)

	center, _ := CellCenter(chennai)
	assert.Equal(t, SelectedZoom, view.Zoom)
	assert.Equal(t, center, view.Center)
	assert.Equal(t, chennai, view.Selected)

	red := 0
	for _, f := range view.Features.Features {
		if f.Properties["fillColor"] == SelectedFill {
			red++
			assert.Equal(t, string(chennai), f.Properties["h3_index"])
			assert.Equal(t, 2, f.Properties["report_count"])
			assert.Equal(t, true, f.Properties["selected"])
		}
	}
	assert.Equal(t, 1, red)
}

func TestBuildMapView_UnknownSelectionShowsOverview(t *testing.T) {
	agg, err := Build(sampleReports(), DefaultResolution)
	require.NoError(t, err)

	view := BuildMapView(agg, CellFor(51.5074, -0.1278, DefaultResolution))
	assert.Equal(t, OverviewZoom, view.Zoom)
	assert.Empty(t, view.Selected)
}

func TestBuildMapView_ClosedPolygons(t *testing.T) {
	agg, err := Build(sampleReports(), DefaultResolution)
	require.NoError(t, err)

	view := BuildMapView(agg, "")
	for _, f := range view.Features.Features {
		poly, ok := f.Geometry.(orb.Polygon)
		require.True(t, ok)
		require.Len(t, poly, 1)
		ring := poly[0]
		assert.True(t, ring.Closed())
	}
}

func TestBuildMapView_Empty(t *testing.T) {
	agg, err := Build(nil, DefaultResolution)
	require.NoError(t, err)

	view := BuildMapView(agg, "")
	assert.Empty(t, view.Features.Features)

	raw, err := json.Marshal(view.Features)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(raw))
}

func TestRenderMapDocument(t *testing.T) {
	agg, err := Build(sampleReports(), DefaultResolution)
	require.NoError(t, err)

	kolkata := CellFor(22.5726, 88.3639, DefaultResolution)
	var buf bytes.Buffer
	require.NoError(t, RenderMapDocument(&buf, "Hotspots <India>", BuildMapView(agg, kolkata)))

	doc := buf.String()
	assert.Contains(t, doc, "<title>Hotspots &lt;India&gt;</title>")
	assert.Contains(t, doc, "L.geoJSON(")
	assert.Contains(t, doc, string(kolkata))
	assert.Contains(t, doc, `"fillColor":"red"`)
}
