package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/hotspot"
	"github.com/couchcryptid/disaster-hotspots/internal/observability"
	"github.com/couchcryptid/disaster-hotspots/internal/pipeline"
	"github.com/couchcryptid/disaster-hotspots/internal/store"
)

// --- fakes ---

type staticSource struct {
	result store.LoadResult
	err    error
}

func (s staticSource) Load(context.Context) (store.LoadResult, error) { return s.result, s.err }

type fetchCall struct {
	keywords []string
	location string
	limit    int
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []fetchCall
	paths []string
	err   error
}

func (f *fakeFetcher) FetchVisuals(_ context.Context, keywords []string, location string, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{keywords, location, limit})
	return f.paths, f.err
}

type fakePublisher struct {
	batches [][]domain.HotspotSummary
	fails   int
}

func (f *fakePublisher) PublishSummaries(_ context.Context, s []domain.HotspotSummary) error {
	if f.fails > 0 {
		f.fails--
		return errors.New("broker unavailable")
	}
	f.batches = append(f.batches, s)
	return nil
}

type stubGeocoder struct{ place string }

func (g stubGeocoder) ForwardGeocode(context.Context, string, string) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{Lat: 1, Lon: 1, PlaceName: g.place, FormattedAddress: g.place + ", India"}, nil
}

func (g stubGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{PlaceName: g.place, FormattedAddress: g.place + ", India"}, nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var testReports = []domain.Report{
	{Index: 0, Latitude: 22.5726, Longitude: 88.3639, Text: "Cloud burst and flood in the city", AuthorProfileLocation: "Kolkata, West Bengal"},
	{Index: 1, Latitude: 13.0827, Longitude: 80.2707, Text: "Cyclone landfall expected", AuthorProfileLocation: "Chennai"},
	{Index: 2, Latitude: 13.0827, Longitude: 80.2707, Text: "Storm surge on the beach", AuthorProfileLocation: "Chennai"},
}

func newPipeline(t *testing.T, fetcher pipeline.VisualFetcher, publisher pipeline.SummaryPublisher, geocoder domain.Geocoder) (*pipeline.Pipeline, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	enricher := pipeline.NewContextEnricher(nil, geocoder, discardLogger(), metrics)
	source := staticSource{result: store.LoadResult{
		Reports: testReports,
		Skipped: []store.SkippedRow{{Line: 5, Reason: "invalid latitude"}},
	}}
	p := pipeline.New(source, enricher, fetcher, publisher, discardLogger(), metrics, pipeline.Options{Resolution: 7, VisualsLimit: 5})
	return p, metrics
}

// --- tests ---

func TestPipeline_NotReadyBeforeLoad(t *testing.T) {
	p, _ := newPipeline(t, nil, nil, nil)

	assert.ErrorIs(t, p.CheckReadiness(context.Background()), pipeline.ErrNotLoaded)
	_, err := p.Hotspots()
	assert.ErrorIs(t, err, pipeline.ErrNotLoaded)
	_, err = p.Hotspot(context.Background(), "x")
	assert.ErrorIs(t, err, pipeline.ErrNotLoaded)
	_, err = p.MapView("")
	assert.ErrorIs(t, err, pipeline.ErrNotLoaded)
}

func TestPipeline_Load(t *testing.T) {
	pub := &fakePublisher{}
	p, _ := newPipeline(t, nil, pub, nil)

	require.NoError(t, p.Load(context.Background()))
	require.NoError(t, p.CheckReadiness(context.Background()))

	hotspots, err := p.Hotspots()
	require.NoError(t, err)
	require.Len(t, hotspots, 2)
	assert.Equal(t, 2, hotspots[0].ReportCount)
	assert.Equal(t, hotspot.CellFor(13.0827, 80.2707, 7), hotspots[0].Cell)

	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 2)
	assert.Equal(t, 7, pub.batches[0][0].Resolution)
	assert.Equal(t, hotspots[0].Cell, pub.batches[0][0].Cell)
}

func TestPipeline_LoadRetriesPublish(t *testing.T) {
	pub := &fakePublisher{fails: 1}
	p, _ := newPipeline(t, nil, pub, nil)

	require.NoError(t, p.Load(context.Background()))
	assert.Len(t, pub.batches, 1)
}

func TestPipeline_LoadSourceError(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(staticSource{err: domain.ErrNotFound}, pipeline.NewContextEnricher(nil, nil, discardLogger(), metrics),
		nil, nil, discardLogger(), metrics, pipeline.Options{Resolution: 7})

	err := p.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_LoadInvalidResolution(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(staticSource{result: store.LoadResult{Reports: testReports}}, pipeline.NewContextEnricher(nil, nil, discardLogger(), metrics),
		nil, nil, discardLogger(), metrics, pipeline.Options{Resolution: 16})

	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, p.Load(context.Background()), &cfgErr)
}

func TestPipeline_Hotspot(t *testing.T) {
	fetcher := &fakeFetcher{paths: []string{"media/visuals/chennai_image_0.jpg"}}
	p, _ := newPipeline(t, fetcher, nil, nil)
	require.NoError(t, p.Load(context.Background()))

	cell := hotspot.CellFor(13.0827, 80.2707, 7)
	detail, err := p.Hotspot(context.Background(), cell)
	require.NoError(t, err)

	assert.True(t, detail.Found)
	assert.Equal(t, 2, detail.ReportCount)
	require.NotNil(t, detail.Center)
	assert.Equal(t, 1, detail.Report.Index, "first report in row order")
	assert.Equal(t, "Chennai", detail.Context.LocationName)
	assert.Equal(t, "cyclone", detail.Context.DisasterContext)
	assert.Equal(t, []string{"media/visuals/chennai_image_0.jpg"}, detail.Visuals)

	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, fetchCall{keywords: []string{"cyclone"}, location: "Chennai", limit: 5}, fetcher.calls[0])
}

func TestPipeline_HotspotUnknownCellUsesFirstReport(t *testing.T) {
	p, _ := newPipeline(t, &fakeFetcher{}, nil, nil)
	require.NoError(t, p.Load(context.Background()))

	detail, err := p.Hotspot(context.Background(), "not-a-cell")
	require.NoError(t, err)
	assert.False(t, detail.Found)
	assert.Nil(t, detail.Center)
	assert.Equal(t, 0, detail.Report.Index)
	assert.Equal(t, "Kolkata, West Bengal", detail.Context.LocationName)
	assert.Equal(t, "flood, cloud burst", detail.Context.DisasterContext)
}

func TestPipeline_HotspotSearchFailureDegrades(t *testing.T) {
	p, _ := newPipeline(t, &fakeFetcher{err: errors.New("search unavailable")}, nil, nil)
	require.NoError(t, p.Load(context.Background()))

	detail, err := p.Hotspot(context.Background(), hotspot.CellFor(22.5726, 88.3639, 7))
	require.NoError(t, err)
	assert.NotNil(t, detail.Visuals)
	assert.Empty(t, detail.Visuals)
}

func TestPipeline_HotspotUsesGeocodedPlace(t *testing.T) {
	fetcher := &fakeFetcher{}
	p, _ := newPipeline(t, fetcher, nil, stubGeocoder{place: "Kolkata"})
	require.NoError(t, p.Load(context.Background()))

	detail, err := p.Hotspot(context.Background(), hotspot.CellFor(22.5726, 88.3639, 7))
	require.NoError(t, err)
	assert.Equal(t, "forward", detail.Context.GeoSource)
	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, "Kolkata", fetcher.calls[0].location)
}

func TestPipeline_NoFetcher(t *testing.T) {
	p, _ := newPipeline(t, nil, nil, nil)
	require.NoError(t, p.Load(context.Background()))

	detail, err := p.Hotspot(context.Background(), hotspot.CellFor(22.5726, 88.3639, 7))
	require.NoError(t, err)
	assert.Empty(t, detail.Visuals)
}

func TestPipeline_MapView(t *testing.T) {
	p, _ := newPipeline(t, nil, nil, nil)
	require.NoError(t, p.Load(context.Background()))

	overview, err := p.MapView("")
	require.NoError(t, err)
	assert.Equal(t, hotspot.OverviewZoom, overview.Zoom)

	selected, err := p.MapView(hotspot.CellFor(22.5726, 88.3639, 7))
	require.NoError(t, err)
	assert.Equal(t, hotspot.SelectedZoom, selected.Zoom)
	assert.Len(t, selected.Features.Features, 2)
}
