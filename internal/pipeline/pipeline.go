// Package pipeline wires the report source, the hex aggregator, context
// extraction and visual enrichment into the operations the story API serves.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/hotspot"
	"github.com/couchcryptid/disaster-hotspots/internal/observability"
	"github.com/couchcryptid/disaster-hotspots/internal/store"
)

// ErrNotLoaded is returned by queries issued before Load succeeds.
var ErrNotLoaded = errors.New("reports not loaded")

const (
	publishAttempts = 3
	initialBackoff  = 200 * time.Millisecond
	maxBackoff      = 2 * time.Second
)

// ReportSource loads the full report table.
type ReportSource interface {
	Load(ctx context.Context) (store.LoadResult, error)
}

// SummaryPublisher ships hotspot summaries downstream.
type SummaryPublisher interface {
	PublishSummaries(ctx context.Context, summaries []domain.HotspotSummary) error
}

// VisualFetcher finds and stores images for a hotspot.
type VisualFetcher interface {
	FetchVisuals(ctx context.Context, keywords []string, location string, limit int) ([]string, error)
}

// HotspotDetail is everything the final chapter shows for one selection.
type HotspotDetail struct {
	Cell        domain.CellID        `json:"h3_index"`
	Found       bool                 `json:"found"`
	ReportCount int                  `json:"report_count"`
	Center      *domain.LatLng       `json:"center,omitempty"`
	Report      domain.Report        `json:"report"`
	Context     domain.ContextResult `json:"context"`
	Visuals     []string             `json:"visuals"`
}

// Options tunes a Pipeline.
type Options struct {
	Resolution   int
	VisualsLimit int
}

// Pipeline holds the aggregate built from the last successful load. The
// aggregate is immutable once published, so queries read it without locks.
type Pipeline struct {
	source    ReportSource
	enricher  *ContextEnricher
	fetcher   VisualFetcher
	publisher SummaryPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options

	agg   atomic.Pointer[hotspot.Aggregate]
	ready atomic.Bool
}

// New creates a Pipeline. fetcher and publisher may be nil.
func New(source ReportSource, enricher *ContextEnricher, fetcher VisualFetcher, publisher SummaryPublisher, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	return &Pipeline{
		source:    source,
		enricher:  enricher,
		fetcher:   fetcher,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// CheckReadiness returns nil once reports have been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return ErrNotLoaded
	}
	return nil
}

// Load reads the report table, aggregates it and publishes the summaries.
// A publish failure is logged but does not fail the load.
func (p *Pipeline) Load(ctx context.Context) error {
	start := time.Now()

	result, err := p.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load reports: %w", err)
	}
	agg, err := hotspot.Build(result.Reports, p.opts.Resolution)
	if err != nil {
		return err
	}

	p.agg.Store(agg)
	p.ready.Store(true)
	p.metrics.ReportsLoaded.Set(float64(agg.Len()))
	p.metrics.ReportsSkipped.Set(float64(len(result.Skipped)))
	p.metrics.HotspotCount.Set(float64(len(agg.Counts())))
	p.metrics.PipelineReady.Set(1)

	p.logger.Info("hotspots aggregated",
		"reports", agg.Len(),
		"cells", len(agg.Counts()),
		"resolution", agg.Resolution(),
		"duration", time.Since(start),
	)

	if p.publisher != nil {
		p.publish(ctx, agg)
	}
	return nil
}

func (p *Pipeline) publish(ctx context.Context, agg *hotspot.Aggregate) {
	ranked := agg.Ranked()
	summaries := make([]domain.HotspotSummary, 0, len(ranked))
	for _, c := range ranked {
		summaries = append(summaries, domain.NewHotspotSummary(c, agg.Resolution()))
	}

	backoff := initialBackoff
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err := p.publisher.PublishSummaries(ctx, summaries)
		if err == nil {
			p.metrics.SummariesPublished.Add(float64(len(summaries)))
			return
		}
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish summaries failed", "attempt", attempt, "error", err)
		if attempt == publishAttempts || !retry.SleepWithContext(ctx, backoff) {
			return
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

// Aggregate returns the current aggregate.
func (p *Pipeline) Aggregate() (*hotspot.Aggregate, error) {
	agg := p.agg.Load()
	if agg == nil {
		return nil, ErrNotLoaded
	}
	return agg, nil
}

// Hotspots lists cells by descending report count.
func (p *Pipeline) Hotspots() ([]domain.CellAggregate, error) {
	agg, err := p.Aggregate()
	if err != nil {
		return nil, err
	}
	return agg.Ranked(), nil
}

// MapView renders the hex layer with cell highlighted. An empty or unknown
// cell yields the overview.
func (p *Pipeline) MapView(cell domain.CellID) (hotspot.MapView, error) {
	agg, err := p.Aggregate()
	if err != nil {
		return hotspot.MapView{}, err
	}
	return hotspot.BuildMapView(agg, cell), nil
}

// Hotspot resolves a selection: the first report in the cell (or the first
// report overall when the cell is unknown), its context, and visuals found
// for that context. A failed image search degrades to no visuals.
func (p *Pipeline) Hotspot(ctx context.Context, cell domain.CellID) (HotspotDetail, error) {
	start := time.Now()
	defer func() { p.metrics.HotspotRequestDuration.Observe(time.Since(start).Seconds()) }()

	agg, err := p.Aggregate()
	if err != nil {
		return HotspotDetail{}, err
	}
	reports, found := agg.Select(cell)
	if len(reports) == 0 {
		return HotspotDetail{}, fmt.Errorf("hotspot %s: %w", cell, domain.ErrNotFound)
	}

	detail := HotspotDetail{Cell: cell, Found: found, Report: reports[0], Visuals: []string{}}
	if found {
		c, _ := agg.Lookup(cell)
		detail.ReportCount = c.ReportCount
		detail.Center = &c.Center
	}
	detail.Context = p.enricher.Enrich(ctx, detail.Report)

	if p.fetcher == nil {
		return detail, nil
	}
	visuals, err := p.fetcher.FetchVisuals(ctx, []string{detail.Context.DisasterContext}, detail.Context.SearchLocation(), p.opts.VisualsLimit)
	if err != nil {
		p.logger.Warn("visual search failed", "cell", cell, "error", err)
		return detail, nil
	}
	detail.Visuals = visuals
	return detail, nil
}
