package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/observability"
)

// ContextEnricher derives the location and disaster context of a report and
// optionally refines the location through a geocoder.
type ContextEnricher struct {
	extractor *domain.ContextExtractor
	geocoder  domain.Geocoder
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewContextEnricher creates an enricher. Pass a nil recognizer to skip
// named-entity lookup and a nil geocoder to disable geocoding.
func NewContextEnricher(recognizer domain.EntityRecognizer, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *ContextEnricher {
	return &ContextEnricher{
		extractor: domain.NewContextExtractor(recognizer),
		geocoder:  geocoder,
		logger:    logger,
		metrics:   metrics,
	}
}

func (e *ContextEnricher) Enrich(ctx context.Context, r domain.Report) domain.ContextResult {
	result := e.extractor.Extract(r)
	e.metrics.ContextExtractions.WithLabelValues(result.LocationSource).Inc()
	return domain.EnrichWithGeocoding(ctx, r, result, e.geocoder, e.logger)
}
