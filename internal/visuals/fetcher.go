// Package visuals fetches contextual images for a hotspot: one web image
// search, then a bounded, sequential download-verify-store loop that skips
// bad candidates instead of failing the batch.
package visuals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-hotspots/internal/observability"
)

// DefaultLimit caps the candidates attempted when the caller passes no limit.
const DefaultLimit = 5

// SearchResult is one image search hit.
type SearchResult struct {
	ImageURL  string `json:"image"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Title     string `json:"title,omitempty"`
	Source    string `json:"source,omitempty"`
}

// ImageSearcher runs a web image search.
type ImageSearcher interface {
	SearchImages(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Downloader fetches the bytes behind a URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// ImageStore persists a verified image under name and returns its path or
// object key. A save replaces whatever was stored under the same stem, even
// when the extension differs.
type ImageStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// Fetcher implements the search, download, verify and store loop.
type Fetcher struct {
	searcher   ImageSearcher
	downloader Downloader
	store      ImageStore
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewFetcher creates a Fetcher.
func NewFetcher(searcher ImageSearcher, downloader Downloader, store ImageStore, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		searcher:   searcher,
		downloader: downloader,
		store:      store,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchVisuals searches for images matching the keywords and location and
// stores up to limit of them, in search-result order. A search with no
// results returns an empty slice and no error. Individual download, verify
// or store failures are logged and skipped, so fewer than limit paths may
// come back. Only a failed search is returned as an error.
func (f *Fetcher) FetchVisuals(ctx context.Context, keywords []string, location string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	query := BuildQuery(keywords, location)

	start := time.Now()
	results, err := f.searcher.SearchImages(ctx, query, limit)
	f.metrics.ImageSearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		f.metrics.ImageSearches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search images %q: %w", query, err)
	}

	paths := make([]string, 0, limit)
	if len(results) == 0 {
		f.metrics.ImageSearches.WithLabelValues("empty").Inc()
		f.logger.Info("no images found", "query", query)
		return paths, nil
	}
	f.metrics.ImageSearches.WithLabelValues("results").Inc()

	prefix := LocationPrefix(location)
	for i, result := range results {
		if i >= limit {
			break
		}
		path, err := f.fetchOne(ctx, result, prefix, i)
		if err != nil {
			f.logger.Warn("skipping image candidate",
				"query", query,
				"index", i,
				"url", result.ImageURL,
				"error", err,
			)
			continue
		}
		paths = append(paths, path)
	}

	f.logger.Info("visuals fetched",
		"query", query,
		"location", location,
		"candidates", min(len(results), limit),
		"saved", len(paths),
	)
	return paths, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, result SearchResult, prefix string, index int) (string, error) {
	if result.ImageURL == "" {
		f.metrics.VisualDownloads.WithLabelValues("download_error").Inc()
		return "", errors.New("result has no image url")
	}

	data, err := f.downloader.Download(ctx, result.ImageURL)
	if err != nil {
		f.metrics.VisualDownloads.WithLabelValues("download_error").Inc()
		return "", fmt.Errorf("download: %w", err)
	}

	format, err := VerifyImage(data)
	if err != nil {
		f.metrics.VisualDownloads.WithLabelValues("invalid_image").Inc()
		return "", err
	}

	path, err := f.store.Save(ctx, FileName(prefix, index, Extension(format)), data)
	if err != nil {
		f.metrics.VisualDownloads.WithLabelValues("store_error").Inc()
		return "", fmt.Errorf("store: %w", err)
	}
	f.metrics.VisualDownloads.WithLabelValues("saved").Inc()
	return path, nil
}
