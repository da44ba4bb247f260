// Package store loads the flat-file inputs of the hotspot service: the
// geocoded report table and the optional tweet listing and pre-rendered map
// document.
package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
)

// Report table columns.
const (
	ColumnLatitude              = "latitude"
	ColumnLongitude             = "longitude"
	ColumnText                  = "text"
	ColumnAuthorProfileLocation = "author_profile_location"
	ColumnTweetGeo              = "tweet_geo"
)

// RequiredColumns must all be present in the header row.
var RequiredColumns = []string{
	ColumnLatitude, ColumnLongitude, ColumnText, ColumnAuthorProfileLocation, ColumnTweetGeo,
}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// SkippedRow records a data row that could not become a report.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// LoadResult is the outcome of reading a report table. Report.Index is the
// zero-based data row, so indexes stay stable when rows are skipped.
type LoadResult struct {
	Reports []domain.Report
	Skipped []SkippedRow
}

// ReadReports parses a report table. Column names are matched
// case-insensitively and extra columns are ignored. Rows with unusable
// coordinates are skipped and listed in the result.
func ReadReports(r io.Reader) (LoadResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return LoadResult{}, fmt.Errorf("empty report table: %w", domain.ErrNotFound)
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, want := range RequiredColumns {
		if _, ok := cols[want]; !ok {
			return LoadResult{}, fmt.Errorf("%w: %s", ErrMissingColumn, want)
		}
	}

	field := func(row []string, name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	var result LoadResult
	for idx := 0; ; idx++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		lat, err := parseCoordinate(field(row, ColumnLatitude), 90)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: "latitude: " + err.Error()})
			continue
		}
		lon, err := parseCoordinate(field(row, ColumnLongitude), 180)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: "longitude: " + err.Error()})
			continue
		}

		result.Reports = append(result.Reports, domain.Report{
			Index:                 idx,
			Latitude:              lat,
			Longitude:             lon,
			Text:                  normalizeOptional(field(row, ColumnText)),
			AuthorProfileLocation: normalizeOptional(field(row, ColumnAuthorProfileLocation)),
			TweetGeo:              normalizeOptional(field(row, ColumnTweetGeo)),
		})
	}
	return result, nil
}

// LoadReports reads the report table at path. A missing file wraps
// domain.ErrNotFound.
func LoadReports(path string) (LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LoadResult{}, fmt.Errorf("report table %s: %w", path, domain.ErrNotFound)
		}
		return LoadResult{}, fmt.Errorf("open report table: %w", err)
	}
	defer f.Close()

	result, err := ReadReports(f)
	if err != nil {
		return result, fmt.Errorf("report table %s: %w", path, err)
	}
	return result, nil
}

// CSVSource loads reports from a CSV file and logs skipped rows.
type CSVSource struct {
	path   string
	logger *slog.Logger
}

// NewCSVSource creates a report source backed by the file at path.
func NewCSVSource(path string, logger *slog.Logger) *CSVSource {
	return &CSVSource{path: path, logger: logger}
}

// Load reads the full report set.
func (s *CSVSource) Load(ctx context.Context) (LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return LoadResult{}, err
	}
	result, err := LoadReports(s.path)
	if err != nil {
		return LoadResult{}, err
	}
	for _, sk := range result.Skipped {
		s.logger.Warn("skipping report row", "path", s.path, "line", sk.Line, "reason", sk.Reason)
	}
	s.logger.Info("reports loaded", "path", s.path, "reports", len(result.Reports), "skipped", len(result.Skipped))
	return result, nil
}

func parseCoordinate(raw string, limit float64) (float64, error) {
	v := strings.TrimSpace(raw)
	if domain.IsAbsent(v) {
		return 0, errors.New("missing")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < -limit || f > limit {
		return 0, fmt.Errorf("out of range: %v", f)
	}
	return f, nil
}

// normalizeOptional maps absent markers to the empty string.
func normalizeOptional(raw string) string {
	if domain.IsAbsent(raw) {
		return ""
	}
	return raw
}
