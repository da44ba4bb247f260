// Command rendermap aggregates a report table into hexagonal hotspots and
// writes the hex layer as GeoJSON, the standalone Leaflet map document served
// at /api/map-document, and optionally a JSON fixture of hotspot summaries.
//
// Usage:
//
//	go run ./cmd/rendermap \
//	  -reports data/sample/reports.csv \
//	  -geojson-out media/hotspots.geojson \
//	  -html-out media/hotspot_map.html
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/hotspot"
	"github.com/couchcryptid/disaster-hotspots/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	reportsPath := flag.String("reports", "", "path to the reports CSV")
	resolution := flag.Int("resolution", hotspot.DefaultResolution, "H3 resolution (0-15)")
	cell := flag.String("cell", "", "cell to highlight; empty renders the overview")
	title := flag.String("title", "Disaster Hotspots", "map document title")
	geojsonOut := flag.String("geojson-out", "", "output path for the GeoJSON hex layer")
	htmlOut := flag.String("html-out", "", "output path for the HTML map document")
	summaryOut := flag.String("summary-out", "", "optional output path for hotspot summaries")
	flag.Parse()

	if *reportsPath == "" || (*geojsonOut == "" && *htmlOut == "") {
		flag.Usage()
		return errors.New("missing required flags: -reports and one of -geojson-out, -html-out")
	}

	loaded, err := store.LoadReports(*reportsPath)
	if err != nil {
		return err
	}
	for _, sk := range loaded.Skipped {
		log.Printf("skipped line %d: %s", sk.Line, sk.Reason)
	}

	agg, err := hotspot.Build(loaded.Reports, *resolution)
	if err != nil {
		return err
	}
	view := hotspot.BuildMapView(agg, domain.CellID(*cell))
	log.Printf("%d reports in %d cells at resolution %d", agg.Len(), len(agg.Counts()), agg.Resolution())

	if *geojsonOut != "" {
		data, err := view.Features.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode geojson: %w", err)
		}
		if err := writeFile(*geojsonOut, data); err != nil {
			return err
		}
		log.Printf("wrote %s", *geojsonOut)
	}

	if *htmlOut != "" {
		if err := writeMapDocument(*htmlOut, *title, view); err != nil {
			return err
		}
		log.Printf("wrote %s", *htmlOut)
	}

	if *summaryOut != "" {
		if err := writeSummaries(*summaryOut, agg); err != nil {
			return err
		}
		log.Printf("wrote %s", *summaryOut)
	}

	printTop(agg.Ranked(), 5)
	return nil
}

func writeMapDocument(path, title string, view hotspot.MapView) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := hotspot.RenderMapDocument(f, title, view); err != nil {
		f.Close()
		return fmt.Errorf("render map document: %w", err)
	}
	return f.Close()
}

// writeSummaries stamps summaries with a fixed clock so fixtures are
// reproducible.
func writeSummaries(path string, agg *hotspot.Aggregate) error {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	ranked := agg.Ranked()
	summaries := make([]domain.HotspotSummary, 0, len(ranked))
	for _, c := range ranked {
		summaries = append(summaries, domain.NewHotspotSummary(c, agg.Resolution()))
	}
	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // generated artifacts are world-readable
}

func printTop(ranked []domain.CellAggregate, n int) {
	fmt.Println("\n=== Top hotspots ===")
	for i, c := range ranked {
		if i == n {
			break
		}
		fmt.Printf("  %s  %3d reports  (%.4f, %.4f)\n", c.Cell, c.ReportCount, c.Center.Lat, c.Center.Lon)
	}
}
