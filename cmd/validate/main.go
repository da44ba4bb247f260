// Command validate performs integrity checks on a reports table and the
// optional alternate-app inputs: required columns, coordinate ranges, the
// hotspot count-sum invariant across H3 resolutions, cell/center round trips
// and context extraction coverage.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -reports data/sample/reports.csv \
//	  -tweets data/tweets.json \
//	  -map-document media/hotspot_map.html
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/hotspot"
	"github.com/couchcryptid/disaster-hotspots/internal/store"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	reportsPath := flag.String("reports", "", "path to the reports CSV")
	tweetsPath := flag.String("tweets", "", "optional path to the tweets JSON")
	mapDocPath := flag.String("map-document", "", "optional path to the pre-rendered map document")
	maxRes := flag.Int("max-resolution", 10, "highest H3 resolution to check the count-sum invariant at")
	flag.Parse()

	if *reportsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*reportsPath, *tweetsPath, *mapDocPath, *maxRes))
}

func run(reportsPath, tweetsPath, mapDocPath string, maxRes int) int {
	fmt.Println("=== Disaster Report Integrity Validation ===")
	fmt.Println()

	if err := hotspot.ValidateResolution(maxRes); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	loaded, err := store.LoadReports(reportsPath)
	if err != nil {
		if errors.Is(err, store.ErrMissingColumn) {
			fmt.Fprintf(os.Stderr, "FATAL: schema: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: load reports: %v\n", err)
		}
		return 1
	}

	phases := []*phase{
		validateRows(loaded),
		validateCountSum(loaded.Reports, maxRes),
		validateCells(loaded.Reports, hotspot.DefaultResolution),
		validateContext(loaded.Reports),
	}
	if tweetsPath != "" || mapDocPath != "" {
		phases = append(phases, validateDocuments(tweetsPath, mapDocPath))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d valid, %d skipped\n", len(loaded.Reports), len(loaded.Skipped))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateRows reports every row the loader had to skip.
func validateRows(loaded store.LoadResult) *phase {
	p := &phase{name: "Row integrity (coordinates)"}
	for _, sk := range loaded.Skipped {
		p.errorf("line %d: %s", sk.Line, sk.Reason)
	}
	if len(loaded.Reports) == 0 {
		p.errorf("no valid reports")
	}
	return p
}

// validateCountSum checks that every resolution accounts for every report
// and that finer resolutions never merge cells.
func validateCountSum(reports []domain.Report, maxRes int) *phase {
	p := &phase{name: "Count-sum invariant (resolutions)"}
	prevCells := 0
	for res := hotspot.MinResolution; res <= maxRes; res++ {
		agg, err := hotspot.Build(reports, res)
		if err != nil {
			p.errorf("resolution %d: %v", res, err)
			continue
		}
		sum := 0
		for _, n := range agg.Counts() {
			sum += n
		}
		if sum != len(reports) {
			p.errorf("resolution %d: counts sum to %d, want %d", res, sum, len(reports))
		}
		cells := len(agg.Counts())
		if cells < prevCells {
			p.errorf("resolution %d: %d distinct cells, fewer than %d at the coarser resolution", res, cells, prevCells)
		}
		prevCells = cells
	}
	return p
}

// validateCells checks cell assignment and canonical centers at res.
func validateCells(reports []domain.Report, res int) *phase {
	p := &phase{name: fmt.Sprintf("Cell assignment (resolution %d)", res)}
	agg, err := hotspot.Build(reports, res)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	for i, r := range reports {
		got, _ := agg.CellOf(i)
		if want := hotspot.CellFor(r.Latitude, r.Longitude, res); got != want {
			p.errorf("report %d: cell %s, recomputed %s", r.Index, got, want)
		}
	}
	for _, c := range agg.Cells() {
		if back := hotspot.CellFor(c.Center.Lat, c.Center.Lon, res); back != c.Cell {
			p.errorf("cell %s: center (%.6f, %.6f) maps to %s", c.Cell, c.Center.Lat, c.Center.Lon, back)
		}
		if c.ReportCount <= 0 {
			p.errorf("cell %s: non-positive count %d", c.Cell, c.ReportCount)
		}
	}
	return p
}

// validateContext checks that every report yields a location and context
// label and reports the location source mix.
func validateContext(reports []domain.Report) *phase {
	p := &phase{name: "Context extraction"}
	extractor := domain.NewContextExtractor(nil)
	sources := map[string]int{}
	for _, r := range reports {
		res := extractor.Extract(r)
		sources[res.LocationSource]++
		if res.LocationName == "" {
			p.errorf("report %d: empty location label", r.Index)
		}
		if res.DisasterContext == "" {
			p.errorf("report %d: empty disaster context", r.Index)
		}
	}
	fmt.Printf("Location sources: tweet_geo=%d profile=%d unknown=%d\n",
		sources[domain.LocationSourceTweetGeo], sources[domain.LocationSourceProfile], sources[domain.LocationSourceUnknown])
	return p
}

func validateDocuments(tweetsPath, mapDocPath string) *phase {
	p := &phase{name: "Alternate app inputs"}
	if tweetsPath != "" {
		tweets, err := store.LoadTweets(tweetsPath)
		if err != nil {
			p.errorf("tweets: %v", err)
		} else {
			fmt.Printf("Tweets: %d records\n", len(tweets))
		}
	}
	if mapDocPath != "" {
		if _, err := store.LoadMapDocument(mapDocPath); err != nil {
			p.errorf("map document: %v", err)
		}
	}
	return p
}
