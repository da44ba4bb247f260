// Package story models the five-chapter walkthrough of the hotspot pipeline:
// the chapter catalogue, per-visitor sessions and the pacing of the
// placeholder stages shown between chapters.
package story

import "fmt"

const (
	// ChapterCount is the number of chapters in the story.
	ChapterCount = 5
	// FinalChapter is the index of the map chapter.
	FinalChapter = ChapterCount - 1

	iconBase = "https://assets9.lottiefiles.com/packages/"
	author   = "Authored by: You"
)

// Chapter is one step of the story.
type Chapter struct {
	Number      int      `json:"number"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Author      string   `json:"author"`
	Stages      []string `json:"stages"`
}

var chapters = [ChapterCount]Chapter{
	{
		Title:       "Data Collection",
		Description: "Collecting social media posts from Twitter as initial data source.",
		Icon:        iconBase + "lf20_iwmd6pyr.json",
		Stages:      []string{"Connecting to the social feed", "Collecting posts"},
	},
	{
		Title:       "Disaster Classification",
		Description: "AI models classify posts as disaster-related or general content.",
		Icon:        iconBase + "lf20_tutvdkg0.json",
		Stages:      []string{"Loading classifier", "Classifying posts"},
	},
	{
		Title:       "Hotspot Mapping",
		Description: "Reports are geocoded and aggregated into H3 hexagonal hotspots.",
		Icon:        iconBase + "lf20_xdfeea13.json",
		Stages:      []string{"Geocoding reports", "Aggregating hexagonal cells"},
	},
	{
		Title:       "Media & AI Reports",
		Description: "Visuals and AI-generated videos provide contextual disaster awareness.",
		Icon:        iconBase + "lf20_5ngs2ksb.json",
		Stages:      []string{"Searching visuals", "Drafting situation report"},
	},
	{
		Title:       "Insights & Trends",
		Description: "Analyze top disaster types and hotspot statistics for actionable insights.",
		Icon:        iconBase + "lf20_c9py7q7h.json",
		Stages:      []string{"Ranking hotspots"},
	},
}

// Chapters returns the catalogue in story order.
func Chapters() []Chapter {
	out := make([]Chapter, ChapterCount)
	for i := range out {
		out[i] = ChapterAt(i)
	}
	return out
}

// ChapterAt returns chapter i, clamped to the catalogue bounds.
func ChapterAt(i int) Chapter {
	i = max(0, min(i, FinalChapter))
	c := chapters[i]
	c.Number = i + 1
	c.Title = fmt.Sprintf("Chapter %02d - %s", i+1, c.Title)
	c.Author = author
	c.Stages = append([]string(nil), c.Stages...)
	return c
}
