// Package prose recognizes named entities in report text with the prose
// English model.
package prose

import (
	"log/slog"
	"strings"

	prose "github.com/jdkato/prose/v2"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
)

type extractFunc func(text string) ([]prose.Entity, error)

// Recognizer implements domain.EntityRecognizer.
type Recognizer struct {
	extract extractFunc
	logger  *slog.Logger
}

// NewRecognizer creates a recognizer backed by the bundled prose model.
func NewRecognizer(logger *slog.Logger) *Recognizer {
	return &Recognizer{extract: extractEntities, logger: logger}
}

// Entities returns the entities found in text, in document order. Model
// failures are logged and yield no entities so the caller falls through to
// its next location source.
//
// The model tags capitalized sentence openers ("Heavy", "Cyclone") as places,
// so leading and trailing noise words are trimmed from every entity and
// entities made only of noise are dropped.
func (r *Recognizer) Entities(text string) []domain.Entity {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	found, err := r.extract(text)
	if err != nil {
		r.logger.Warn("entity extraction failed", "error", err)
		return nil
	}
	out := make([]domain.Entity, 0, len(found))
	for _, ent := range found {
		name := trimNoise(ent.Text)
		if name == "" {
			r.logger.Debug("dropping noise entity", "entity", ent.Text, "label", ent.Label)
			continue
		}
		out = append(out, domain.Entity{Text: name, Label: ent.Label})
	}
	return out
}

// openers are words that start disaster tweets and get mistaken for places.
var openers = map[string]bool{
	"a": true, "alert": true, "all": true, "an": true, "another": true,
	"big": true, "breaking": true, "deadly": true, "emergency": true,
	"extreme": true, "flash": true, "heavy": true, "help": true, "hit": true,
	"hits": true, "huge": true, "just": true, "latest": true, "live": true,
	"major": true, "massive": true, "more": true, "news": true, "our": true,
	"please": true, "pray": true, "red": true, "relief": true, "rescue": true,
	"severe": true, "stay": true, "strong": true, "the": true, "this": true,
	"today": true, "tonight": true, "update": true, "urgent": true,
	"warning": true,
}

var keywordTokens = func() map[string]bool {
	m := make(map[string]bool)
	for _, kw := range domain.DisasterKeywords() {
		for _, tok := range strings.Fields(kw) {
			m[tok] = true
		}
	}
	return m
}()

func isNoise(token string) bool {
	w := strings.ToLower(strings.Trim(token, ".,;:!?'\"#@()"))
	if w == "" || openers[w] || keywordTokens[w] {
		return true
	}
	for _, suffix := range []string{"s", "es", "ing", "ed", "fall", "y"} {
		if base, ok := strings.CutSuffix(w, suffix); ok && keywordTokens[base] {
			return true
		}
	}
	return false
}

func trimNoise(text string) string {
	tokens := strings.Fields(text)
	for len(tokens) > 0 && isNoise(tokens[0]) {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && isNoise(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

func extractEntities(text string) ([]prose.Entity, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, err
	}
	return doc.Entities(), nil
}
