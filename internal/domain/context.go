package domain

import (
	"strings"
)

const (
	// UnknownLocation is the label used when no resolver finds a location.
	UnknownLocation = "Unknown"

	// GeneralDisaster is the label used when a report has no text.
	GeneralDisaster = "General disaster"
)

// disasterKeywords is scanned in order; the order is preserved in the output.
var disasterKeywords = []string{
	"flood", "rain", "cloud burst", "cyclone", "storm", "landslide",
	"tsunami", "earthquake", "fire", "high wave", "storm surge",
}

// DisasterKeywords returns a copy of the keyword vocabulary.
func DisasterKeywords() []string {
	return append([]string(nil), disasterKeywords...)
}

// Entity is a named entity found in free text.
type Entity struct {
	Text  string
	Label string
}

// EntityRecognizer extracts named entities from free text.
type EntityRecognizer interface {
	Entities(text string) []Entity
}

// LocationResolver tries to derive a location label for a report. It
// returns ok=false to hand over to the next resolver in the chain.
type LocationResolver func(r Report) (name, source string, ok bool)

// ContextExtractor derives a ContextResult from a report. It holds no
// mutable state; Extract is deterministic as long as the recognizer is.
type ContextExtractor struct {
	resolvers []LocationResolver
}

// NewContextExtractor builds an extractor with the default resolver chain.
// A nil recognizer disables the named-entity step.
func NewContextExtractor(recognizer EntityRecognizer) *ContextExtractor {
	return NewContextExtractorWithResolvers(DefaultLocationResolvers(recognizer)...)
}

// NewContextExtractorWithResolvers builds an extractor with a custom chain.
func NewContextExtractorWithResolvers(resolvers ...LocationResolver) *ContextExtractor {
	return &ContextExtractor{resolvers: resolvers}
}

// DefaultLocationResolvers returns the resolver chain in priority order.
func DefaultLocationResolvers(recognizer EntityRecognizer) []LocationResolver {
	return []LocationResolver{
		ResolveTweetGeoCoordinates,
		ResolveTweetGeoFallback,
		NamedEntityResolver(recognizer),
		ResolveProfileLocation,
		ResolveUnknown,
	}
}

// ExtractContext runs the default resolver chain once.
func ExtractContext(r Report, recognizer EntityRecognizer) ContextResult {
	return NewContextExtractor(recognizer).Extract(r)
}

// Extract resolves the location label and disaster label of a report.
func (e *ContextExtractor) Extract(r Report) ContextResult {
	result := ContextResult{
		LocationName:    UnknownLocation,
		LocationSource:  LocationSourceUnknown,
		DisasterContext: DisasterContext(r.Text),
	}
	for _, resolve := range e.resolvers {
		if name, source, ok := resolve(r); ok {
			result.LocationName = name
			result.LocationSource = source
			break
		}
	}
	return result
}

// ResolveTweetGeoCoordinates labels the report with its tweet geo
// coordinates when the payload parses and carries them.
func ResolveTweetGeoCoordinates(r Report) (string, string, bool) {
	if IsAbsent(r.TweetGeo) {
		return "", "", false
	}
	geo, err := parseTweetGeo(r.TweetGeo)
	if err != nil || !geo.HasCoords {
		return "", "", false
	}
	return geo.label(), LocationSourceTweetGeo, true
}

// ResolveTweetGeoFallback ends the chain for reports that carry a tweet geo
// payload without usable coordinates, malformed payloads included: the
// profile location wins, else "Unknown". Named entities are not consulted.
func ResolveTweetGeoFallback(r Report) (string, string, bool) {
	if IsAbsent(r.TweetGeo) {
		return "", "", false
	}
	if name, source, ok := ResolveProfileLocation(r); ok {
		return name, source, true
	}
	return ResolveUnknown(r)
}

// NamedEntityResolver returns a resolver that picks the first geopolitical
// (GPE) or generic location (LOC) entity in the report text.
func NamedEntityResolver(recognizer EntityRecognizer) LocationResolver {
	return func(r Report) (string, string, bool) {
		if recognizer == nil || IsAbsent(r.Text) {
			return "", "", false
		}
		for _, ent := range recognizer.Entities(r.Text) {
			if ent.Label != "GPE" && ent.Label != "LOC" {
				continue
			}
			if name := strings.TrimSpace(ent.Text); name != "" {
				return name, LocationSourceEntity, true
			}
		}
		return "", "", false
	}
}

// ResolveProfileLocation uses the author's profile location when present.
func ResolveProfileLocation(r Report) (string, string, bool) {
	if IsAbsent(r.AuthorProfileLocation) {
		return "", "", false
	}
	return strings.TrimSpace(r.AuthorProfileLocation), LocationSourceProfile, true
}

// ResolveUnknown always succeeds with the "Unknown" label.
func ResolveUnknown(Report) (string, string, bool) {
	return UnknownLocation, LocationSourceUnknown, true
}

// DisasterContext scans text for disaster keywords (case-insensitive
// substring match) and joins the matches in vocabulary order. It falls back
// to the raw text, then to GeneralDisaster.
func DisasterContext(text string) string {
	if IsAbsent(text) {
		return GeneralDisaster
	}
	lower := strings.ToLower(text)
	var matches []string
	for _, kw := range disasterKeywords {
		if strings.Contains(lower, kw) {
			matches = append(matches, kw)
		}
	}
	if len(matches) == 0 {
		return text
	}
	return strings.Join(matches, ", ")
}
