// Package domain models geocoded social-media disaster reports and the
// per-report context derived from them.
//
// # Data Source
//
// Reports come from a flat CSV table produced by an upstream geocoding
// step. Each row is one post: coordinates, free text, the author's
// self-declared profile location and the raw tweet geo payload. The table is
// loaded once per process and never mutated; a report's identity is its row
// position.
//
// # Field Conventions
//
// Absent values:
//
//	Empty strings, whitespace and the literal "nan" (any case, left behind
//	by dataframe exports) all mean the field is absent.
//
// Tweet geo payload:
//
//	A dict serialised either as JSON or as a Python literal, e.g.
//	  {'type': 'Point', 'coordinates': [88.3639, 22.5726]}
//	Coordinates follow GeoJSON order (lon, lat) and are reported verbatim
//	as "<lon>,<lat>". True/False/None and tuples are accepted.
//
// # Context Resolution
//
// The location label is resolved by an ordered chain of resolvers, first
// success wins:
//
//	tweet geo coordinates -> tweet geo fallback (profile or "Unknown")
//	-> first GPE/LOC named entity in the text -> profile location -> "Unknown"
//
// The disaster label is a case-insensitive substring scan of the text
// against a fixed vocabulary:
//
//	flood, rain, cloud burst, cyclone, storm, landslide, tsunami,
//	earthquake, fire, high wave, storm surge
//
// Matches are joined with ", " in vocabulary order. Without a match the raw
// text is used, and "General disaster" when there is no text at all.
//
// # Hotspots
//
// Reports are bucketed into H3 cells. A cell's Center is the canonical H3
// centroid; PointCentroid is the spherical mean of the reports it contains.
package domain
