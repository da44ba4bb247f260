package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tweetGeo is the parsed form of a tweet geo payload.
type tweetGeo struct {
	// Coordinates in GeoJSON order: [lon, lat].
	Coordinates []float64
	HasCoords   bool

	// reprs holds each coordinate as the payload wrote it, normalised the
	// way the report exporter printed numbers: floats keep a fractional
	// part ("88.0"), integers do not ("88").
	reprs []string
}

// label formats the coordinates as "<c0>,<c1>".
func (g tweetGeo) label() string {
	if len(g.reprs) >= 2 {
		return g.reprs[0] + "," + g.reprs[1]
	}
	return strconv.FormatFloat(g.Coordinates[0], 'f', -1, 64) + "," +
		strconv.FormatFloat(g.Coordinates[1], 'f', -1, 64)
}

// numberRepr renders a decoded number: integers as integers, floats in
// shortest round-trip form with at least one fractional digit, switching to
// exponent form outside [1e-4, 1e16).
func numberRepr(n json.Number, f float64) string {
	text := n.String()
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return text
	}
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	out := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(out, ".") {
		out += ".0"
	}
	return out
}

func decodeDict(raw string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after tweet geo")
	}
	return fields, nil
}

// parseTweetGeo decodes a tweet geo payload. It returns an error wrapping
// ErrParse when the payload is not a dict, or when a "coordinates" key is
// present but does not hold at least two numbers.
func parseTweetGeo(raw string) (tweetGeo, error) {
	raw = strings.TrimSpace(raw)

	fields, err := decodeDict(raw)
	if err != nil {
		var err2 error
		if fields, err2 = decodeDict(pythonLiteralToJSON(raw)); err2 != nil {
			return tweetGeo{}, fmt.Errorf("%w: tweet geo: %v", ErrParse, err)
		}
	}
	if fields == nil {
		return tweetGeo{}, fmt.Errorf("%w: tweet geo is not a dict", ErrParse)
	}

	value, ok := fields["coordinates"]
	if !ok {
		return tweetGeo{}, nil
	}

	list, ok := value.([]any)
	if !ok || len(list) < 2 {
		return tweetGeo{}, fmt.Errorf("%w: tweet geo coordinates: %v", ErrParse, value)
	}
	coords := make([]float64, 0, len(list))
	reprs := make([]string, 0, len(list))
	for _, v := range list {
		n, ok := v.(json.Number)
		if !ok {
			return tweetGeo{}, fmt.Errorf("%w: tweet geo coordinate %v is not a number", ErrParse, v)
		}
		f, err := n.Float64()
		if err != nil {
			return tweetGeo{}, fmt.Errorf("%w: tweet geo coordinate %v: %v", ErrParse, v, err)
		}
		coords = append(coords, f)
		reprs = append(reprs, numberRepr(n, f))
	}
	return tweetGeo{Coordinates: coords, HasCoords: true, reprs: reprs}, nil
}

var pythonConstants = map[string]string{
	"True":  "true",
	"False": "false",
	"None":  "null",
}

// pythonLiteralToJSON rewrites a Python dict literal into JSON: quotes become
// double quotes, tuples become arrays, string escapes JSON lacks (\xNN,
// \UNNNNNNNN, octal, \a, \v) are translated and True/False/None become
// their JSON counterparts. Anything it does not understand
// is copied through and left for the JSON decoder to reject.
func pythonLiteralToJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var quote rune
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])

		if quote != 0 {
			switch {
			case r == '\\' && i+size < len(s):
				i += size + writeEscape(&b, s[i+size:])
				continue
			case r == quote:
				b.WriteByte('"')
				quote = 0
			case r == '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
			i += size
			continue
		}

		switch r {
		case '\'', '"':
			quote = r
			b.WriteByte('"')
		case '(':
			b.WriteByte('[')
		case ')':
			b.WriteByte(']')
		default:
			if word, repl, ok := pythonConstantAt(s, i); ok {
				b.WriteString(repl)
				i += len(word)
				continue
			}
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

// writeEscape translates the escape sequence at the start of rest (the text
// after a backslash) and returns how many bytes it consumed.
func writeEscape(b *strings.Builder, rest string) int {
	next, size := utf8.DecodeRuneInString(rest)
	switch next {
	case '\'':
		b.WriteRune('\'')
		return size
	case 'x':
		if r, ok := hexRune(rest[1:], 2); ok {
			fmt.Fprintf(b, `\u%04x`, r)
			return 3
		}
	case 'U':
		if r, ok := hexRune(rest[1:], 8); ok && utf8.ValidRune(r) {
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
			return 9
		}
	case 'a':
		b.WriteString(`\u0007`)
		return size
	case 'v':
		b.WriteString(`\u000b`)
		return size
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := 1
		for n < 3 && n < len(rest) && rest[n] >= '0' && rest[n] <= '7' {
			n++
		}
		v, _ := strconv.ParseUint(rest[:n], 8, 32)
		fmt.Fprintf(b, `\u%04x`, v)
		return n
	}
	b.WriteRune('\\')
	b.WriteRune(next)
	return size
}

func hexRune(s string, digits int) (rune, bool) {
	if len(s) < digits {
		return 0, false
	}
	v, err := strconv.ParseUint(s[:digits], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func pythonConstantAt(s string, i int) (string, string, bool) {
	if i > 0 {
		prev, _ := utf8.DecodeLastRuneInString(s[:i])
		if isIdentRune(prev) {
			return "", "", false
		}
	}
	for word, repl := range pythonConstants {
		if !strings.HasPrefix(s[i:], word) {
			continue
		}
		end := i + len(word)
		if end < len(s) {
			next, _ := utf8.DecodeRuneInString(s[end:])
			if isIdentRune(next) {
				continue
			}
		}
		return word, repl, true
	}
	return "", "", false
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
