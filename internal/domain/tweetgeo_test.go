package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTweetGeo(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		hasCoords bool
		coords    []float64
		wantErr   bool
	}{
		{"json point", `{"type":"Point","coordinates":[88.36,22.57]}`, true, []float64{88.36, 22.57}, false},
		{"python point", `{'type': 'Point', 'coordinates': [88.36, 22.57]}`, true, []float64{88.36, 22.57}, false},
		{"python tuple", `{'coordinates': (88.36, 22.57)}`, true, []float64{88.36, 22.57}, false},
		{"python constants", `{'coordinates': [1.5, 2.5], 'exact': True, 'place': None}`, true, []float64{1.5, 2.5}, false},
		{"integer coordinates", `{"coordinates":[88,22]}`, true, []float64{88, 22}, false},
		{"no coordinates", `{"type":"Point"}`, false, nil, false},
		{"escaped quote", `{'name': 'O\'Hare', 'coordinates': [1, 2]}`, true, []float64{1, 2}, false},
		{"hex escape", `{'place': 'Caf\xe9', 'coordinates': [88.3, 22.5]}`, true, []float64{88.3, 22.5}, false},
		{"trailing garbage", `{"coordinates":[1,2]} x`, false, nil, true},
		{"not json", "not-json", false, nil, true},
		{"array payload", `[88.36, 22.57]`, false, nil, true},
		{"null payload", `null`, false, nil, true},
		{"coordinates not a list", `{"coordinates":"88,22"}`, false, nil, true},
		{"coordinates too short", `{"coordinates":[88]}`, false, nil, true},
		{"coordinates not numbers", `{"coordinates":["a","b"]}`, false, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo, err := parseTweetGeo(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrParse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hasCoords, geo.HasCoords)
			assert.Equal(t, tt.coords, geo.Coordinates)
		})
	}
}

func TestPythonLiteralToJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single quotes", `{'a': 'b'}`, `{"a": "b"}`},
		{"embedded double quote", `{'a': 'say "hi"'}`, `{"a": "say \"hi\""}`},
		{"constants", `{'x': True, 'y': False, 'z': None}`, `{"x": true, "y": false, "z": null}`},
		{"constant inside string untouched", `{'x': 'True story'}`, `{"x": "True story"}`},
		{"identifier prefix untouched", `{'x': Nonesuch}`, `{"x": Nonesuch}`},
		{"tuple", `(1, 2)`, `[1, 2]`},
		{"hex escape", `{'a': 'Caf\xe9'}`, `{"a": "Caf\u00e9"}`},
		{"octal escape", `{'a': '\0'}`, `{"a": "\u0000"}`},
		{"long unicode escape", `{'a': '\U0001F30A'}`, "{\"a\": \"\U0001F30A\"}"},
		{"bell and vertical tab", `{'a': '\a\v'}`, `{"a": "\u0007\u000b"}`},
		{"json escapes kept", `{'a': 'x\ny\\'}`, `{"a": "x\ny\\"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pythonLiteralToJSON(tt.input))
		})
	}
}

func TestTweetGeoLabel(t *testing.T) {
	geo := tweetGeo{Coordinates: []float64{88.3639, 22.5726}, HasCoords: true}
	assert.Equal(t, "88.3639,22.5726", geo.label())

	tests := []struct {
		raw  string
		want string
	}{
		{`{'coordinates': [88.0, 22.5]}`, "88.0,22.5"},
		{`{"coordinates": [88, 22]}`, "88,22"},
		{`{"coordinates": [88.360, -0.0]}`, "88.36,-0.0"},
		{`{"coordinates": [1E2, 0.00001]}`, "100.0,1e-05"},
		{`{'place': 'Caf\xe9', 'coordinates': (88.3, 22.5)}`, "88.3,22.5"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			geo, err := parseTweetGeo(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, geo.label())
		})
	}
}

func TestIsAbsent(t *testing.T) {
	assert.True(t, IsAbsent(""))
	assert.True(t, IsAbsent("  "))
	assert.True(t, IsAbsent("nan"))
	assert.True(t, IsAbsent("NaN"))
	assert.False(t, IsAbsent("Kolkata"))
}
