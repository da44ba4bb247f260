package hotspot

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
)

var mapDocument = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map("map").setView([{{.Lat}}, {{.Lon}}], {{.Zoom}});
L.tileLayer("https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", {
  attribution: "&copy; OpenStreetMap contributors"
}).addTo(map);
L.geoJSON({{.Features}}, {
  style: function (f) {
    return {
      fillColor: f.properties.fillColor,
      color: f.properties.color,
      weight: f.properties.weight,
      fillOpacity: f.properties.fillOpacity
    };
  },
  onEachFeature: function (f, layer) { layer.bindTooltip(f.properties.tooltip); }
}).addTo(map);
</script>
</body>
</html>
`))

type mapDocumentData struct {
	Title    string
	Lat      float64
	Lon      float64
	Zoom     int
	Features template.JS
}

// RenderMapDocument writes a standalone Leaflet page showing the view.
func RenderMapDocument(w io.Writer, title string, view MapView) error {
	features, err := json.Marshal(view.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	data := mapDocumentData{
		Title:    title,
		Lat:      view.Center.Lat,
		Lon:      view.Center.Lon,
		Zoom:     view.Zoom,
		Features: template.JS(features), //nolint:gosec // marshalled by encoding/json
	}
	if err := mapDocument.Execute(w, data); err != nil {
		return fmt.Errorf("render map document: %w", err)
	}
	return nil
}
