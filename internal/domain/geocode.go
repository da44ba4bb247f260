package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding attaches place details to a context result. Labels
// that came from coordinates (tweet geo, or the report's own position when
// nothing else resolved) are reverse geocoded; names are forward geocoded.
// A nil geocoder returns the result unchanged, and a failed lookup keeps the
// original label with GeoSource "failed".
func EnrichWithGeocoding(ctx context.Context, r Report, result ContextResult, geocoder Geocoder, logger *slog.Logger) ContextResult {
	if geocoder == nil {
		return result
	}

	switch result.LocationSource {
	case LocationSourceTweetGeo:
		geo, err := parseTweetGeo(r.TweetGeo)
		if err != nil || !geo.HasCoords {
			result.GeoSource = "original"
			return result
		}
		return reverseEnrich(ctx, r, result, geo.Coordinates[1], geo.Coordinates[0], geocoder, logger)

	case LocationSourceEntity, LocationSourceProfile:
		found, err := geocoder.ForwardGeocode(ctx, result.LocationName, "")
		if err != nil {
			logger.Warn("forward geocoding failed",
				"report", r.Index,
				"location", result.LocationName,
				"error", err,
			)
			result.GeoSource = "failed"
			return result
		}
		if found.Lat != 0 || found.Lon != 0 {
			result.PlaceName = found.PlaceName
			result.FormattedAddress = found.FormattedAddress
			result.GeoConfidence = found.Confidence
			result.GeoSource = "forward"
			return result
		}
		result.GeoSource = "original"
		return result

	default:
		if r.Latitude == 0 && r.Longitude == 0 {
			result.GeoSource = "original"
			return result
		}
		return reverseEnrich(ctx, r, result, r.Latitude, r.Longitude, geocoder, logger)
	}
}

func reverseEnrich(ctx context.Context, r Report, result ContextResult, lat, lon float64, geocoder Geocoder, logger *slog.Logger) ContextResult {
	found, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"report", r.Index,
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		result.GeoSource = "failed"
		return result
	}
	if found.FormattedAddress != "" {
		result.PlaceName = found.PlaceName
		result.FormattedAddress = found.FormattedAddress
		result.GeoConfidence = found.Confidence
		result.GeoSource = "reverse"
		return result
	}
	result.GeoSource = "original"
	return result
}
