// README: Google Maps suggester: text search for places, reverse geocoding for coordinates.
package places

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"quickride/internal/types"
)

const (
	mapsLanguage = "pt-BR"
	mapsRegion   = "br"
	nearbyRadius = 20000 // meters
)

type mapsClient interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

type Maps struct {
	client mapsClient
}

func NewMaps(apiKey string) (*Maps, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Maps{client: client}, nil
}

func (m *Maps) Suggest(ctx context.Context, query string, near *types.Point) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if tooShort(query) {
		return nil, nil
	}
	r := &maps.TextSearchRequest{
		Query:    query,
		Language: mapsLanguage,
		Region:   mapsRegion,
	}
	if near != nil {
		r.Location = &maps.LatLng{Lat: near.Lat, Lng: near.Lng}
		r.Radius = nearbyRadius
	}
	resp, err := m.client.TextSearch(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}
	out := make([]Suggestion, 0, maxSuggestions)
	for _, result := range resp.Results {
		out = append(out, Suggestion{Title: result.Name, Address: result.FormattedAddress})
		if len(out) >= maxSuggestions {
			break
		}
	}
	return out, nil
}

func (m *Maps) Reverse(ctx context.Context, at types.Point) (string, error) {
	results, err := m.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: at.Lat, Lng: at.Lng},
		Language: mapsLanguage,
	})
	if err != nil {
		return "", fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return coordsLabel(at), nil
	}
	return results[0].FormattedAddress, nil
}
