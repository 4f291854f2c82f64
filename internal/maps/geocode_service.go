// README: Google Geocoding client for postal code metadata lookups.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// GeocodeService handles interactions with the Google Geocoding API.
type GeocodeService struct {
	client *maps.Client
}

// NewGeocodeService creates a new GeocodeService with the given API Key.
func NewGeocodeService(apiKey string) (*GeocodeService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client}, nil
}

// LookupPostalCode resolves an Indian postal code to its city and state.
// Returns empty strings when the API has no result for the code.
func (s *GeocodeService) LookupPostalCode(ctx context.Context, pincode string) (city, state string, err error) {
	r := &maps.GeocodingRequest{
		Components: map[maps.Component]string{
			maps.ComponentPostalCode: pincode,
			maps.ComponentCountry:    "IN",
		},
		Region: "IN",
	}

	results, err := s.client.Geocode(ctx, r)
	if err != nil {
		return "", "", fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return "", "", nil
	}

	for _, comp := range results[0].AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "locality":
				city = comp.LongName
			case "administrative_area_level_1":
				state = comp.LongName
			}
		}
	}
	return city, state, nil
}
