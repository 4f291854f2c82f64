// README: Google-Maps-backed pincode source used when the table has no row.
package zone

import (
	"context"
)

// Geocoder is the slice of the maps geocoding service this package needs.
type Geocoder interface {
	LookupPostalCode(ctx context.Context, pincode string) (city, state string, err error)
}

// GeocodeSource adapts a Geocoder into a PincodeSource. It carries no
// metro/special metadata, so pairs resolved through it classify by city and
// state only.
type GeocodeSource struct {
	geo Geocoder
}

func NewGeocodeSource(geo Geocoder) *GeocodeSource {
	return &GeocodeSource{geo: geo}
}

func (s *GeocodeSource) Lookup(ctx context.Context, pincode string) (PincodeInfo, error) {
	city, state, err := s.geo.LookupPostalCode(ctx, pincode)
	if err != nil {
		return PincodeInfo{}, err
	}
	if city == "" && state == "" {
		return PincodeInfo{}, ErrPincodeNotFound
	}
	return PincodeInfo{Pincode: pincode, City: city, State: state}, nil
}
