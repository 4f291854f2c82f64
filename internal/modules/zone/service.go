// README: Zone resolver; classifies origin/destination pincode pairs.
package zone

import (
	"context"
	"errors"

	"shipquote/internal/log"
)

// PincodeSource resolves a single postal code to its metadata.
// Implementations must return ErrPincodeNotFound when the code is unknown.
type PincodeSource interface {
	Lookup(ctx context.Context, pincode string) (PincodeInfo, error)
}

// CarrierMappingSource resolves carrier-specific postal-code-range mappings.
type CarrierMappingSource interface {
	CarrierMapping(ctx context.Context, carrier, origin, dest string) (Zone, bool, error)
}

// Resolver classifies an origin/destination pair into a zone. It is
// read-only; sources are consulted in order and the first hit wins.
type Resolver struct {
	sources  []PincodeSource
	mappings CarrierMappingSource
}

// NewResolver builds a resolver over an ordered source chain. mappings may
// be nil when no carrier-specific mapping table is available.
func NewResolver(mappings CarrierMappingSource, sources ...PincodeSource) *Resolver {
	return &Resolver{sources: sources, mappings: mappings}
}

// Resolve classifies the pair, most specific rule first: an exact carrier
// range mapping, then city/metro/state classification, then national.
// Unknown pincodes classify as ZoneUnclassified rather than failing so a
// wildcard rate-card rule can still price the shipment. Only malformed
// input is an error.
func (r *Resolver) Resolve(ctx context.Context, origin, dest, carrier string) (Zone, error) {
	if !validPincode(origin) || !validPincode(dest) {
		return "", ErrBadPincode
	}

	if carrier != "" && r.mappings != nil {
		z, ok, err := r.mappings.CarrierMapping(ctx, carrier, origin, dest)
		if err != nil {
			return "", err
		}
		if ok {
			return z, nil
		}
	}

	oi, ook := r.lookup(ctx, origin)
	di, dok := r.lookup(ctx, dest)
	if !ook || !dok {
		log.Debug(ctx, "pincode pair unclassified",
			log.String("origin", origin), log.String("dest", dest))
		return ZoneUnclassified, nil
	}

	return classify(oi, di), nil
}

func (r *Resolver) lookup(ctx context.Context, pincode string) (PincodeInfo, bool) {
	for _, src := range r.sources {
		info, err := src.Lookup(ctx, pincode)
		if err == nil {
			return info, true
		}
		if !errors.Is(err, ErrPincodeNotFound) {
			log.Warn(ctx, "pincode source failed",
				log.String("pincode", pincode), log.Cause(err))
		}
	}
	return PincodeInfo{}, false
}

func classify(origin, dest PincodeInfo) Zone {
	switch {
	case origin.City != "" && origin.City == dest.City:
		return ZoneLocal
	case origin.Metro && dest.Metro:
		return ZoneMetro
	case origin.State != "" && origin.State == dest.State:
		return ZoneRegional
	case origin.Special || dest.Special:
		return ZoneSpecial
	default:
		return ZoneNational
	}
}

func validPincode(p string) bool {
	if len(p) != 6 {
		return false
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
