// README: Zone classification and pincode metadata definitions.
package zone

import "errors"

type Zone string

const (
	ZoneLocal        Zone = "LOCAL"
	ZoneMetro        Zone = "METRO"
	ZoneRegional     Zone = "REGIONAL"
	ZoneSpecial      Zone = "SPECIAL"
	ZoneNational     Zone = "NATIONAL"
	ZoneUnclassified Zone = "UNCLASSIFIED"

	// ZoneAll is the wildcard key for rate-card zone rules. The resolver
	// never returns it; the tariff evaluator falls back to it when a card
	// has no rule for the resolved zone.
	ZoneAll Zone = "ALL"
)

var (
	ErrBadPincode      = errors.New("pincode must be exactly 6 digits")
	ErrPincodeNotFound = errors.New("pincode not found")
)

// PincodeInfo is what the pincode data sources return for one postal code.
type PincodeInfo struct {
	Pincode string
	City    string
	State   string
	Metro   bool
	Special bool
}

// CarrierZoneMapping is an exact postal-code-range mapping for one carrier.
// It wins over state/region classification when both origin and destination
// fall inside its ranges.
type CarrierZoneMapping struct {
	Carrier    string
	OriginLow  string
	OriginHigh string
	DestLow    string
	DestHigh   string
	Zone       Zone
}
