// README: Tenant settings: default rate card, carrier policy lists.
package tenant

import (
	"errors"

	"shipquote/internal/types"
)

var ErrSettingsNotFound = errors.New("tenant settings not found")

// Settings is the per-tenant policy the pipeline consults: which rate card
// is the default and which carriers the tenant may use.
type Settings struct {
	TenantID          types.ID
	DefaultRateCardID *types.ID
	AllowedCarriers   []string
	BlockedCarriers   []string
	GSTPercent        *float64
}

// CarrierAllowed applies the allow/block lists. An empty allow list means
// every carrier not explicitly blocked is eligible.
func (s *Settings) CarrierAllowed(carrier string) bool {
	for _, b := range s.BlockedCarriers {
		if b == carrier {
			return false
		}
	}
	if len(s.AllowedCarriers) == 0 {
		return true
	}
	for _, a := range s.AllowedCarriers {
		if a == carrier {
			return true
		}
	}
	return false
}
