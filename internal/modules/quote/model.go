// README: Quote session aggregate: immutable ranked carrier options.
package quote

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"shipquote/internal/modules/pricing"
	"shipquote/internal/modules/ratecard"
	"shipquote/internal/modules/zone"
	"shipquote/internal/types"
)

const TagRecommended = "RECOMMENDED"

type SessionStatus string

const (
	StatusOpen   SessionStatus = "open"
	StatusBooked SessionStatus = "booked"
)

var (
	ErrSessionNotFound = errors.New("quote session not found")
	ErrSessionExpired  = errors.New("quote session expired")
	ErrSessionUsed     = errors.New("quote session already booked")
	ErrOptionNotFound  = errors.New("option not found in session")
	ErrNoQuotes        = errors.New("no candidate produced a usable quote")
	ErrReverseDisabled = errors.New("reverse quotes are not enabled")
)

// Option is one scored candidate inside a session. Options are stored in
// rank order; that order, not the RECOMMENDED tag, governs fallback.
type Option struct {
	ID                 types.ID                 `json:"id"`
	Carrier            string                   `json:"carrier"`
	Service            string                   `json:"service"`
	Zone               zone.Zone                `json:"zone"`
	ChargeableWeightKg float64                  `json:"chargeableWeightKg"`
	RateCardID         types.ID                 `json:"rateCardId"`
	SelectionReason    ratecard.SelectionReason `json:"selectionReason"`
	SellAmount         types.Money              `json:"sellAmount"`
	CostAmount         *types.Money             `json:"costAmount,omitempty"`
	Margin             types.Money              `json:"margin"`
	MarginPercent      decimal.Decimal          `json:"marginPercent"`
	Source             pricing.Source           `json:"source"`
	Confidence         pricing.Confidence       `json:"confidence"`
	RankScore          float64                  `json:"rankScore"`
	Tags               []string                 `json:"tags,omitempty"`
}

// Session is an immutable, time-bound snapshot of ranked options for one
// shipment request. It is created once and used at most once for booking.
type Session struct {
	ID                  types.ID               `json:"id"`
	TenantID            types.ID               `json:"tenantId"`
	SellerID            types.ID               `json:"sellerId"`
	Params              pricing.ShipmentParams `json:"params"`
	Options             []Option               `json:"options"`
	RecommendedOptionID types.ID               `json:"recommendedOptionId"`
	Status              SessionStatus          `json:"status"`
	CreatedAt           time.Time              `json:"createdAt"`
	ExpiresAt           time.Time              `json:"expiresAt"`
	BookedAt            *time.Time             `json:"bookedAt,omitempty"`
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// OptionIndex returns the rank position of an option id.
func (s *Session) OptionIndex(id types.ID) (int, bool) {
	for i := range s.Options {
		if s.Options[i].ID == id {
			return i, true
		}
	}
	return 0, false
}
