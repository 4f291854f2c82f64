// README: Carrier adapter contract and provider error classification.
package booking

import (
	"context"
	"errors"

	"shipquote/internal/modules/pricing"
	"shipquote/internal/modules/quote"
	"shipquote/internal/types"
)

// Provider error codes shared across carrier adapters.
const (
	CodeTimeout      = "SYS_TIMEOUT"
	CodeUnavailable  = "EXT_SERVICE_UNAVAILABLE"
	CodeRateLimited  = "EXT_RATE_LIMITED"
	CodeValidation   = "VALIDATION_FAILED"
	CodeNoAdapter    = "NO_ADAPTER"
	CodeUnclassified = "UNCLASSIFIED"
)

var ErrNoAdapter = errors.New("no adapter registered for carrier")

// Request is everything an adapter needs to book one shipment.
type Request struct {
	SessionID types.ID
	TenantID  types.ID
	SellerID  types.ID
	Option    quote.Option
	Params    pricing.ShipmentParams
}

type Confirmation struct {
	TrackingNumber    string
	CarrierShipmentID string
}

// Adapter books a shipment with one carrier's API. The idempotency key is
// unique per attempt; adapters must pass it through so a retried call
// cannot create a second shipment upstream.
type Adapter interface {
	CreateBooking(ctx context.Context, req Request, idemKey string) (*Confirmation, error)
}

// ProviderError is the structured failure an adapter returns. Recoverable
// failures let the resolver fall back to the next option; a failure after
// the carrier issued an AWB never does, regardless of code.
type ProviderError struct {
	Code           string
	Message        string
	Recoverable    bool
	PostAwbIssued  bool
	TrackingNumber string
}

func (e *ProviderError) Error() string {
	return e.Code + ": " + e.Message
}

// classification is the resolver's view of an attempt failure.
type classification struct {
	code        string
	message     string
	recoverable bool
	postAwb     bool
	tracking    string
}

func classify(err error) classification {
	var pe *ProviderError
	if errors.As(err, &pe) {
		c := classification{
			code:        pe.Code,
			message:     pe.Message,
			recoverable: pe.Recoverable,
			postAwb:     pe.PostAwbIssued,
			tracking:    pe.TrackingNumber,
		}
		if c.postAwb {
			c.recoverable = false
		}
		return c
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return classification{code: CodeTimeout, message: "carrier call timed out", recoverable: true}
	}
	return classification{code: CodeUnclassified, message: err.Error()}
}

// Registry maps carrier names to adapters.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(carrier string, a Adapter) {
	r.adapters[carrier] = a
}

func (r *Registry) Lookup(carrier string) (Adapter, bool) {
	a, ok := r.adapters[carrier]
	return a, ok
}
