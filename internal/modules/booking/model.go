// README: Booking resolver types: results, attempt trail, terminal errors.
package booking

import (
	"errors"
	"fmt"
	"time"

	"shipquote/internal/types"
)

var ErrBookingInProgress = errors.New("another booking is in progress for this session")

// Attempt is one failed carrier call in the fallback walk. Successful
// attempts terminate the walk and are reported on the Result instead.
type Attempt struct {
	OptionID       types.ID  `json:"optionId"`
	Carrier        string    `json:"carrier"`
	IdempotencyKey string    `json:"idempotencyKey"`
	Code           string    `json:"code"`
	Message        string    `json:"message"`
	Recoverable    bool      `json:"recoverable"`
	At             time.Time `json:"at"`
}

// Command identifies what to book: the session, the caller's chosen
// option, and the seller's order the shipment fulfils.
type Command struct {
	SessionID types.ID
	OptionID  types.ID
	OrderID   types.ID
}

// Result is a confirmed booking, including how the resolver got there.
type Result struct {
	SessionID      types.ID    `json:"sessionId"`
	OrderID        types.ID    `json:"orderId,omitempty"`
	OptionID       types.ID    `json:"optionId"`
	Carrier        string      `json:"carrier"`
	Service        string      `json:"service"`
	TrackingNumber string      `json:"trackingNumber"`
	Amount         types.Money `json:"amount"`
	AttemptCount   int         `json:"attemptCount"`
	FallbackUsed   bool        `json:"fallbackUsed"`
	Attempts       []Attempt   `json:"attempts,omitempty"`
}

// AttemptedOptionIDs is the audit trail of every option tried, the
// successful one included.
func (r *Result) AttemptedOptionIDs() []types.ID {
	ids := make([]types.ID, 0, len(r.Attempts)+1)
	for _, a := range r.Attempts {
		ids = append(ids, a.OptionID)
	}
	return append(ids, r.OptionID)
}

// ExhaustedError reports that every option from the selected one down
// failed recoverably. The trail tells the caller exactly what was tried.
type ExhaustedError struct {
	SessionID types.ID
	Attempts  []Attempt
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("session %s: all %d booking attempts failed", e.SessionID, len(e.Attempts))
}

// NonRecoverableError stops the fallback walk immediately. When the
// carrier issued an AWB before failing, TrackingNumber carries the partial
// reference so operations can reconcile it manually.
type NonRecoverableError struct {
	OptionID       types.ID
	Carrier        string
	Code           string
	Message        string
	TrackingNumber string
	Attempts       []Attempt
}

func (e *NonRecoverableError) Error() string {
	if e.TrackingNumber != "" {
		return fmt.Sprintf("booking with %s failed after AWB %s was issued: %s", e.Carrier, e.TrackingNumber, e.Code)
	}
	return fmt.Sprintf("booking with %s failed: %s: %s", e.Carrier, e.Code, e.Message)
}
