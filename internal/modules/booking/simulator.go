// README: Deterministic in-process carrier adapter for dev and smoke tests.
package booking

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Simulator stands in for a real carrier API. It books deterministically:
// the same idempotency key always yields the same tracking number, and a
// simulator marked Unavailable always fails with a recoverable error.
type Simulator struct {
	Carrier     string
	Unavailable bool
}

func (s *Simulator) CreateBooking(_ context.Context, req Request, idemKey string) (*Confirmation, error) {
	if s.Unavailable {
		return nil, &ProviderError{
			Code:        CodeUnavailable,
			Message:     fmt.Sprintf("%s simulator configured unavailable", s.Carrier),
			Recoverable: true,
		}
	}

	sum := sha256.Sum256([]byte(idemKey))
	return &Confirmation{
		TrackingNumber:    fmt.Sprintf("%s-%s", strings.ToUpper(s.Carrier), hex.EncodeToString(sum[:6])),
		CarrierShipmentID: string(req.SessionID) + "/" + string(req.Option.ID),
	}, nil
}
