// README: Shared handler utilities: JSON helpers, domain error mapping.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shipquote/internal/modules/booking"
	"shipquote/internal/modules/quote"
	"shipquote/internal/modules/ratecard"
	"shipquote/internal/modules/tariff"
	"shipquote/internal/modules/tenant"
	"shipquote/internal/modules/zone"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeDomainError translates module sentinels and typed errors into HTTP
// statuses. Anything unrecognized is a 500 with a generic body; details
// stay in the logs.
func writeDomainError(c *gin.Context, err error) {
	var (
		exhausted      *booking.ExhaustedError
		nonRecoverable *booking.NonRecoverableError
	)
	switch {
	case errors.As(err, &exhausted):
		writeJSON(c, http.StatusBadGateway, gin.H{
			"error":    exhausted.Error(),
			"attempts": exhausted.Attempts,
		})
	case errors.As(err, &nonRecoverable):
		body := gin.H{
			"error":    nonRecoverable.Error(),
			"code":     nonRecoverable.Code,
			"attempts": nonRecoverable.Attempts,
		}
		if nonRecoverable.TrackingNumber != "" {
			body["trackingNumber"] = nonRecoverable.TrackingNumber
		}
		writeJSON(c, http.StatusBadGateway, body)
	case errors.Is(err, quote.ErrSessionNotFound),
		errors.Is(err, quote.ErrOptionNotFound),
		errors.Is(err, ratecard.ErrCardNotFound),
		errors.Is(err, tenant.ErrSettingsNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, quote.ErrSessionExpired):
		writeError(c, http.StatusGone, err.Error())
	case errors.Is(err, quote.ErrSessionUsed),
		errors.Is(err, booking.ErrBookingInProgress):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, quote.ErrNoQuotes),
		errors.Is(err, quote.ErrReverseDisabled),
		errors.Is(err, ratecard.ErrNoRateCard):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, zone.ErrBadPincode),
		errors.Is(err, tariff.ErrInvalidWeight):
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
