// README: Single-candidate price evaluation handler with full breakdown.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"shipquote/internal/http/middleware"
	"shipquote/internal/modules/pricing"
	"shipquote/internal/modules/tariff"
	"shipquote/internal/types"
)

type PriceHandler struct {
	pricer *pricing.Service
}

func NewPriceHandler(pricer *pricing.Service) *PriceHandler {
	return &PriceHandler{pricer: pricer}
}

type evaluateReq struct {
	shipmentReq
	Carrier         string `json:"carrier"`
	Service         string `json:"service"`
	CustomerID      string `json:"customerId"`
	CustomerGroupID string `json:"customerGroupId"`
}

type breakdownDTO struct {
	ChargeableWeightKg     float64         `json:"chargeableWeightKg"`
	BaseCharge             decimal.Decimal `json:"baseCharge"`
	AdditionalWeightCharge decimal.Decimal `json:"additionalWeightCharge"`
	ZoneSurcharge          decimal.Decimal `json:"zoneSurcharge"`
	FuelSurcharge          decimal.Decimal `json:"fuelSurcharge"`
	CODFee                 decimal.Decimal `json:"codFee"`
	MinimumAdjustment      decimal.Decimal `json:"minimumAdjustment"`
	Subtotal               decimal.Decimal `json:"subtotal"`
	Tax                    decimal.Decimal `json:"tax"`
	Total                  types.Money     `json:"total"`
}

func breakdownToDTO(b *tariff.Breakdown) *breakdownDTO {
	if b == nil {
		return nil
	}
	return &breakdownDTO{
		ChargeableWeightKg:     b.ChargeableWeightKg,
		BaseCharge:             b.BaseCharge,
		AdditionalWeightCharge: b.AdditionalWeightCharge,
		ZoneSurcharge:          b.ZoneSurcharge,
		FuelSurcharge:          b.FuelSurcharge,
		CODFee:                 b.CODFee,
		MinimumAdjustment:      b.MinimumAdjustment,
		Subtotal:               b.Subtotal,
		Tax:                    b.Tax,
		Total:                  b.Total,
	}
}

// Evaluate prices one carrier/service without opening a session. Meant for
// rate checks and debugging tariff configuration.
func (h *PriceHandler) Evaluate(c *gin.Context) {
	var req evaluateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Carrier == "" || req.OriginPincode == "" || req.DestPincode == "" {
		writeError(c, http.StatusBadRequest, "carrier, originPincode and destPincode are required")
		return
	}

	q := pricing.Query{
		TenantID:  types.ID(middleware.TenantID(c)),
		Candidate: pricing.Candidate{Carrier: req.Carrier, Service: req.Service},
		Params:    req.params(),
	}
	if req.CustomerID != "" {
		id := types.ID(req.CustomerID)
		q.CustomerID = &id
	}
	if req.CustomerGroupID != "" {
		id := types.ID(req.CustomerGroupID)
		q.CustomerGroupID = &id
	}

	quote, err := h.pricer.Evaluate(c.Request.Context(), q)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, gin.H{
		"carrier":         quote.Candidate.Carrier,
		"service":         quote.Candidate.Service,
		"zone":            quote.Zone,
		"rateCardId":      quote.RateCardID,
		"selectionReason": quote.SelectionReason,
		"sell":            breakdownToDTO(quote.Sell),
		"cost":            breakdownToDTO(quote.Cost),
		"margin":          quote.Margin(),
		"marginPercent":   quote.MarginPercent(),
		"source":          quote.Source,
		"confidence":      quote.Confidence,
	})
}
