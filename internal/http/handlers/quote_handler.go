// README: Quote session handlers: build, fetch, book.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"shipquote/internal/http/middleware"
	"shipquote/internal/modules/booking"
	"shipquote/internal/modules/pricing"
	"shipquote/internal/modules/quote"
	"shipquote/internal/modules/tariff"
	"shipquote/internal/types"
)

type QuoteHandler struct {
	builder  *quote.Builder
	sessions *quote.PGStore
	resolver *booking.Resolver
}

func NewQuoteHandler(builder *quote.Builder, sessions *quote.PGStore, resolver *booking.Resolver) *QuoteHandler {
	return &QuoteHandler{builder: builder, sessions: sessions, resolver: resolver}
}

type shipmentReq struct {
	OriginPincode  string          `json:"originPincode"`
	DestPincode    string          `json:"destPincode"`
	ActualWeightKg float64         `json:"actualWeightKg"`
	LengthCm       float64         `json:"lengthCm"`
	WidthCm        float64         `json:"widthCm"`
	HeightCm       float64         `json:"heightCm"`
	PaymentMode    string          `json:"paymentMode"`
	Direction      string          `json:"direction"`
	DeclaredValue  decimal.Decimal `json:"declaredValue"`
	CODAmount      decimal.Decimal `json:"codAmount"`
}

func (r shipmentReq) params() pricing.ShipmentParams {
	mode := tariff.PaymentMode(r.PaymentMode)
	if mode == "" {
		mode = tariff.PaymentPrepaid
	}
	dir := tariff.Direction(r.Direction)
	if dir == "" {
		dir = tariff.DirectionForward
	}
	return pricing.ShipmentParams{
		OriginPincode:  r.OriginPincode,
		DestPincode:    r.DestPincode,
		ActualWeightKg: r.ActualWeightKg,
		Dims: tariff.Dimensions{
			LengthCm: r.LengthCm,
			WidthCm:  r.WidthCm,
			HeightCm: r.HeightCm,
		},
		PaymentMode:   mode,
		Direction:     dir,
		DeclaredValue: r.DeclaredValue,
		CODAmount:     r.CODAmount,
	}
}

type createQuoteReq struct {
	shipmentReq
	SellerID        string `json:"sellerId"`
	CustomerID      string `json:"customerId"`
	CustomerGroupID string `json:"customerGroupId"`
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req createQuoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OriginPincode == "" || req.DestPincode == "" || req.ActualWeightKg <= 0 {
		writeError(c, http.StatusBadRequest, "originPincode, destPincode and actualWeightKg are required")
		return
	}

	build := quote.BuildRequest{
		TenantID: types.ID(middleware.TenantID(c)),
		SellerID: types.ID(req.SellerID),
		Params:   req.params(),
	}
	if req.CustomerID != "" {
		id := types.ID(req.CustomerID)
		build.CustomerID = &id
	}
	if req.CustomerGroupID != "" {
		id := types.ID(req.CustomerGroupID)
		build.CustomerGroupID = &id
	}

	sess, err := h.builder.Build(c.Request.Context(), build)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, sess)
}

func (h *QuoteHandler) Get(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if sess.TenantID != types.ID(middleware.TenantID(c)) {
		writeError(c, http.StatusNotFound, quote.ErrSessionNotFound.Error())
		return
	}
	if sess.Status == quote.StatusOpen && sess.Expired(time.Now()) {
		writeDomainError(c, quote.ErrSessionExpired)
		return
	}
	writeJSON(c, http.StatusOK, sess)
}

type bookReq struct {
	OptionID string `json:"optionId"`
	OrderID  string `json:"orderId"`
}

func (h *QuoteHandler) Book(c *gin.Context) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil || req.OptionID == "" {
		writeError(c, http.StatusBadRequest, "optionId is required")
		return
	}

	sessionID := types.ID(c.Param("id"))
	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if sess.TenantID != types.ID(middleware.TenantID(c)) {
		writeError(c, http.StatusNotFound, quote.ErrSessionNotFound.Error())
		return
	}

	res, err := h.resolver.Book(c.Request.Context(), booking.Command{
		SessionID: sessionID,
		OptionID:  types.ID(req.OptionID),
		OrderID:   types.ID(req.OrderID),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, res)
}
