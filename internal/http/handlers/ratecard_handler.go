// README: Rate card admin handlers: create, list, fetch, retire.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shipquote/internal/http/middleware"
	"shipquote/internal/modules/ratecard"
	"shipquote/internal/modules/tenant"
	"shipquote/internal/types"
)

type RateCardHandler struct {
	cards   *ratecard.Store
	tenants *tenant.Store
}

func NewRateCardHandler(cards *ratecard.Store, tenants *tenant.Store) *RateCardHandler {
	return &RateCardHandler{cards: cards, tenants: tenants}
}

func (h *RateCardHandler) Create(c *gin.Context) {
	var card ratecard.RateCard
	if err := c.ShouldBindJSON(&card); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	// Cards are always created under the caller's tenant; cost cards are
	// seeded out of band, not through this API.
	card.TenantID = types.ID(middleware.TenantID(c))
	card.CarrierID = ""
	if card.ID == "" {
		card.ID = types.NewID()
	}
	if card.Status == "" {
		card.Status = ratecard.StatusDraft
	}

	if err := h.cards.Create(c.Request.Context(), &card); err != nil {
		switch err {
		case ratecard.ErrAmbiguousRule, ratecard.ErrEmptyRule, ratecard.ErrUnorderedSlabs:
			writeError(c, http.StatusBadRequest, err.Error())
		default:
			writeDomainError(c, err)
		}
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"id": card.ID})
}

func (h *RateCardHandler) Get(c *gin.Context) {
	card, err := h.cards.GetByID(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if card.TenantID != types.ID(middleware.TenantID(c)) {
		writeError(c, http.StatusNotFound, ratecard.ErrCardNotFound.Error())
		return
	}
	writeJSON(c, http.StatusOK, card)
}

func (h *RateCardHandler) List(c *gin.Context) {
	cards, err := h.cards.ListByTenant(c.Request.Context(), types.ID(middleware.TenantID(c)))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"cards": cards})
}

func (h *RateCardHandler) Delete(c *gin.Context) {
	id := types.ID(c.Param("id"))
	card, err := h.cards.GetByID(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if card.TenantID != types.ID(middleware.TenantID(c)) {
		writeError(c, http.StatusNotFound, ratecard.ErrCardNotFound.Error())
		return
	}
	if err := h.cards.SoftDelete(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type setDefaultReq struct {
	RateCardID string `json:"rateCardId"`
}

// SetDefault points the tenant at a new default rate card.
func (h *RateCardHandler) SetDefault(c *gin.Context) {
	var req setDefaultReq
	if err := c.ShouldBindJSON(&req); err != nil || req.RateCardID == "" {
		writeError(c, http.StatusBadRequest, "rateCardId is required")
		return
	}

	tenantID := types.ID(middleware.TenantID(c))
	card, err := h.cards.GetByID(c.Request.Context(), types.ID(req.RateCardID))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	if card.TenantID != tenantID {
		writeError(c, http.StatusNotFound, ratecard.ErrCardNotFound.Error())
		return
	}

	if err := h.tenants.SetDefaultRateCard(c.Request.Context(), tenantID, card.ID); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
