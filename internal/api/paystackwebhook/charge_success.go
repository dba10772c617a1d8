package paystackwebhook

import (
	"pigent-app/internal/domain/billing"
	"pigent-app/internal/payments"

	"github.com/gin-gonic/gin"
)

func (h *Handler) handleChargeSuccess(c *gin.Context, ev event, raw map[string]any) error {
	_, err := h.ledger.MarkSuccess(c.Request.Context(), ev.Data.Reference, payments.Confirmation{
		Source:   billing.PayloadEvent,
		Amount:   ev.Data.Amount,
		Currency: ev.Data.Currency,
		Payload:  raw,
	})
	return err
}
