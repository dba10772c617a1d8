package paystackwebhook

import (
	"pigent-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

func (h *Handler) handleChargeFailed(c *gin.Context, ev event, raw map[string]any) error {
	_, err := h.ledger.MarkFailed(c.Request.Context(), ev.Data.Reference, billing.PayloadEvent, raw)
	return err
}
