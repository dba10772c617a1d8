package billing

import (
	"net/http"

	"pigent-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

// VerifyPayment asks Paystack for the caller's transaction, applies the
// answer locally and relays the provider payload with its status code.
func (h *Handler) VerifyPayment(c *gin.Context) {
	res, err := h.svc.Reconcile(c.Request.Context(), c.Param("reference"), c.GetUint(middleware.CtxUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(res.HTTPStatus, res.Raw)
}

// ForceLinkBot provisions the bot of a successful transaction that has none.
func (h *Handler) ForceLinkBot(c *gin.Context) {
	ctx := c.Request.Context()
	ref := c.Param("reference")

	if _, err := h.svc.Ledger().GetOwned(ctx, ref, c.GetUint(middleware.CtxUserID)); err != nil {
		respondError(c, err)
		return
	}

	out, err := h.svc.Ledger().EnsureBot(ctx, ref)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bot_reference": out.Bot.Reference,
		"created":       out.BotCreated,
	})
}
