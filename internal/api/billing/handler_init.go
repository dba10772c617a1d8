package billing

import (
	"net/http"

	"pigent-app/internal/app/http/middleware"
	"pigent-app/internal/apperrors"
	"pigent-app/internal/payments"

	"github.com/gin-gonic/gin"
)

type initRequest struct {
	Currency string `json:"currency" binding:"required"`
	Plan     string `json:"plan" binding:"required"`
	Quantity int    `json:"quantity"`
	Express  bool   `json:"express"`
	Model    string `json:"model"`
}

// InitPayment prices the requested plan server-side and returns the Paystack
// checkout URL.
func (h *Handler) InitPayment(c *gin.Context) {
	userID := c.GetUint(middleware.CtxUserID)
	if userID == 0 {
		apperrors.Respond(c, apperrors.Unauthorized("Unauthorized"))
		return
	}

	var body initRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.RespondBinding(c, err)
		return
	}

	res, err := h.svc.Checkout(c.Request.Context(), payments.Payer{
		UserID: userID,
		Email:  c.GetString(middleware.CtxEmail),
	}, payments.CheckoutRequest{
		Currency: body.Currency,
		Plan:     body.Plan,
		Quantity: body.Quantity,
		Express:  body.Express,
		Model:    body.Model,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorization_url": res.AuthorizationURL,
		"reference":         res.Reference,
		"amount":            res.Amount.StringFixed(2),
		"currency":          res.Currency,
	})
}
