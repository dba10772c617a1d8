package billing

import (
	"errors"
	"net/http"

	"pigent-app/internal/apperrors"
	"pigent-app/internal/domain/pricing"
	"pigent-app/internal/infra/paystack"
	"pigent-app/internal/payments"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *payments.Service
}

func New(svc *payments.Service) *Handler {
	return &Handler{svc: svc}
}

// respondError maps payment workflow errors to HTTP answers. Provider
// failures carry the Paystack body under "paystack".
func respondError(c *gin.Context, err error) {
	var gwErr *paystack.GatewayError
	if errors.As(err, &gwErr) {
		status := http.StatusBadGateway
		detail := "Payment provider unavailable"
		if gwErr.IsClientError() {
			status = http.StatusBadRequest
			detail = "Payment provider rejected the request"
		}
		c.AbortWithStatusJSON(status, gin.H{"detail": detail, "paystack": gwErr.Payload()})
		return
	}

	switch {
	case errors.Is(err, pricing.ErrCurrencyNotAllowed):
		apperrors.Respond(c, apperrors.Validation("currency", "Currency not allowed"))
	case errors.Is(err, pricing.ErrInvalidPlan):
		apperrors.Respond(c, apperrors.Validation("plan", "Invalid plan for currency"))
	case errors.Is(err, pricing.ErrExpressUnavailable):
		apperrors.Respond(c, apperrors.Validation("express", "Express add-on not available for currency"))
	case errors.Is(err, payments.ErrModelNotAllowed):
		apperrors.Respond(c, apperrors.Validation("model", "Model not allowed"))
	case errors.Is(err, payments.ErrMissingEmail):
		apperrors.Respond(c, apperrors.Validation("email", "Account has no email address"))
	case errors.Is(err, payments.ErrNotFound):
		apperrors.Respond(c, apperrors.NotFound("Transaction not found"))
	case errors.Is(err, payments.ErrNotSuccessful):
		apperrors.Respond(c, apperrors.New(apperrors.CodeInvalidStatus, "Transaction is not successful", http.StatusBadRequest))
	case errors.Is(err, payments.ErrGatewayDisabled), errors.Is(err, paystack.ErrNotConfigured):
		apperrors.Respond(c, apperrors.Wrap(err, apperrors.CodeNotConfigured, "Payment provider not configured", http.StatusInternalServerError))
	default:
		apperrors.Respond(c, err)
	}
}
