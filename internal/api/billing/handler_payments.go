package billing

import (
	"net/http"
	"time"

	"pigent-app/internal/app/http/middleware"
	"pigent-app/internal/apperrors"
	"pigent-app/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

type Receipt struct {
	Reference    string    `json:"reference"`
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency"`
	Plan         string    `json:"plan"`
	Quantity     int       `json:"quantity"`
	Express      bool      `json:"express"`
	Model        string    `json:"model,omitempty"`
	Status       string    `json:"status"`
	BotReference string    `json:"bot_reference,omitempty"`
	BotStatus    string    `json:"bot_status,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewReceipt(t *billing.Transaction) Receipt {
	r := Receipt{
		Reference:    t.Reference,
		Amount:       t.Amount.StringFixed(2),
		Currency:     t.Currency,
		Plan:         t.Plan,
		Quantity:     t.Quantity,
		Express:      t.Express,
		Model:        t.Model,
		Status:       string(t.Status),
		BotReference: t.BotReference(),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if t.BotInstance != nil {
		r.BotReference = t.BotInstance.Reference
		r.BotStatus = string(t.BotInstance.Status)
	}
	return r
}

func (h *Handler) GetPaymentHistory(c *gin.Context) {
	userID := c.GetUint(middleware.CtxUserID)
	if userID == 0 {
		apperrors.Respond(c, apperrors.Unauthorized("Unauthorized"))
		return
	}

	list, err := h.svc.Ledger().ListByUser(c.Request.Context(), userID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	out := make([]Receipt, 0, len(list))
	for i := range list {
		out = append(out, NewReceipt(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetReceipt(c *gin.Context) {
	t, err := h.svc.Ledger().GetOwned(c.Request.Context(), c.Param("reference"), c.GetUint(middleware.CtxUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReceipt(t))
}
