package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	billingapi "pigent-app/internal/api/billing"
	"pigent-app/internal/apperrors"
	"pigent-app/internal/domain/billing"
	"pigent-app/internal/domain/bots"
	"pigent-app/internal/domain/users"
	"pigent-app/internal/payments"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	ledger *payments.Ledger
	logger *zap.Logger
}

func New(db *gorm.DB, ledger *payments.Ledger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{db: db, ledger: ledger, logger: logger.Named("admin")}
}

type AdminUser struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	BotCount int64  `json:"bot_count"`
}

type AdminPayment struct {
	billingapi.Receipt
	Email string `json:"email"`
}

type AdminStats struct {
	TotalUsers            int64             `json:"total_users"`
	RevenueByCurrency     map[string]string `json:"revenue_by_currency"`
	RecentRevenue         map[string]string `json:"recent_revenue"`
	TransactionsPerStatus map[string]int64  `json:"transactions_per_status"`
	BotsPerStatus         map[string]int64  `json:"bots_per_status"`
}

func (h *Handler) GetAdminStats(c *gin.Context) {
	db := h.db.WithContext(c.Request.Context())
	stats := AdminStats{}

	if err := db.Model(&users.User{}).Count(&stats.TotalUsers).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	var err error
	if stats.RevenueByCurrency, err = revenue(db, time.Time{}); err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	if stats.RecentRevenue, err = revenue(db, time.Now().AddDate(0, 0, -30)); err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	if stats.TransactionsPerStatus, err = countByStatus(db, &billing.Transaction{}); err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	if stats.BotsPerStatus, err = countByStatus(db, &bots.BotInstance{}); err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, stats)
}

func revenue(db *gorm.DB, since time.Time) (map[string]string, error) {
	var rows []struct {
		Currency string
		Total    decimal.Decimal
	}
	q := db.Model(&billing.Transaction{}).
		Select("currency, COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", billing.StatusSuccess)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if err := q.Group("currency").Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Currency] = r.Total.StringFixed(2)
	}
	return out, nil
}

func countByStatus(db *gorm.DB, model any) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.Model(model).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

func (h *Handler) ListAllUsers(c *gin.Context) {
	var result []AdminUser
	err := h.db.WithContext(c.Request.Context()).
		Model(&users.User{}).
		Select("users.id, users.name, users.email, users.role, " +
			"(SELECT COUNT(*) FROM bot_instances WHERE bot_instances.owner_id = users.id) AS bot_count").
		Order("users.id").
		Scan(&result).Error
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	if result == nil {
		result = []AdminUser{}
	}
	c.JSON(http.StatusOK, result)
}

// ListAllPayments lists every transaction, optionally filtered by ?status=.
func (h *Handler) ListAllPayments(c *gin.Context) {
	status := billing.Status(c.Query("status"))
	switch status {
	case "", billing.StatusPending, billing.StatusSuccess, billing.StatusFailed:
	default:
		apperrors.Respond(c, apperrors.Validation("status", "Unknown status"))
		return
	}

	list, err := h.ledger.ListAll(c.Request.Context(), status)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	result := make([]AdminPayment, 0, len(list))
	for i := range list {
		p := AdminPayment{Receipt: billingapi.NewReceipt(&list[i])}
		if list[i].User != nil {
			p.Email = list[i].User.Email
		}
		result = append(result, p)
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetUserDetails(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("id", "Invalid user id"))
		return
	}

	var user users.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("User not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	txs, err := h.ledger.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	receipts := make([]billingapi.Receipt, 0, len(txs))
	for i := range txs {
		receipts = append(receipts, billingapi.NewReceipt(&txs[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"payments": receipts,
	})
}
