package users

import (
	"errors"
	"net/http"

	"pigent-app/internal/app/http/middleware"
	"pigent-app/internal/apperrors"
	"pigent-app/internal/domain/billing"
	"pigent-app/internal/domain/bots"
	"pigent-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// GetCurrentUser returns the caller's profile, bots and payment counts.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint(middleware.CtxUserID)
	if userID == 0 {
		apperrors.Respond(c, apperrors.Unauthorized("Unauthorized"))
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var user users.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apperrors.Respond(c, apperrors.NotFound("User not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	var owned []bots.BotInstance
	if err := db.Where("owner_id = ?", user.ID).Order("created_at DESC, id DESC").Find(&owned).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	var counts []struct {
		Status billing.Status
		Count  int64
	}
	if err := db.Model(&billing.Transaction{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", user.ID).
		Group("status").
		Scan(&counts).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	resp := MeResponse{
		User: UserDTO{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		},
		Bots: make([]BotDTO, 0, len(owned)),
	}
	for _, b := range owned {
		resp.Bots = append(resp.Bots, BotDTO{Reference: b.Reference, Status: string(b.Status), BotURL: b.BotURL})
	}
	for _, row := range counts {
		switch row.Status {
		case billing.StatusPending:
			resp.Payments.Pending = row.Count
		case billing.StatusSuccess:
			resp.Payments.Success = row.Count
		case billing.StatusFailed:
			resp.Payments.Failed = row.Count
		}
	}

	c.JSON(http.StatusOK, resp)
}
