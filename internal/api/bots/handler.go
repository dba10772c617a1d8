package bots

import (
	"errors"

	"pigent-app/internal/apperrors"
	"pigent-app/internal/domain/bots"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves bot listings, the question/answer knowledge base and reviews.
type Handler struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) findBot(c *gin.Context) (*bots.BotInstance, bool) {
	var bot bots.BotInstance
	err := h.db.WithContext(c.Request.Context()).
		Where("reference = ?", c.Param("reference")).
		First(&bot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apperrors.Respond(c, apperrors.NotFound("Bot not found"))
		return nil, false
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return nil, false
	}
	return &bot, true
}
