package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"pigent-app/internal/apperrors"
	"pigent-app/internal/domain/bots"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type botStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	BotURL *string `json:"bot_url"`
}

var errIllegalTransition = errors.New("illegal bot status transition")

// UpdateBotStatus moves a bot along pending -> processing -> ready|failed.
func (h *Handler) UpdateBotStatus(c *gin.Context) {
	var body botStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.RespondBinding(c, err)
		return
	}
	to, ok := bots.ParseStatus(strings.ToLower(strings.TrimSpace(body.Status)))
	if !ok {
		apperrors.Respond(c, apperrors.Validation("status", "Unknown status"))
		return
	}

	ref := c.Param("reference")
	var bot bots.BotInstance
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reference = ?", ref).First(&bot).Error; err != nil {
			return err
		}
		if !bots.CanTransition(bot.Status, to) {
			return fmt.Errorf("%w: %s -> %s", errIllegalTransition, bot.Status, to)
		}

		updates := map[string]any{"status": to}
		if body.BotURL != nil {
			updates["bot_url"] = strings.TrimSpace(*body.BotURL)
		}
		res := tx.Model(&bots.BotInstance{}).
			Where("id = ? AND status = ?", bot.ID, bot.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: status changed concurrently", errIllegalTransition)
		}
		return tx.First(&bot, bot.ID).Error
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		apperrors.Respond(c, apperrors.NotFound("Bot not found"))
		return
	case errors.Is(err, errIllegalTransition):
		apperrors.Respond(c, apperrors.Wrap(err, apperrors.CodeInvalidStatus, err.Error(), http.StatusBadRequest))
		return
	case err != nil:
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	h.logger.Info("bot status updated", zap.String("bot_reference", bot.Reference), zap.String("status", string(bot.Status)))
	c.JSON(http.StatusOK, bot)
}
