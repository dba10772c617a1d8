package bots

import (
	"net/http"

	"pigent-app/internal/app/http/middleware"
	"pigent-app/internal/apperrors"
	"pigent-app/internal/domain/bots"

	"github.com/gin-gonic/gin"
)

// ListMyBots returns the caller's bots, newest first.
func (h *Handler) ListMyBots(c *gin.Context) {
	var list []bots.BotInstance
	if err := h.db.WithContext(c.Request.Context()).
		Where("owner_id = ?", c.GetUint(middleware.CtxUserID)).
		Order("created_at DESC, id DESC").
		Find(&list).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, list)
}
