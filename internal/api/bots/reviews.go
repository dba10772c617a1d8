package bots

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pigent-app/internal/app/http/middleware"
	"pigent-app/internal/apperrors"
	"pigent-app/internal/domain/bots"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type reviewRequest struct {
	Bot     string `json:"bot" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

type ReviewDTO struct {
	ID        uint      `json:"id"`
	Bot       string    `json:"bot"`
	Student   uint      `json:"student"`
	Rating    uint8     `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func toReviewDTO(r bots.Review, botRef string) ReviewDTO {
	return ReviewDTO{
		ID:        r.ID,
		Bot:       botRef,
		Student:   r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

// CreateReview rates one of the caller's own bots.
func (h *Handler) CreateReview(c *gin.Context) {
	userID := c.GetUint(middleware.CtxUserID)

	var body reviewRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.RespondBinding(c, err)
		return
	}

	var bot bots.BotInstance
	err := h.db.WithContext(c.Request.Context()).
		Where("reference = ?", strings.TrimSpace(body.Bot)).
		First(&bot).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		apperrors.Respond(c, apperrors.Validation("bot", "Bot not found"))
		return
	case err != nil:
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	if bot.OwnerID != userID {
		apperrors.Respond(c, apperrors.Validation("bot", "You can only review your own bot."))
		return
	}

	review := bots.Review{
		BotInstanceID: bot.ID,
		UserID:        userID,
		Rating:        uint8(body.Rating),
		Comment:       strings.TrimSpace(body.Comment),
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&review).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusCreated, toReviewDTO(review, bot.Reference))
}

// ListReviews returns reviews newest first, optionally for one bot (?bot=).
func (h *Handler) ListReviews(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Preload("BotInstance").Order("created_at DESC, id DESC")
	if ref := strings.TrimSpace(c.Query("bot")); ref != "" {
		q = q.Where("bot_instance_id IN (?)",
			h.db.Model(&bots.BotInstance{}).Select("id").Where("reference = ?", ref))
	}

	var list []bots.Review
	if err := q.Find(&list).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	out := make([]ReviewDTO, 0, len(list))
	for _, r := range list {
		ref := ""
		if r.BotInstance != nil {
			ref = r.BotInstance.Reference
		}
		out = append(out, toReviewDTO(r, ref))
	}
	c.JSON(http.StatusOK, out)
}
