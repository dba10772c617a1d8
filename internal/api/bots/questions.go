package bots

import (
	"errors"
	"net/http"
	"strings"

	"pigent-app/internal/apperrors"
	"pigent-app/internal/domain/bots"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handler) ListQuestions(c *gin.Context) {
	bot, ok := h.findBot(c)
	if !ok {
		return
	}

	questions := []bots.Question{}
	if err := h.db.WithContext(c.Request.Context()).
		Where("bot_instance_id = ?", bot.ID).
		Order("id").
		Find(&questions).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, questions)
}

type answerRequest struct {
	QuestionID uint   `json:"question_id"`
	Text       string `json:"text"`
}

// Answer looks a question up by id, or by case-insensitive text, and returns
// its stored answer. A bot that is not ready answers with its status only.
func (h *Handler) Answer(c *gin.Context) {
	bot, ok := h.findBot(c)
	if !ok {
		return
	}
	if bot.Status != bots.StatusReady {
		c.JSON(http.StatusOK, gin.H{"status": bot.Status})
		return
	}

	var body answerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.RespondBinding(c, err)
		return
	}
	text := strings.TrimSpace(body.Text)
	if body.QuestionID == 0 && text == "" {
		apperrors.Respond(c, apperrors.Validation("question_id", "Provide question_id or text"))
		return
	}

	q := h.db.WithContext(c.Request.Context()).
		Preload("Answer").
		Where("bot_instance_id = ?", bot.ID)
	if body.QuestionID != 0 {
		q = q.Where("id = ?", body.QuestionID)
	} else {
		q = q.Where("LOWER(text) = LOWER(?)", text).Order("id")
	}

	var question bots.Question
	err := q.First(&question).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	if err != nil || question.Answer == nil || question.Answer.Text == "" {
		apperrors.Respond(c, apperrors.NotFound("No answer found for the provided question."))
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": question.Answer.Text})
}

type questionRequest struct {
	Text   string `json:"text" binding:"required"`
	Answer string `json:"answer"`
}

// AddQuestion stores a question and optional answer in a bot's knowledge base.
func (h *Handler) AddQuestion(c *gin.Context) {
	bot, ok := h.findBot(c)
	if !ok {
		return
	}

	var body questionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.RespondBinding(c, err)
		return
	}

	question := bots.Question{BotInstanceID: bot.ID, Text: strings.TrimSpace(body.Text)}
	if answer := strings.TrimSpace(body.Answer); answer != "" {
		question.Answer = &bots.Answer{Text: answer}
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&question).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusCreated, question)
}
