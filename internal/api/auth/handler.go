package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"pigent-app/internal/app/http/middleware"
	"pigent-app/internal/apperrors"
	"pigent-app/internal/domain/users"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Handler struct {
	db        *gorm.DB
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func New(db *gorm.DB, jwtSecret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{db: db, jwtSecret: jwtSecret, tokenTTL: DefaultTokenTTL, logger: logger.Named("auth")}
}

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.RespondBinding(c, err)
		return
	}

	if !isPasswordStrong(input.Password) {
		apperrors.Respond(c, apperrors.Validation("password", "Password must be at least 8 characters long and contain both letters and numbers"))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	hashed := string(hashedPassword)

	user := users.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    normalizeEmail(input.Email),
		Password: &hashed,
		Role:     users.RoleUser,
	}

	db := h.db.WithContext(c.Request.Context())
	var existing int64
	if err := db.Model(&users.User{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	if existing > 0 {
		apperrors.Respond(c, apperrors.New(apperrors.CodeConflict, "Email already registered", http.StatusConflict))
		return
	}
	if err := db.Create(&user).Error; err != nil {
		apperrors.Respond(c, apperrors.Wrap(err, apperrors.CodeConflict, "Email may already exist", http.StatusConflict))
		return
	}

	h.logger.Info("user registered", zap.Uint("user_id", user.ID))
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully.", "id": user.ID})
}

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		apperrors.RespondBinding(c, err)
		return
	}

	var user users.User
	err := h.db.WithContext(c.Request.Context()).Where("email = ?", normalizeEmail(input.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apperrors.Respond(c, apperrors.Unauthorized("Invalid credentials"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	if user.Password == nil || *user.Password == "" {
		apperrors.Respond(c, apperrors.Unauthorized("Invalid credentials"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("Invalid credentials"))
		return
	}

	tokenString, err := IssueToken(h.jwtSecret, user, h.tokenTTL)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": tokenString})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	userID := c.GetUint(middleware.CtxUserID)
	if userID == 0 {
		apperrors.Respond(c, apperrors.Unauthorized("Unauthorized"))
		return
	}

	var body struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apperrors.RespondBinding(c, err)
		return
	}
	if !isPasswordStrong(body.NewPassword) {
		apperrors.Respond(c, apperrors.Validation("new_password", "New password must be at least 8 characters with letters and numbers"))
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var user users.User
	if err := db.First(&user, userID).Error; err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("User not found"))
		return
	}
	if user.Password == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(body.OldPassword)) != nil {
		apperrors.Respond(c, apperrors.Unauthorized("Old password is incorrect"))
		return
	}

	hashedNew, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}
	if err := db.Model(&user).Update("password", string(hashedNew)).Error; err != nil {
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}
