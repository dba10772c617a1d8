package middleware

import (
	"net/http"
	"strings"

	"pigent-app/internal/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

func AuthMiddleware(secret string) gin.HandlerFunc {
	jwtKey := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		if len(jwtKey) == 0 {
			apperrors.Respond(c, apperrors.New(apperrors.CodeNotConfigured, "JWT secret not configured", http.StatusInternalServerError))
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apperrors.Respond(c, apperrors.Unauthorized("Authorization header missing"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			apperrors.Respond(c, apperrors.Unauthorized("Bearer token malformed"))
			return
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(*jwt.Token) (interface{}, error) {
			return jwtKey, nil
		})
		if err != nil || !token.Valid {
			apperrors.Respond(c, apperrors.Unauthorized("Invalid or expired token"))
			return
		}

		userID, ok := claims["user_id"].(float64)
		if !ok || userID <= 0 {
			apperrors.Respond(c, apperrors.Unauthorized("Invalid token claims"))
			return
		}
		c.Set(CtxUserID, uint(userID))
		if email, ok := claims["email"].(string); ok {
			c.Set(CtxEmail, email)
		}
		if role, ok := claims["role"].(string); ok {
			c.Set(CtxRole, role)
		}
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(CtxRole)
		if !exists {
			apperrors.Respond(c, apperrors.Unauthorized("Role not found in token"))
			return
		}

		if value != role {
			apperrors.Respond(c, apperrors.Forbidden("Access denied"))
			return
		}

		c.Next()
	}
}
