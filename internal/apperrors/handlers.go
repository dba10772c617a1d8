package apperrors

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"pigent-app/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Respond writes err as JSON. Errors that are not *AppError become a 500
// without leaking their text.
func Respond(c *gin.Context, err error) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal(err)
	}

	if appErr.HTTPCode >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context(), nil).Error("request failed",
			zap.String("code", string(appErr.Code)),
			zap.Error(appErr.Unwrap()),
		)
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, appErr)
}

// RespondBinding converts gin binding failures into a field-level 400.
func RespondBinding(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		Respond(c, Validation(fe.Field(), fe.Field()+" failed on '"+fe.Tag()+"'"))
		return
	}
	Respond(c, BadRequest("Malformed request body"))
}

// Report JSON field names in validation errors instead of Go field names.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}
