package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespond(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   map[string]any
	}{
		{
			name:       "validation names the field",
			err:        Validation("currency", "currency not allowed: GBP"),
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"code": "VALIDATION_FAILED", "field": "currency", "detail": "currency not allowed: GBP"},
		},
		{
			name:       "unknown errors are hidden",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]any{"code": "INTERNAL_ERROR", "detail": "Internal server error"},
		},
		{
			name:       "wrapped app error keeps its status",
			err:        errors.Join(errors.New("ctx"), NotFound("Transaction not found")),
			wantStatus: http.StatusNotFound,
			wantBody:   map[string]any{"code": "NOT_FOUND", "detail": "Transaction not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			Respond(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestRespondBinding(t *testing.T) {
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var body struct {
			Currency string `json:"currency" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondBinding(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"currency"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Malformed request body")
}
