package plans

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"pigent-app/internal/domain/pricing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPlans(t *testing.T) {
	gin.SetMode(gin.TestMode)
	catalog := pricing.NewCatalog([]string{"NGN", "USD"},
		map[string]map[string]decimal.Decimal{
			"NGN": {"starter": decimal.NewFromInt(5000), pricing.SingleCoursePlan: decimal.NewFromInt(3500)},
			"USD": {"starter": decimal.RequireFromString("10")},
		},
		map[string]decimal.Decimal{"NGN": decimal.NewFromInt(2000)})

	r := gin.New()
	r.GET("/plans", New(catalog).ListPlans)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans?currency=ngn", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{
		"currency":"NGN",
		"plans":[
			{"name":"single-course","price":"3500.00","per_unit":true},
			{"name":"starter","price":"5000.00","per_unit":false}
		],
		"express_addon":"2000.00",
		"min_quantity":1,
		"max_quantity":20
	}]`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"currency":"USD"`)
	assert.Contains(t, w.Body.String(), `"express_addon":null`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans?currency=EUR", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
