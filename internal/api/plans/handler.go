package plans

import (
	"net/http"

	"pigent-app/internal/apperrors"
	"pigent-app/internal/domain/pricing"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	catalog *pricing.Catalog
}

func New(catalog *pricing.Catalog) *Handler {
	return &Handler{catalog: catalog}
}

type PlanDTO struct {
	Name    string `json:"name"`
	Price   string `json:"price"`
	PerUnit bool   `json:"per_unit"`
}

type CurrencyPlansDTO struct {
	Currency     string    `json:"currency"`
	Plans        []PlanDTO `json:"plans"`
	ExpressAddon *string   `json:"express_addon"`
	MinQuantity  int       `json:"min_quantity"`
	MaxQuantity  int       `json:"max_quantity"`
}

// ListPlans publishes the price catalog, optionally for one ?currency=.
func (h *Handler) ListPlans(c *gin.Context) {
	currencies := h.catalog.Currencies()
	if q := c.Query("currency"); q != "" {
		cur := pricing.NormalizeCurrency(q)
		if !h.catalog.Allowed(cur) {
			apperrors.Respond(c, apperrors.Validation("currency", "Currency not allowed"))
			return
		}
		currencies = []string{cur}
	}

	out := make([]CurrencyPlansDTO, 0, len(currencies))
	for _, cur := range currencies {
		entry := CurrencyPlansDTO{
			Currency:    cur,
			Plans:       []PlanDTO{},
			MinQuantity: pricing.MinQuantity,
			MaxQuantity: pricing.MaxQuantity,
		}
		for _, name := range h.catalog.PlanNames(cur) {
			price, _ := h.catalog.Price(cur, name)
			entry.Plans = append(entry.Plans, PlanDTO{
				Name:    name,
				Price:   price.StringFixed(2),
				PerUnit: name == pricing.SingleCoursePlan,
			})
		}
		if addon, ok := h.catalog.ExpressAddon(cur); ok {
			s := addon.StringFixed(2)
			entry.ExpressAddon = &s
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, out)
}
