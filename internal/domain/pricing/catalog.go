package pricing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// SingleCoursePlan is the only plan whose price is multiplied by quantity.
const SingleCoursePlan = "single-course"

const (
	MinQuantity = 1
	MaxQuantity = 20
)

var (
	ErrCurrencyNotAllowed = errors.New("currency not allowed")
	ErrInvalidPlan        = errors.New("invalid plan for currency")
	ErrExpressUnavailable = errors.New("express add-on not available for currency")
)

var hundred = decimal.NewFromInt(100)

// Catalog holds the allowed currencies, per-currency plan prices and the
// express add-on surcharge. It is immutable after construction.
type Catalog struct {
	currencies []string
	plans      map[string]map[string]decimal.Decimal
	express    map[string]decimal.Decimal
}

// Request is the client-facing price selection. Amounts are never part of it.
type Request struct {
	Currency string
	Plan     string
	Quantity int
	Express  bool
}

// NewCatalog copies its inputs; currency codes are upper-cased and plan keys
// lower-cased.
func NewCatalog(currencies []string, plans map[string]map[string]decimal.Decimal, express map[string]decimal.Decimal) *Catalog {
	c := &Catalog{
		plans:   make(map[string]map[string]decimal.Decimal, len(plans)),
		express: make(map[string]decimal.Decimal, len(express)),
	}
	seen := make(map[string]bool, len(currencies))
	for _, cur := range currencies {
		cur = NormalizeCurrency(cur)
		if cur == "" || seen[cur] {
			continue
		}
		seen[cur] = true
		c.currencies = append(c.currencies, cur)
	}
	for cur, byPlan := range plans {
		prices := make(map[string]decimal.Decimal, len(byPlan))
		for plan, price := range byPlan {
			prices[strings.ToLower(strings.TrimSpace(plan))] = price
		}
		c.plans[NormalizeCurrency(cur)] = prices
	}
	for cur, price := range express {
		c.express[NormalizeCurrency(cur)] = price
	}
	return c
}

func NormalizeCurrency(cur string) string {
	return strings.ToUpper(strings.TrimSpace(cur))
}

// Allowed reports whether the currency is on the allow-list.
func (c *Catalog) Allowed(currency string) bool {
	currency = NormalizeCurrency(currency)
	for _, cur := range c.currencies {
		if cur == currency {
			return true
		}
	}
	return false
}

func (c *Catalog) Currencies() []string {
	return append([]string(nil), c.currencies...)
}

// PlanNames returns the sorted plan keys available in a currency.
func (c *Catalog) PlanNames(currency string) []string {
	byPlan := c.plans[NormalizeCurrency(currency)]
	names := make([]string, 0, len(byPlan))
	for name := range byPlan {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Price(currency, plan string) (decimal.Decimal, bool) {
	price, ok := c.plans[NormalizeCurrency(currency)][strings.ToLower(strings.TrimSpace(plan))]
	return price, ok
}

func (c *Catalog) ExpressAddon(currency string) (decimal.Decimal, bool) {
	price, ok := c.express[NormalizeCurrency(currency)]
	return price, ok
}

// Resolve computes the authoritative charge in major units:
// price * (quantity for single-course, else 1) + express add-on,
// rounded half-up to two places.
func (c *Catalog) Resolve(req Request) (decimal.Decimal, error) {
	currency := NormalizeCurrency(req.Currency)
	if !c.Allowed(currency) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrCurrencyNotAllowed, currency)
	}

	plan := strings.ToLower(strings.TrimSpace(req.Plan))
	price, ok := c.Price(currency, plan)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q (%s)", ErrInvalidPlan, req.Plan, currency)
	}

	amount := price
	if plan == SingleCoursePlan {
		amount = amount.Mul(decimal.NewFromInt(int64(ClampQuantity(req.Quantity))))
	}

	if req.Express {
		addon, ok := c.ExpressAddon(currency)
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrExpressUnavailable, currency)
		}
		amount = amount.Add(addon)
	}

	return amount.Round(2), nil
}

func ClampQuantity(q int) int {
	switch {
	case q < MinQuantity:
		return MinQuantity
	case q > MaxQuantity:
		return MaxQuantity
	default:
		return q
	}
}

// ToMinorUnits converts a major-unit amount to the provider's smallest unit,
// rounding half-up.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
