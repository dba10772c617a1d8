package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testCatalog() *Catalog {
	return NewCatalog(
		[]string{"ngn", "USD"},
		map[string]map[string]decimal.Decimal{
			"NGN": {"starter": d("5000"), "single-course": d("3500"), "pro": d("15000")},
			"usd": {"Starter": d("10"), "single-course": d("7.455")},
			"EUR": {"starter": d("9")},
		},
		map[string]decimal.Decimal{"NGN": d("2000"), "USD": d("4.995")},
	)
}

func TestResolve(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"flat plan", Request{Currency: "NGN", Plan: "starter"}, "5000.00"},
		{"quantity ignored for flat plan", Request{Currency: "NGN", Plan: "pro", Quantity: 5}, "15000.00"},
		{"single course multiplies", Request{Currency: "NGN", Plan: "single-course", Quantity: 3}, "10500.00"},
		{"quantity clamped low", Request{Currency: "NGN", Plan: "single-course", Quantity: 0}, "3500.00"},
		{"quantity clamped high", Request{Currency: "NGN", Plan: "single-course", Quantity: 99}, "70000.00"},
		{"express addon", Request{Currency: "NGN", Plan: "starter", Express: true}, "7000.00"},
		{"lower-case currency", Request{Currency: "usd", Plan: "STARTER"}, "10.00"},
		{"half-up rounding", Request{Currency: "USD", Plan: "single-course", Quantity: 1}, "7.46"},
		{"half-up with addon", Request{Currency: "USD", Plan: "starter", Express: true}, "15.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Resolve(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestResolveMatchesFormula(t *testing.T) {
	c := testCatalog()
	for _, cur := range c.Currencies() {
		for _, plan := range c.PlanNames(cur) {
			for q := -1; q <= 22; q++ {
				for _, express := range []bool{false, true} {
					price, _ := c.Price(cur, plan)
					want := price
					if plan == SingleCoursePlan {
						want = want.Mul(decimal.NewFromInt(int64(ClampQuantity(q))))
					}
					if express {
						addon, _ := c.ExpressAddon(cur)
						want = want.Add(addon)
					}

					got, err := c.Resolve(Request{Currency: cur, Plan: plan, Quantity: q, Express: express})
					require.NoError(t, err)
					assert.True(t, want.Round(2).Equal(got), "%s/%s q=%d express=%v", cur, plan, q, express)

					again, _ := c.Resolve(Request{Currency: cur, Plan: plan, Quantity: q, Express: express})
					assert.True(t, got.Equal(again))
				}
			}
		}
	}
}

func TestResolveErrors(t *testing.T) {
	c := testCatalog()

	_, err := c.Resolve(Request{Currency: "EUR", Plan: "starter"})
	assert.ErrorIs(t, err, ErrCurrencyNotAllowed, "catalog entry without allow-list is still rejected")

	_, err = c.Resolve(Request{Currency: "GBP", Plan: "starter"})
	assert.ErrorIs(t, err, ErrCurrencyNotAllowed)

	_, err = c.Resolve(Request{Currency: "NGN", Plan: "does-not-exist"})
	assert.ErrorIs(t, err, ErrInvalidPlan)

	noExpress := NewCatalog([]string{"NGN"}, map[string]map[string]decimal.Decimal{"NGN": {"starter": d("1")}}, nil)
	_, err = noExpress.Resolve(Request{Currency: "NGN", Plan: "starter", Express: true})
	assert.ErrorIs(t, err, ErrExpressUnavailable)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(500000), ToMinorUnits(d("5000")))
	assert.Equal(t, int64(746), ToMinorUnits(d("7.455")))
	assert.Equal(t, int64(1), ToMinorUnits(d("0.005")))
	assert.Equal(t, "7.46", FromMinorUnits(746).StringFixed(2))
}

func TestCatalogIsCopied(t *testing.T) {
	plans := map[string]map[string]decimal.Decimal{"NGN": {"starter": d("1")}}
	c := NewCatalog([]string{"NGN", "NGN", " "}, plans, nil)
	plans["NGN"]["starter"] = d("999")

	price, ok := c.Price("NGN", "starter")
	require.True(t, ok)
	assert.Equal(t, "1", price.String())
	assert.Equal(t, []string{"NGN"}, c.Currencies())
}
