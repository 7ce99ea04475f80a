// Package pricing derives the prices shown next to a product.
package pricing

import (
	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Normalize returns nil unless 0 < d < 100. A stored 0 means no discount.
func Normalize(d *float64) *float64 {
	if d == nil || *d <= 0 || *d >= 100 {
		return nil
	}
	v := *d
	return &v
}

// NormalizeProduct strips discounts that carry no meaning before a product
// leaves the service.
func NormalizeProduct(p domain.Product) domain.Product {
	p.DiscountPercentage = Normalize(p.DiscountPercentage)
	return p
}

func NormalizeProducts(products []domain.Product) []domain.Product {
	for i := range products {
		products[i] = NormalizeProduct(products[i])
	}
	return products
}

func factor(d float64) decimal.Decimal {
	return one.Sub(decimal.NewFromFloat(d).Div(hundred))
}

// Discounted is price*(1-d/100), rounded to cents.
func Discounted(price, d float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(factor(d)).Round(2)
}

// Original treats price as already discounted and recovers the list price,
// price/(1-d/100), rounded to cents. d must satisfy 0 < d < 100.
func Original(price, d float64) decimal.Decimal {
	return decimal.NewFromFloat(price).Div(factor(d)).Round(2)
}

// Display is what a storefront renders for one product.
type Display struct {
	Price      decimal.Decimal
	Discounted *decimal.Decimal
	Original   *decimal.Decimal
	Badge      string
	OutOfStock bool
}

func Derive(p domain.Product) Display {
	out := Display{
		Price:      decimal.NewFromFloat(p.Price).Round(2),
		OutOfStock: !p.Available(),
	}

	d := Normalize(p.DiscountPercentage)
	if d == nil {
		return out
	}

	discounted := Discounted(p.Price, *d)
	original := Original(p.Price, *d)
	out.Discounted = &discounted
	out.Original = &original
	out.Badge = decimal.NewFromFloat(*d).String() + "% OFF"
	return out
}

// Format renders an amount the way the storefront does, e.g. "$12.50".
func Format(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}
