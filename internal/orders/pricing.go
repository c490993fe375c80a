package orders

import (
	"fmt"

	"thekua-api/internal/apperr"
	"thekua-api/internal/models"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the units of one product in a single order.
const MaxLineQuantity = 100

// Line is one requested product and quantity.
type Line struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1,max=100"`
}

// Quote is the server-computed price breakdown for a set of lines.
type Quote struct {
	Items                 []models.OrderItem `json:"items"`
	Subtotal              float64            `json:"subtotal"`
	ShippingCharge        float64            `json:"shippingCharge"`
	Discount              float64            `json:"discount"`
	TotalAmount           float64            `json:"totalAmount"`
	FinalAmount           float64            `json:"finalAmount"`
	FreeShippingThreshold float64            `json:"freeShippingThreshold"`
	Currency              string             `json:"currency"`
}

// ShippingCharge is free at or above the threshold and a flat fee below it.
func ShippingCharge(subtotal float64, st models.Settings) float64 {
	if subtotal >= st.FreeShippingThreshold {
		return 0
	}
	return st.ShippingFee
}

// BuildQuote prices lines against the live catalog. Duplicate product lines
// are merged and the merged quantity is held to MaxLineQuantity. Inactive or
// unknown products are rejected and quantities above the current stock fail
// with apperr.ErrInsufficientStock. Error fields point at the first request
// row for the product.
func BuildQuote(lines []Line, catalog map[string]models.Product, st models.Settings) (*Quote, error) {
	merged := mergeLines(lines)
	if len(merged) == 0 {
		return nil, apperr.Invalid("items", "must contain at least 1 item(s)")
	}

	var (
		subtotal = decimal.Zero
		discount = decimal.Zero
		hundred  = decimal.NewFromInt(100)
		items    = make([]models.OrderItem, 0, len(merged))
	)

	for _, l := range merged {
		if l.Quantity > MaxLineQuantity {
			return nil, apperr.Invalid(fmt.Sprintf("items[%d].quantity", l.row), fmt.Sprintf("must be at most %d in total", MaxLineQuantity))
		}
		p, ok := catalog[l.ProductID]
		if !ok || !p.IsActive {
			return nil, apperr.Invalid(fmt.Sprintf("items[%d].productId", l.row), "product is not available")
		}
		if p.Stock < l.Quantity {
			return nil, fmt.Errorf("%w for %s", apperr.ErrInsufficientStock, p.Name)
		}

		price := decimal.NewFromFloat(p.Price)
		qty := decimal.NewFromInt(int64(l.Quantity))
		lineTotal := price.Mul(qty)

		subtotal = subtotal.Add(lineTotal)
		if p.DiscountPercentage > 0 {
			pct := decimal.NewFromFloat(p.DiscountPercentage)
			discount = discount.Add(price.Mul(pct).Div(hundred).Mul(qty))
		}

		items = append(items, models.OrderItem{
			Product: models.ProductSnapshot{
				ID:       p.ID,
				Name:     p.Name,
				Price:    p.Price,
				Image:    p.MainImage(),
				Category: p.Category,
			},
			Quantity: l.Quantity,
			Price:    p.Price,
			Subtotal: lineTotal.Round(2).InexactFloat64(),
		})
	}

	subtotal = subtotal.Round(2)
	discount = discount.Round(2)
	shipping := decimal.NewFromFloat(ShippingCharge(subtotal.InexactFloat64(), st))
	total := subtotal.Add(shipping)
	final := total.Sub(discount)
	if final.IsNegative() {
		final = decimal.Zero
	}

	return &Quote{
		Items:                 items,
		Subtotal:              subtotal.InexactFloat64(),
		ShippingCharge:        shipping.InexactFloat64(),
		Discount:              discount.InexactFloat64(),
		TotalAmount:           total.InexactFloat64(),
		FinalAmount:           final.InexactFloat64(),
		FreeShippingThreshold: st.FreeShippingThreshold,
		Currency:              st.Currency,
	}, nil
}

// mergedLine is a Line summed over every request row for its product; row is
// the index of the first of them.
type mergedLine struct {
	Line
	row int
}

func mergeLines(lines []Line) []mergedLine {
	idx := map[string]int{}
	out := make([]mergedLine, 0, len(lines))
	for row, l := range lines {
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, mergedLine{Line: l, row: row})
	}
	return out
}

func lineIDs(lines []Line) []string {
	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}

func catalogByID(products []models.Product) map[string]models.Product {
	m := make(map[string]models.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}
