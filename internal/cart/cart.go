// Package cart keeps the server-side cart, the single source of truth for a
// signed-in shopper's basket.
package cart

import (
	"context"
	"errors"
	"fmt"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"
	"thekua-api/internal/orders"
)

// Cart limits, matching what a single checkout accepts.
const (
	MaxQuantity = orders.MaxLineQuantity
	MaxLines    = 50
)

type Store interface {
	database.CartStore
	database.ProductStore
}

// Quoter prices cart lines the same way checkout will.
type Quoter interface {
	Quote(ctx context.Context, lines []orders.Line) (*orders.Quote, error)
}

type Service struct {
	store  Store
	quoter Quoter
}

func NewService(store Store, quoter Quoter) *Service {
	return &Service{store: store, quoter: quoter}
}

// View is a cart together with its current price breakdown.
type View struct {
	*models.Cart
	Quote *orders.Quote `json:"quote"`
}

// Get returns the cart refreshed against the catalog. Lines for products that
// were removed or deactivated are dropped and quantities are clamped to stock.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	c, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	changed, err := s.refresh(ctx, c)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.store.SaveCart(ctx, c); err != nil {
			return nil, err
		}
	}
	return s.view(ctx, c)
}

// Add puts qty units of a product in the cart, on top of any already there.
func (s *Service) Add(ctx context.Context, userID, productID string, qty int) (*View, error) {
	if qty < 1 {
		return nil, apperr.Invalid("quantity", "must be at least 1")
	}
	p, err := s.available(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if i := indexOf(c, productID); i >= 0 {
		c.Items[i].Quantity = clamp(c.Items[i].Quantity+qty, p.Stock)
		setProduct(&c.Items[i], p)
	} else {
		if len(c.Items) >= MaxLines {
			return nil, apperr.Invalid("productId", fmt.Sprintf("cart can hold at most %d products", MaxLines))
		}
		item := models.CartItem{ProductID: p.ID, Quantity: clamp(qty, p.Stock)}
		setProduct(&item, p)
		c.Items = append(c.Items, item)
	}

	if err := s.store.SaveCart(ctx, c); err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// Update sets the quantity of a line. Zero removes it.
func (s *Service) Update(ctx context.Context, userID, productID string, qty int) (*View, error) {
	if qty < 0 {
		return nil, apperr.Invalid("quantity", "must be at least 0")
	}
	if qty == 0 {
		return s.Remove(ctx, userID, productID)
	}

	c, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := indexOf(c, productID)
	if i < 0 {
		return nil, fmt.Errorf("cart item: %w", apperr.ErrNotFound)
	}
	p, err := s.available(ctx, productID)
	if err != nil {
		return nil, err
	}
	c.Items[i].Quantity = clamp(qty, p.Stock)
	setProduct(&c.Items[i], p)

	if err := s.store.SaveCart(ctx, c); err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *Service) Remove(ctx context.Context, userID, productID string) (*View, error) {
	c, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := indexOf(c, productID)
	if i < 0 {
		return nil, fmt.Errorf("cart item: %w", apperr.ErrNotFound)
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)

	if err := s.store.SaveCart(ctx, c); err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.store.DeleteCart(ctx, userID)
}

// Merge folds a client-side cart into the server cart after sign-in. Quantities
// for the same product are summed; unavailable products are skipped.
func (s *Service) Merge(ctx context.Context, userID string, lines []orders.Line) (*View, error) {
	c, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		p, err := s.available(ctx, l.ProductID)
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInsufficientStock) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if i := indexOf(c, l.ProductID); i >= 0 {
			c.Items[i].Quantity = clamp(c.Items[i].Quantity+l.Quantity, p.Stock)
			setProduct(&c.Items[i], p)
			continue
		}
		if len(c.Items) >= MaxLines {
			continue
		}
		item := models.CartItem{ProductID: p.ID, Quantity: clamp(l.Quantity, p.Stock)}
		setProduct(&item, p)
		c.Items = append(c.Items, item)
	}

	if err := s.store.SaveCart(ctx, c); err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// available loads an active, in-stock product.
func (s *Service) available(ctx context.Context, productID string) (*models.Product, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, fmt.Errorf("product: %w", apperr.ErrNotFound)
	}
	if p.Stock < 1 {
		return nil, fmt.Errorf("%w for %s", apperr.ErrInsufficientStock, p.Name)
	}
	return p, nil
}

func (s *Service) refresh(ctx context.Context, c *models.Cart) (bool, error) {
	if len(c.Items) == 0 {
		return false, nil
	}
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return false, err
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	changed := false
	kept := c.Items[:0]
	for _, it := range c.Items {
		p, ok := byID[it.ProductID]
		if !ok || !p.IsActive || p.Stock < 1 {
			changed = true
			continue
		}
		before := it
		it.Quantity = clamp(it.Quantity, p.Stock)
		setProduct(&it, &p)
		if it != before {
			changed = true
		}
		kept = append(kept, it)
	}
	c.Items = kept
	return changed, nil
}

func (s *Service) view(ctx context.Context, c *models.Cart) (*View, error) {
	v := &View{Cart: c}
	if len(c.Items) == 0 {
		return v, nil
	}
	lines := make([]orders.Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, orders.Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	q, err := s.quoter.Quote(ctx, lines)
	if err != nil {
		return nil, err
	}
	v.Quote = q
	return v, nil
}

func setProduct(it *models.CartItem, p *models.Product) {
	it.Name = p.Name
	it.Price = p.Price
	it.Image = p.MainImage()
}

func indexOf(c *models.Cart, productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func clamp(qty, stock int) int {
	if qty > stock {
		qty = stock
	}
	if qty > MaxQuantity {
		qty = MaxQuantity
	}
	return qty
}
