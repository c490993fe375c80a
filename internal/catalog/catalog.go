// Package catalog manages the product list shown in the shop.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"
	"thekua-api/internal/validation"
)

type Service struct {
	store database.ProductStore
	log   *slog.Logger
}

func NewService(store database.ProductStore, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log.With("component", "catalog")}
}

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name               string   `json:"name" validate:"required,max=200"`
	Description        string   `json:"description" validate:"max=5000"`
	Price              float64  `json:"price" validate:"gt=0"`
	DiscountPercentage float64  `json:"discountPercentage" validate:"gte=0,lte=90"`
	Category           string   `json:"category" validate:"required,max=100"`
	Images             []string `json:"images" validate:"max=10"`
	Stock              int      `json:"stock" validate:"gte=0"`
	Weight             string   `json:"weight" validate:"max=50"`
	Ingredients        []string `json:"ingredients" validate:"max=30"`
	IsActive           *bool    `json:"isActive"`
	IsFeatured         bool     `json:"isFeatured"`
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Price = in.Price
	p.DiscountPercentage = in.DiscountPercentage
	p.Category = strings.TrimSpace(in.Category)
	p.Images = nonNil(in.Images)
	p.Stock = in.Stock
	p.Weight = in.Weight
	p.Ingredients = nonNil(in.Ingredients)
	p.IsFeatured = in.IsFeatured
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// List returns a page of products. Shoppers only ever see active products.
func (s *Service) List(ctx context.Context, f database.ProductFilter) ([]models.Product, int64, error) {
	return s.store.ListProducts(ctx, f)
}

// Get returns an active product and counts the view.
func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, fmt.Errorf("product: %w", apperr.ErrNotFound)
	}
	if err := s.store.IncrementProductViews(ctx, id); err != nil {
		s.log.Warn("failed to count product view", "product", id, "err", err)
	} else {
		p.ViewCount++
	}
	return p, nil
}

// GetAny returns a product regardless of its active flag, for the back-office.
func (s *Service) GetAny(ctx context.Context, id string) (*models.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p := &models.Product{IsActive: true}
	in.apply(p)
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("product created", "product", p.ID, "name", p.Name)
	return p, nil
}

// Update replaces the editable fields. Counters and ratings are preserved.
func (s *Service) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetPrice changes only the list price.
func (s *Service) SetPrice(ctx context.Context, id string, price float64) (*models.Product, error) {
	if price <= 0 {
		return nil, apperr.Invalid("price", "must be greater than 0")
	}
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Price = price
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("product price changed", "product", id, "price", price)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", "product", id)
	return nil
}
