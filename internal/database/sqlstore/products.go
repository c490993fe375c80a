package sqlstore

import (
	"context"
	"sort"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := s.exists(ctx, &models.Product{}, p.ID); err != nil {
		return err
	}
	return translate(s.db.WithContext(ctx).Save(p).Error)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context, f database.ProductFilter) ([]models.Product, int64, error) {
	f.Page = f.Page.Normalize()

	q := s.db.WithContext(ctx).Model(&models.Product{})
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.Search != "" {
		q = q.Where("name LIKE ? OR description LIKE ? OR category LIKE ?", like(f.Search), like(f.Search), like(f.Search))
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Featured != nil {
		q = q.Where("is_featured = ?", *f.Featured)
	}
	if f.MinPrice > 0 {
		q = q.Where("price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q = q.Where("price <= ?", f.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := q.Order(productOrder(f.Sort)).Offset(f.Offset()).Limit(f.Limit).Find(&products).Error
	return products, total, err
}

func productOrder(sort string) string {
	switch sort {
	case "price_asc":
		return "price asc"
	case "price_desc":
		return "price desc"
	case "popular":
		return "sold_count desc"
	case "rating":
		return "rating_average desc"
	default:
		return "created_at desc"
	}
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	var raw []string
	err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ?", true).
		Distinct().
		Pluck("category", &raw).Error
	if err != nil {
		return nil, err
	}

	categories := make([]string, 0, len(raw))
	for _, c := range raw {
		if c != "" {
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (s *Store) IncrementProductViews(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}
