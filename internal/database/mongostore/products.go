package mongostore

import (
	"context"
	"sort"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = newID()
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := s.col(colProducts).InsertOne(ctx, p)
	return translate(err)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.col(colProducts).FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	cursor, err := s.col(colProducts).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	err = cursor.All(ctx, &products)
	return products, err
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now()
	res, err := s.col(colProducts).ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.col(colProducts).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context, f database.ProductFilter) ([]models.Product, int64, error) {
	f.Page = f.Page.Normalize()

	filter := bson.M{}
	if f.ActiveOnly {
		filter["isActive"] = true
	}
	if f.Search != "" {
		filter["$or"] = bson.A{
			bson.M{"name": contains(f.Search)},
			bson.M{"description": contains(f.Search)},
			bson.M{"category": contains(f.Search)},
		}
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Featured != nil {
		filter["isFeatured"] = *f.Featured
	}
	price := bson.M{}
	if f.MinPrice > 0 {
		price["$gte"] = f.MinPrice
	}
	if f.MaxPrice > 0 {
		price["$lte"] = f.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	total, err := s.col(colProducts).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.col(colProducts).Find(ctx, filter, findPage(f.Page, productSort(f.Sort)))
	if err != nil {
		return nil, 0, err
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func productSort(sort string) bson.D {
	switch sort {
	case "price_asc":
		return bson.D{{Key: "price", Value: 1}}
	case "price_desc":
		return bson.D{{Key: "price", Value: -1}}
	case "popular":
		return bson.D{{Key: "soldCount", Value: -1}}
	case "rating":
		return bson.D{{Key: "ratingAverage", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	raw, err := s.col(colProducts).Distinct(ctx, "category", bson.M{"isActive": true})
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(raw))
	for _, v := range raw {
		if c, ok := v.(string); ok && c != "" {
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (s *Store) IncrementProductViews(ctx context.Context, id string) error {
	_, err := s.col(colProducts).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"viewCount": 1}})
	return err
}
