package sqlstore

import (
	"context"
	"errors"
	"time"

	"thekua-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	err := s.db.WithContext(ctx).First(&c, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return &c, nil
}

func (s *Store) SaveCart(ctx context.Context, c *models.Cart) error {
	c.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(c).Error
}

func (s *Store) DeleteCart(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Delete(&models.Cart{}, "user_id = ?", userID).Error
}

func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	var st models.Settings
	err := s.db.WithContext(ctx).First(&st, "id = ?", models.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultSettings(), nil
	}
	return st, err
}

func (s *Store) SaveSettings(ctx context.Context, st *models.Settings) error {
	st.ID = models.SettingsID
	st.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(st).Error
}

func (s *Store) RecordWebhookEvent(ctx context.Context, e *models.WebhookEvent) (bool, error) {
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now()
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) DeleteWebhookEvent(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.WebhookEvent{}, "id = ?", id).Error
}
