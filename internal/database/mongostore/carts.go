package mongostore

import (
	"context"
	"errors"
	"time"

	"thekua-api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	err := s.col(colCarts).FindOne(ctx, bson.M{"_id": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
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
	_, err := s.col(colCarts).ReplaceOne(ctx, bson.M{"_id": c.UserID}, c, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) DeleteCart(ctx context.Context, userID string) error {
	_, err := s.col(colCarts).DeleteOne(ctx, bson.M{"_id": userID})
	return err
}

func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	var st models.Settings
	err := s.col(colSettings).FindOne(ctx, bson.M{"_id": models.SettingsID}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultSettings(), nil
	}
	return st, err
}

func (s *Store) SaveSettings(ctx context.Context, st *models.Settings) error {
	st.ID = models.SettingsID
	st.UpdatedAt = time.Now()
	_, err := s.col(colSettings).ReplaceOne(ctx, bson.M{"_id": st.ID}, st, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) RecordWebhookEvent(ctx context.Context, e *models.WebhookEvent) (bool, error) {
	if e.ProcessedAt.IsZero() {
		e.ProcessedAt = time.Now()
	}
	_, err := s.col(colWebhookEvents).InsertOne(ctx, e)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) DeleteWebhookEvent(ctx context.Context, id string) error {
	_, err := s.col(colWebhookEvents).DeleteOne(ctx, bson.M{"_id": id})
	return err
}
