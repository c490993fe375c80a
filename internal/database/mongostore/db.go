// Package mongostore implements database.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colUsers          = "users"
	colProducts       = "products"
	colOrders         = "orders"
	colCarts          = "carts"
	colSettings       = "settings"
	colWebhookEvents  = "webhook_events"
	colPaymentIntents = "payment_intents"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ database.Store = (*Store)(nil)

// Connect dials MongoDB, waits until it answers a ping and ensures indexes.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	var (
		client *mongo.Client
		err    error
	)
	for i := 0; i < 5; i++ {
		client, err = dial(ctx, uri)
		if err == nil {
			break
		}
		slog.Warn("failed to connect to mongodb, retrying", "attempt", i+1, "err", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect after 5 attempts: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func dial(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "resetTokenHash", Value: 1}}, Options: options.Index().SetSparse(true)},
		},
		colProducts: {
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		colPaymentIntents: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colOrders: {
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{
				Keys: bson.D{{Key: "paymentDetails.gatewayOrderId", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"paymentDetails.gatewayOrderId": bson.M{"$exists": true}}),
			},
			{
				Keys: bson.D{{Key: "userId", Value: 1}, {Key: "idempotencyKey", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$exists": true}}),
			},
		},
	}

	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongostore: indexes on %s: %w", col, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return apperr.ErrDuplicate
	default:
		return err
	}
}

func contains(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func findPage(p database.Page, sort bson.D) *options.FindOptions {
	return options.Find().
		SetSort(sort).
		SetSkip(int64(p.Offset())).
		SetLimit(int64(p.Limit))
}
