package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateOrder claims the payment intent, reserves each line with a
// conditional decrement and inserts the order. Earlier steps are undone if a
// later one fails, so the store works on a standalone server without
// multi-document transactions.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = newID()
	}
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	intentID := o.PaymentDetails.GatewayOrderID
	if intentID != "" {
		res, err := s.col(colPaymentIntents).UpdateOne(ctx,
			bson.M{"_id": intentID, "orderId": ""},
			bson.M{"$set": bson.M{"orderId": o.ID}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("%w: payment already used by another order", apperr.ErrConflict)
		}
	}
	unclaim := func() {
		if intentID == "" {
			return
		}
		_, err := s.col(colPaymentIntents).UpdateOne(context.WithoutCancel(ctx),
			bson.M{"_id": intentID, "orderId": o.ID},
			bson.M{"$set": bson.M{"orderId": ""}},
		)
		if err != nil {
			slog.Error("failed to release payment intent", "intent", intentID, "err", err)
		}
	}

	if err := s.reserve(ctx, o.Items, true); err != nil {
		unclaim()
		return err
	}
	if _, err := s.col(colOrders).InsertOne(ctx, o); err != nil {
		if rerr := s.ReleaseStock(context.WithoutCancel(ctx), o.Items); rerr != nil {
			slog.Error("failed to release reserved stock", "order", o.OrderNumber, "err", rerr)
		}
		unclaim()
		return translate(err)
	}
	return nil
}

func (s *Store) ReserveStock(ctx context.Context, items []models.OrderItem) error {
	return s.reserve(ctx, items, false)
}

// reserve decrements each line only while enough stock is left. Lines already
// taken are put back when a later one falls short.
func (s *Store) reserve(ctx context.Context, items []models.OrderItem, activeOnly bool) error {
	products := s.col(colProducts)
	reserved := make([]models.OrderItem, 0, len(items))
	rollback := func() {
		if len(reserved) == 0 {
			return
		}
		if err := s.ReleaseStock(context.WithoutCancel(ctx), reserved); err != nil {
			slog.Error("failed to release reserved stock", "err", err)
		}
	}

	for _, item := range items {
		filter := bson.M{"_id": item.Product.ID, "stock": bson.M{"$gte": item.Quantity}}
		if activeOnly {
			filter["isActive"] = true
		}
		res, err := products.UpdateOne(ctx, filter, bson.M{
			"$inc": bson.M{"stock": -item.Quantity, "soldCount": item.Quantity},
			"$set": bson.M{"updatedAt": time.Now()},
		})
		if err != nil {
			rollback()
			return err
		}
		if res.MatchedCount == 0 {
			rollback()
			return fmt.Errorf("%w for %s", apperr.ErrInsufficientStock, item.Product.Name)
		}
		reserved = append(reserved, item)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.findOrder(ctx, bson.M{"_id": id})
}

func (s *Store) FindOrderByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error) {
	return s.findOrder(ctx, bson.M{"userId": userID, "idempotencyKey": key})
}

func (s *Store) FindOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	return s.findOrder(ctx, bson.M{"paymentDetails.gatewayOrderId": gatewayOrderID})
}

func (s *Store) findOrder(ctx context.Context, filter bson.M) (*models.Order, error) {
	var o models.Order
	if err := s.col(colOrders).FindOne(ctx, filter).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, f database.OrderFilter) ([]models.Order, int64, error) {
	f.Page = f.Page.Normalize()

	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.OrderStatus != "" {
		filter["orderStatus"] = f.OrderStatus
	}
	if f.PaymentStatus != "" {
		filter["paymentStatus"] = f.PaymentStatus
	}
	if f.PaymentMethod != "" {
		filter["paymentMethod"] = f.PaymentMethod
	}
	if f.Search != "" {
		filter["orderNumber"] = contains(f.Search)
	}

	total, err := s.col(colOrders).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := s.col(colOrders).Find(ctx, filter, findPage(f.Page, bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *Store) UpdateOrder(ctx context.Context, id string, match database.OrderMatch, upd database.OrderUpdate) (*models.Order, error) {
	set := bson.M{"updatedAt": time.Now()}
	if upd.OrderStatus != nil {
		set["orderStatus"] = *upd.OrderStatus
	}
	if upd.PaymentStatus != nil {
		set["paymentStatus"] = *upd.PaymentStatus
	}
	if upd.PaymentDetails != nil {
		set["paymentDetails"] = *upd.PaymentDetails
	}
	if upd.TrackingNumber != nil {
		set["trackingNumber"] = *upd.TrackingNumber
	}
	if upd.CancellationReason != nil {
		set["cancellationReason"] = *upd.CancellationReason
	}
	if upd.DeliveredAt != nil {
		set["deliveredAt"] = *upd.DeliveredAt
	}
	if upd.CancelledAt != nil {
		set["cancelledAt"] = *upd.CancelledAt
	}

	filter := bson.M{"_id": id}
	if match.OrderStatus != "" {
		filter["orderStatus"] = match.OrderStatus
	}
	if match.PaymentStatus != "" {
		filter["paymentStatus"] = match.PaymentStatus
	}

	var o models.Order
	err := s.col(colOrders).FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Tell a missing order apart from one that moved on under us
		n, cerr := s.col(colOrders).CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, cerr
		}
		if n == 0 {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) ReleaseStock(ctx context.Context, items []models.OrderItem) error {
	products := s.col(colProducts)
	for _, item := range items {
		// soldCount is clamped at zero with an update pipeline
		_, err := products.UpdateOne(ctx,
			bson.M{"_id": item.Product.ID},
			mongo.Pipeline{{{Key: "$set", Value: bson.M{
				"stock": bson.M{"$add": bson.A{"$stock", item.Quantity}},
				"soldCount": bson.M{"$max": bson.A{0,
					bson.M{"$subtract": bson.A{"$soldCount", item.Quantity}},
				}},
				"updatedAt": time.Now(),
			}}}},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SavePaymentIntent(ctx context.Context, p *models.PaymentIntent) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.col(colPaymentIntents).InsertOne(ctx, p)
	return translate(err)
}

func (s *Store) GetPaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	var p models.PaymentIntent
	if err := s.col(colPaymentIntents).FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}
