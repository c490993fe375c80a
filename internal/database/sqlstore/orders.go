package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if id := o.PaymentDetails.GatewayOrderID; id != "" {
			// Claiming the intent is what stops one payment settling two orders
			res := tx.Model(&models.PaymentIntent{}).
				Where("id = ? AND order_id = ?", id, "").
				Update("order_id", o.ID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: payment already used by another order", apperr.ErrConflict)
			}
		}
		if err := reserve(tx, o.Items, true); err != nil {
			return err
		}
		return translate(tx.Create(o).Error)
	})
}

func (s *Store) ReserveStock(ctx context.Context, items []models.OrderItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reserve(tx, items, false)
	})
}

// reserve decrements stock line by line. A row only changes if enough stock
// is left, so a shortfall aborts the surrounding transaction.
func reserve(tx *gorm.DB, items []models.OrderItem, activeOnly bool) error {
	for _, item := range items {
		q := tx.Model(&models.Product{}).Where("id = ? AND stock >= ?", item.Product.ID, item.Quantity)
		if activeOnly {
			q = q.Where("is_active = ?", true)
		}
		res := q.Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", item.Quantity),
			"sold_count": gorm.Expr("sold_count + ?", item.Quantity),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w for %s", apperr.ErrInsufficientStock, item.Product.Name)
		}
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *Store) FindOrderByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *Store) FindOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).
		Where("payment_gateway_order_id = ?", gatewayOrderID).
		First(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *Store) ListOrders(ctx context.Context, f database.OrderFilter) ([]models.Order, int64, error) {
	f.Page = f.Page.Normalize()

	q := s.db.WithContext(ctx).Model(&models.Order{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.OrderStatus != "" {
		q = q.Where("order_status = ?", f.OrderStatus)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.Search != "" {
		q = q.Where("order_number LIKE ?", like(f.Search))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := q.Order("created_at desc").Offset(f.Offset()).Limit(f.Limit).Find(&orders).Error
	return orders, total, err
}

func (s *Store) UpdateOrder(ctx context.Context, id string, match database.OrderMatch, upd database.OrderUpdate) (*models.Order, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	if upd.OrderStatus != nil {
		updates["order_status"] = *upd.OrderStatus
	}
	if upd.PaymentStatus != nil {
		updates["payment_status"] = *upd.PaymentStatus
	}
	if upd.PaymentDetails != nil {
		updates["payment_gateway_order_id"] = upd.PaymentDetails.GatewayOrderID
		updates["payment_payment_id"] = upd.PaymentDetails.PaymentID
		updates["payment_signature"] = upd.PaymentDetails.Signature
	}
	if upd.TrackingNumber != nil {
		updates["tracking_number"] = *upd.TrackingNumber
	}
	if upd.CancellationReason != nil {
		updates["cancellation_reason"] = *upd.CancellationReason
	}
	if upd.DeliveredAt != nil {
		updates["delivered_at"] = *upd.DeliveredAt
	}
	if upd.CancelledAt != nil {
		updates["cancelled_at"] = *upd.CancelledAt
	}

	var updated models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Order{}).Where("id = ?", id)
		if match.OrderStatus != "" {
			q = q.Where("order_status = ?", match.OrderStatus)
		}
		if match.PaymentStatus != "" {
			q = q.Where("payment_status = ?", match.PaymentStatus)
		}

		res := q.Updates(updates)
		if res.Error != nil {
			return res.Error
		}

		if err := tx.First(&updated, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		if res.RowsAffected == 0 {
			return apperr.ErrConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) ReleaseStock(ctx context.Context, items []models.OrderItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			err := tx.Model(&models.Product{}).
				Where("id = ?", item.Product.ID).
				Updates(map[string]interface{}{
					"stock":      gorm.Expr("stock + ?", item.Quantity),
					"sold_count": gorm.Expr("CASE WHEN sold_count >= ? THEN sold_count - ? ELSE 0 END", item.Quantity, item.Quantity),
				}).Error
			// A product deleted since the order was placed has nothing to restock.
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		return nil
	})
}

func (s *Store) SavePaymentIntent(ctx context.Context, p *models.PaymentIntent) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return translate(s.db.WithContext(ctx).Create(p).Error)
}

func (s *Store) GetPaymentIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	var p models.PaymentIntent
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}
