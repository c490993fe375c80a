package mongostore

import (
	"context"
	"time"

	"thekua-api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// revenueMatch selects orders whose money counts as earned.
func revenueMatch() bson.M {
	return bson.M{
		"orderStatus":   bson.M{"$ne": models.OrderStatusCancelled},
		"paymentStatus": models.PaymentStatusCompleted,
	}
}

func (s *Store) sumFinalAmount(ctx context.Context, match bson.M) (float64, error) {
	cursor, err := s.col(colOrders).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$finalAmount"}}}},
	})
	if err != nil {
		return 0, err
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (s *Store) Summary(ctx context.Context, lowStockAt int) (models.DashboardSummary, error) {
	var (
		sum models.DashboardSummary
		err error
	)
	orders, users, products := s.col(colOrders), s.col(colUsers), s.col(colProducts)

	if sum.TotalOrders, err = orders.CountDocuments(ctx, bson.M{}); err != nil {
		return sum, err
	}
	if sum.TotalRevenue, err = s.sumFinalAmount(ctx, revenueMatch()); err != nil {
		return sum, err
	}
	if sum.TotalCustomers, err = users.CountDocuments(ctx, bson.M{"role": models.RoleUser}); err != nil {
		return sum, err
	}
	if sum.TotalProducts, err = products.CountDocuments(ctx, bson.M{}); err != nil {
		return sum, err
	}
	sum.LowStockCount, err = products.CountDocuments(ctx, bson.M{"isActive": true, "stock": bson.M{"$lte": lowStockAt}})
	if err != nil {
		return sum, err
	}
	sum.PendingOrders, err = orders.CountDocuments(ctx, bson.M{"orderStatus": models.OrderStatusPending})
	return sum, err
}

func (s *Store) OrdersByStatus(ctx context.Context) ([]models.StatusCount, error) {
	cursor, err := s.col(colOrders).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$orderStatus", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status models.OrderStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]models.StatusCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.StatusCount{Status: r.Status, Count: r.Count})
	}
	return out, nil
}

func (s *Store) TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	cursor, err := s.col(colOrders).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"orderStatus": bson.M{"$ne": models.OrderStatusCancelled}}}},
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$items.product.id",
			"name":      bson.M{"$first": "$items.product.name"},
			"soldCount": bson.M{"$sum": "$items.quantity"},
			"revenue":   bson.M{"$sum": "$items.subtotal"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "soldCount", Value: -1}, {Key: "name", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID        string  `bson:"_id"`
		Name      string  `bson:"name"`
		SoldCount int     `bson:"soldCount"`
		Revenue   float64 `bson:"revenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	products, err := s.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	stock := make(map[string]int, len(products))
	for _, p := range products {
		stock[p.ID] = p.Stock
	}

	out := make([]models.TopProduct, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.TopProduct{
			ID:        r.ID,
			Name:      r.Name,
			SoldCount: r.SoldCount,
			Revenue:   r.Revenue,
			Stock:     stock[r.ID],
		})
	}
	return out, nil
}

func (s *Store) DailySales(ctx context.Context, since time.Time) ([]models.DailySales, error) {
	cursor, err := s.col(colOrders).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"createdAt":   bson.M{"$gte": since},
			"orderStatus": bson.M{"$ne": models.OrderStatusCancelled},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":    bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
			"orders": bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$paymentStatus", models.PaymentStatusCompleted}},
				"$finalAmount",
				0.0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Date    string  `bson:"_id"`
		Orders  int64   `bson:"orders"`
		Revenue float64 `bson:"revenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]models.DailySales, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.DailySales{Date: r.Date, Orders: r.Orders, Revenue: r.Revenue})
	}
	return out, nil
}

func (s *Store) SalesReport(ctx context.Context, from, to time.Time) (*models.SalesReport, error) {
	result := models.SalesReport{From: from, To: to}
	window := bson.M{"$gte": from, "$lte": to}

	match := revenueMatch()
	match["createdAt"] = window
	total, err := s.sumFinalAmount(ctx, match)
	if err != nil {
		return nil, err
	}
	result.TotalRevenue = total

	result.TotalCount, err = s.col(colOrders).CountDocuments(ctx, bson.M{
		"createdAt":   window,
		"orderStatus": bson.M{"$ne": models.OrderStatusCancelled},
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
