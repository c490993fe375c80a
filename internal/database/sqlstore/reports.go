package sqlstore

import (
	"context"
	"sort"
	"time"

	"thekua-api/internal/models"
)

// revenueScope is the set of orders whose money counts as earned.
const revenueScope = "order_status <> ? AND payment_status = ?"

func (s *Store) Summary(ctx context.Context, lowStockAt int) (models.DashboardSummary, error) {
	var sum models.DashboardSummary
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Order{}).Count(&sum.TotalOrders).Error; err != nil {
		return sum, err
	}

	// COALESCE ensures we get 0 instead of NULL if no sales exist
	err := db.Model(&models.Order{}).
		Where(revenueScope, models.OrderStatusCancelled, models.PaymentStatusCompleted).
		Select("COALESCE(SUM(final_amount), 0)").
		Scan(&sum.TotalRevenue).Error
	if err != nil {
		return sum, err
	}

	if err := db.Model(&models.User{}).Where("role = ?", models.RoleUser).Count(&sum.TotalCustomers).Error; err != nil {
		return sum, err
	}
	if err := db.Model(&models.Product{}).Count(&sum.TotalProducts).Error; err != nil {
		return sum, err
	}
	err = db.Model(&models.Product{}).
		Where("is_active = ? AND stock <= ?", true, lowStockAt).
		Count(&sum.LowStockCount).Error
	if err != nil {
		return sum, err
	}
	err = db.Model(&models.Order{}).
		Where("order_status = ?", models.OrderStatusPending).
		Count(&sum.PendingOrders).Error
	return sum, err
}

func (s *Store) OrdersByStatus(ctx context.Context) ([]models.StatusCount, error) {
	var rows []models.StatusCount
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("order_status AS status, COUNT(*) AS count").
		Group("order_status").
		Scan(&rows).Error
	return rows, err
}

// TopProducts ranks products by units sold in non-cancelled orders. Line items
// are stored as JSON, so the grouping happens here rather than in SQL.
func (s *Store) TopProducts(ctx context.Context, limit int) ([]models.TopProduct, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Select("items").
		Where("order_status <> ?", models.OrderStatusCancelled).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	byID := map[string]*models.TopProduct{}
	for _, o := range orders {
		for _, it := range o.Items {
			tp, ok := byID[it.Product.ID]
			if !ok {
				tp = &models.TopProduct{ID: it.Product.ID, Name: it.Product.Name}
				byID[it.Product.ID] = tp
			}
			tp.SoldCount += it.Quantity
			tp.Revenue += it.Subtotal
		}
	}

	ranked := make([]models.TopProduct, 0, len(byID))
	ids := make([]string, 0, len(byID))
	for id, tp := range byID {
		ranked = append(ranked, *tp)
		ids = append(ids, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].SoldCount != ranked[j].SoldCount {
			return ranked[i].SoldCount > ranked[j].SoldCount
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	// Attach live stock
	products, err := s.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	stock := make(map[string]int, len(products))
	for _, p := range products {
		stock[p.ID] = p.Stock
	}
	for i := range ranked {
		ranked[i].Stock = stock[ranked[i].ID]
	}
	return ranked, nil
}

func (s *Store) DailySales(ctx context.Context, since time.Time) ([]models.DailySales, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Select("created_at", "final_amount", "payment_status").
		Where("created_at >= ? AND order_status <> ?", since, models.OrderStatusCancelled).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	byDay := map[string]*models.DailySales{}
	for _, o := range orders {
		day := o.CreatedAt.UTC().Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &models.DailySales{Date: day}
			byDay[day] = d
		}
		d.Orders++
		if o.PaymentStatus == models.PaymentStatusCompleted {
			d.Revenue += o.FinalAmount
		}
	}

	days := make([]models.DailySales, 0, len(byDay))
	for _, d := range byDay {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

// SalesReport calculates sales within a specific date range
func (s *Store) SalesReport(ctx context.Context, from, to time.Time) (*models.SalesReport, error) {
	result := models.SalesReport{From: from, To: to}
	db := s.db.WithContext(ctx)

	err := db.Model(&models.Order{}).
		Where("created_at BETWEEN ? AND ?", from, to).
		Where(revenueScope, models.OrderStatusCancelled, models.PaymentStatusCompleted).
		Select("COALESCE(SUM(final_amount), 0)").
		Scan(&result.TotalRevenue).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&models.Order{}).
		Where("created_at BETWEEN ? AND ?", from, to).
		Where("order_status <> ?", models.OrderStatusCancelled).
		Count(&result.TotalCount).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}
