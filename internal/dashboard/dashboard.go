// Package dashboard builds the admin overview and sales analytics.
package dashboard

import (
	"context"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	LowStockThreshold = 10
	recentOrders      = 5
	topProducts       = 5
	maxAnalyticsDays  = 365
)

type Store interface {
	database.ReportStore
	database.OrderStore
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

type Overview struct {
	Summary        models.DashboardSummary `json:"summary"`
	OrdersByStatus []models.StatusCount    `json:"ordersByStatus"`
	RecentOrders   []models.Order          `json:"recentOrders"`
	TopProducts    []models.TopProduct     `json:"topProducts"`
}

// Overview runs the dashboard queries concurrently.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var (
		out      Overview
		byStatus []models.StatusCount
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.store.Summary(ctx, LowStockThreshold)
		out.Summary = sum
		return err
	})
	g.Go(func() error {
		var err error
		byStatus, err = s.store.OrdersByStatus(ctx)
		return err
	})
	g.Go(func() error {
		orders, _, err := s.store.ListOrders(ctx, database.OrderFilter{Page: database.Page{Page: 1, Limit: recentOrders}})
		out.RecentOrders = orders
		return err
	})
	g.Go(func() error {
		var err error
		out.TopProducts, err = s.store.TopProducts(ctx, topProducts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.OrdersByStatus = fillStatuses(byStatus)
	if out.RecentOrders == nil {
		out.RecentOrders = []models.Order{}
	}
	if out.TopProducts == nil {
		out.TopProducts = []models.TopProduct{}
	}
	return &out, nil
}

// fillStatuses reports every status in lifecycle order, zero when absent.
func fillStatuses(counts []models.StatusCount) []models.StatusCount {
	byStatus := make(map[models.OrderStatus]int64, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	out := make([]models.StatusCount, 0, len(byStatus))
	for _, st := range models.OrderStatuses() {
		out = append(out, models.StatusCount{Status: st, Count: byStatus[st]})
	}
	return out
}

// Analytics returns one entry per UTC day for the last days days, today included.
func (s *Service) Analytics(ctx context.Context, days int) ([]models.DailySales, error) {
	if days < 1 || days > maxAnalyticsDays {
		return nil, apperr.Invalid("days", "must be between 1 and 365")
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	rows, err := s.store.DailySales(ctx, since)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]models.DailySales, len(rows))
	for _, r := range rows {
		byDay[r.Date] = r
	}

	out := make([]models.DailySales, 0, days)
	for d := since; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if r, ok := byDay[key]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, models.DailySales{Date: key})
	}
	return out, nil
}
