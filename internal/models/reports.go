package models

import "time"

// DashboardSummary - headline numbers for the admin dashboard
type DashboardSummary struct {
	TotalOrders    int64   `json:"totalOrders"`
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalCustomers int64   `json:"totalCustomers"`
	TotalProducts  int64   `json:"totalProducts"`
	LowStockCount  int64   `json:"lowStockCount"`
	PendingOrders  int64   `json:"pendingOrders"`
}

type StatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int64       `json:"count"`
}

type TopProduct struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	SoldCount int     `json:"soldCount"`
	Revenue   float64 `json:"revenue"`
	Stock     int     `json:"stock"`
}

// DailySales - revenue and order count for one calendar day (UTC)
type DailySales struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// SalesReport - totals for a date range, used by the assistant
type SalesReport struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	TotalRevenue float64   `json:"totalRevenue"`
	TotalCount   int64     `json:"totalCount"`
}
