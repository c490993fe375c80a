package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"thekua-api/internal/apperr"
	"thekua-api/internal/database"
	"thekua-api/internal/models"

	"github.com/google/generative-ai-go/genai"
)

const (
	ToolCheckInventory = "check_inventory"
	ToolUpdatePrice    = "update_product_price"
	ToolSalesReport    = "get_sales_report"
	ToolFindOrder      = "find_order"
)

type Catalog interface {
	List(ctx context.Context, f database.ProductFilter) ([]models.Product, int64, error)
	SetPrice(ctx context.Context, id string, price float64) (*models.Product, error)
}

type OrderFinder interface {
	ListOrders(ctx context.Context, f database.OrderFilter) ([]models.Order, int64, error)
}

type SalesReporter interface {
	SalesReport(ctx context.Context, from, to time.Time) (*models.SalesReport, error)
}

// Tools runs the function calls the model asks for against the store.
type Tools struct {
	catalog Catalog
	orders  OrderFinder
	reports SalesReporter
}

func NewTools(catalog Catalog, orders OrderFinder, reports SalesReporter) *Tools {
	return &Tools{catalog: catalog, orders: orders, reports: reports}
}

func (t *Tools) declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        ToolCheckInventory,
			Description: "Get the product list with id, name, category, price and stock. Use this to find ANY product detail or a product id by name.",
		},
		{
			Name:        ToolUpdatePrice,
			Description: "Update the price of a specific product using its ID",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"product_id": {Type: genai.TypeString, Description: "ID of the product"},
					"new_price":  {Type: genai.TypeNumber, Description: "New price in INR"},
				},
				Required: []string{"product_id", "new_price"},
			},
		},
		{
			Name:        ToolSalesReport,
			Description: "Get total paid revenue and order count for a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
		{
			Name:        ToolFindOrder,
			Description: "Look up orders by order number or a fragment of it.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"order_number": {Type: genai.TypeString, Description: "Order number, e.g. TK-20250101-ABCD"},
				},
				Required: []string{"order_number"},
			},
		},
	}
}

type inventoryItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Active   bool    `json:"active"`
}

type orderSummary struct {
	OrderNumber   string               `json:"orderNumber"`
	Customer      string               `json:"customer"`
	OrderStatus   models.OrderStatus   `json:"orderStatus"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	FinalAmount   float64              `json:"finalAmount"`
	Items         int                  `json:"items"`
	CreatedAt     string               `json:"createdAt"`
}

// Execute runs one tool call. Bad arguments and missing records are reported
// back to the model in the response rather than failing the conversation.
func (t *Tools) Execute(ctx context.Context, name string, args map[string]interface{}) (map[string]interface{}, error) {
	var (
		out map[string]interface{}
		err error
	)
	switch name {
	case ToolCheckInventory:
		out, err = t.inventory(ctx)
	case ToolUpdatePrice:
		out, err = t.updatePrice(ctx, args)
	case ToolSalesReport:
		out, err = t.salesReport(ctx, args)
	case ToolFindOrder:
		out, err = t.findOrder(ctx, args)
	default:
		return map[string]interface{}{"error": "unknown tool " + name}, nil
	}
	if err != nil {
		if _, ok := apperr.AsValidation(err); ok || errors.Is(err, apperr.ErrNotFound) {
			return map[string]interface{}{"error": err.Error()}, nil
		}
		return nil, err
	}
	return out, nil
}

func (t *Tools) inventory(ctx context.Context) (map[string]interface{}, error) {
	products, _, err := t.catalog.List(ctx, database.ProductFilter{Page: database.Page{Limit: database.MaxPageSize}})
	if err != nil {
		return nil, err
	}
	list := make([]inventoryItem, 0, len(products))
	for _, p := range products {
		list = append(list, inventoryItem{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Price:    p.Price,
			Stock:    p.Stock,
			Active:   p.IsActive,
		})
	}
	return map[string]interface{}{"inventory": list}, nil
}

func (t *Tools) updatePrice(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	id, _ := args["product_id"].(string)
	price, ok := args["new_price"].(float64)
	if id == "" || !ok {
		return nil, apperr.Invalid("arguments", "product_id and new_price are required")
	}
	p, err := t.catalog.SetPrice(ctx, id, price)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"status": "updated", "id": p.ID, "name": p.Name, "new_price": p.Price}, nil
}

func (t *Tools) salesReport(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)

	start, err1 := time.Parse("2006-01-02", startStr)
	end, err2 := time.Parse("2006-01-02", endStr)
	if err1 != nil || err2 != nil {
		return nil, apperr.Invalid("dates", "must be in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return nil, apperr.Invalid("dates", "end_date is before start_date")
	}
	end = end.Add(24*time.Hour - time.Second)

	report, err := t.reports.SalesReport(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}
	return map[string]interface{}{
		"revenue":     report.TotalRevenue,
		"sales_count": report.TotalCount,
	}, nil
}

func (t *Tools) findOrder(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	number, _ := args["order_number"].(string)
	if number == "" {
		return nil, apperr.Invalid("order_number", "is required")
	}
	found, total, err := t.orders.ListOrders(ctx, database.OrderFilter{Search: number, Page: database.Page{Limit: 5}})
	if err != nil {
		return nil, err
	}
	list := make([]orderSummary, 0, len(found))
	for _, o := range found {
		list = append(list, orderSummary{
			OrderNumber:   o.OrderNumber,
			Customer:      o.ShippingAddress.FullName,
			OrderStatus:   o.OrderStatus,
			PaymentStatus: o.PaymentStatus,
			PaymentMethod: o.PaymentMethod,
			FinalAmount:   o.FinalAmount,
			Items:         o.ItemCount(),
			CreatedAt:     o.CreatedAt.Format(time.RFC3339),
		})
	}
	return map[string]interface{}{"orders": list, "total": total}, nil
}
