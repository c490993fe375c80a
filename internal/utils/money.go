package utils

import "github.com/shopspring/decimal"

// ToPaise converts rupees to the smallest currency unit.
func ToPaise(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
