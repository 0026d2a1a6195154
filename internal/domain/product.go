package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasStock checks whether the product has at least the given quantity available.
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}

// DecreaseStock subtracts the given quantity from stock.
// It is the only path that mutates stock downward; a decrement that would
// leave stock negative is rejected without mutating anything.
func (p *Product) DecreaseStock(quantity int) error {
	if p.Stock < quantity {
		return &InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.Stock,
			Requested:   quantity,
		}
	}
	p.Stock -= quantity
	p.UpdatedAt = time.Now()
	return nil
}
