package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a read-mostly snapshot owned by the catalog; stock is the only
// field this service mutates.
type Product struct {
	id         uuid.UUID
	title      string
	price      decimal.Decimal
	salePrice  *decimal.Decimal
	saleEndsAt *time.Time
	stock      int
	category   string
}

func Reconstruct(
	id uuid.UUID,
	title string,
	price decimal.Decimal,
	salePrice *decimal.Decimal,
	saleEndsAt *time.Time,
	stock int,
	category string,
) *Product {
	return &Product{
		id:         id,
		title:      title,
		price:      price,
		salePrice:  salePrice,
		saleEndsAt: saleEndsAt,
		stock:      stock,
		category:   category,
	}
}

// OnSaleAt reports whether the sale price applies at t. A sale without an
// end date runs until the catalog removes it.
func (p *Product) OnSaleAt(t time.Time) bool {
	if p.salePrice == nil {
		return false
	}
	return p.saleEndsAt == nil || t.Before(*p.saleEndsAt)
}

func (p *Product) UnitPriceAt(t time.Time) decimal.Decimal {
	if p.OnSaleAt(t) {
		return *p.salePrice
	}
	return p.price
}

// SaleExpiredAt is true for products still carrying a sale price past its end.
func (p *Product) SaleExpiredAt(t time.Time) bool {
	return p.salePrice != nil && p.saleEndsAt != nil && !t.Before(*p.saleEndsAt)
}

func (p *Product) ID() uuid.UUID                { return p.id }
func (p *Product) Title() string                { return p.title }
func (p *Product) Price() decimal.Decimal       { return p.price }
func (p *Product) SalePrice() *decimal.Decimal  { return p.salePrice }
func (p *Product) SaleEndsAt() *time.Time       { return p.saleEndsAt }
func (p *Product) Stock() int                   { return p.stock }
func (p *Product) Category() string             { return p.category }
