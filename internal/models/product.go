package models

import "github.com/shopspring/decimal"

// Product represents a sellable item in the point-of-sale catalog. Price
// fields arrive from the API as decimal strings and are decoded into
// arbitrary-precision decimals so that summing many small line items never
// accumulates rounding error.
type Product struct {
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	NetPrice   decimal.Decimal `json:"netPrice"`
	GrossPrice decimal.Decimal `json:"grossPrice"`
	VATRate    decimal.Decimal `json:"vatRate"`
	Pos        int             `json:"pos"`
	TotalStock int             `json:"totalStock"`
	UnitsSold  int             `json:"unitsSold"`
	SoldOut    bool            `json:"soldOut"`
}

// VATAmount is the per-unit VAT share of the gross price.
func (p *Product) VATAmount() decimal.Decimal {
	return p.GrossPrice.Sub(p.NetPrice)
}
