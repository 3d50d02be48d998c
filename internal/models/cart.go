package models

import "github.com/shopspring/decimal"

// CartLine is one product entry in the cart with aggregated quantity and
// price. Totals are recomputed from unit price × quantity on every mutation
// and are never stored stale.
type CartLine struct {
	ProductID       int                 `json:"productId"`
	Name            string              `json:"name"`
	UnitNetPrice    decimal.Decimal     `json:"unitNetPrice"`
	UnitGrossPrice  decimal.Decimal     `json:"unitGrossPrice"`
	UnitVATAmount   decimal.Decimal     `json:"unitVatAmount"`
	Quantity        int                 `json:"quantity"`
	TotalNetPrice   decimal.Decimal     `json:"totalNetPrice"`
	TotalGrossPrice decimal.Decimal     `json:"totalGrossPrice"`
	TotalVATAmount  decimal.Decimal     `json:"totalVatAmount"`
	AttachedEntries []GuestlistEntryRef `json:"attachedEntries,omitempty"`
}

func (l *CartLine) recompute() {
	qty := decimal.NewFromInt(int64(l.Quantity))
	l.TotalNetPrice = l.UnitNetPrice.Mul(qty)
	l.TotalGrossPrice = l.UnitGrossPrice.Mul(qty)
	l.TotalVATAmount = l.UnitVATAmount.Mul(qty)
}

// Cart is an ordered collection of cart lines keyed by product identity.
// It is an immutable value: every mutation returns a new cart and never
// aliases the previous cart's line slices, so an old snapshot handed to a
// checkout request cannot change underneath it.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// NewCart returns an empty cart.
func NewCart() Cart {
	return Cart{}
}

// Add merges quantity of product into the cart. If a line for the product
// exists its quantity is incremented, otherwise a new line is appended. A
// non-nil guestlist entry is attached to the line unless its ID is already
// attached anywhere in the cart, in which case the attachment is a no-op
// but the quantity change still applies. Quantities below one are rejected
// by returning the cart unchanged.
func (c Cart) Add(product *Product, quantity int, entry *GuestlistEntryRef) Cart {
	if quantity < 1 {
		return c
	}

	lines := copyLines(c.Lines)

	attach := entry != nil && !c.ContainsGuestlistEntry(entry.ID)

	for i := range lines {
		if lines[i].ProductID == product.ID {
			lines[i].Quantity += quantity
			if attach {
				lines[i].AttachedEntries = append(lines[i].AttachedEntries, *entry)
			}
			lines[i].recompute()
			return Cart{Lines: lines}
		}
	}

	line := CartLine{
		ProductID:      product.ID,
		Name:           product.Name,
		UnitNetPrice:   product.NetPrice,
		UnitGrossPrice: product.GrossPrice,
		UnitVATAmount:  product.VATAmount(),
		Quantity:       quantity,
	}
	if attach {
		line.AttachedEntries = []GuestlistEntryRef{*entry}
	}
	line.recompute()

	return Cart{Lines: append(lines, line)}
}

// Remove deletes the line for the product outright; there is no partial
// quantity decrement. Removing an absent product is a no-op.
func (c Cart) Remove(productID int) Cart {
	lines := make([]CartLine, 0, len(c.Lines))
	for _, line := range c.Lines {
		if line.ProductID != productID {
			lines = append(lines, copyLine(line))
		}
	}
	return Cart{Lines: lines}
}

// Clear returns an empty cart.
func (c Cart) Clear() Cart {
	return Cart{}
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// QuantityFor returns the quantity of the product in the cart, 0 if absent.
func (c Cart) QuantityFor(productID int) int {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// ContainsGuestlistEntry reports whether any line has the guestlist entry
// attached. Used to keep an entry from being redeemed twice and to disable
// redeem controls for entries already in the cart.
func (c Cart) ContainsGuestlistEntry(entryID int) bool {
	for _, line := range c.Lines {
		for _, ref := range line.AttachedEntries {
			if ref.ID == entryID {
				return true
			}
		}
	}
	return false
}

// TotalNetPrice sums the net totals of all lines.
func (c Cart) TotalNetPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.TotalNetPrice)
	}
	return total
}

// TotalGrossPrice sums the gross totals of all lines.
func (c Cart) TotalGrossPrice() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.TotalGrossPrice)
	}
	return total
}

// TotalVATAmount sums the VAT totals of all lines.
func (c Cart) TotalVATAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.TotalVATAmount)
	}
	return total
}

// TotalQuantity sums the quantities of all lines.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

func copyLine(line CartLine) CartLine {
	if line.AttachedEntries != nil {
		entries := make([]GuestlistEntryRef, len(line.AttachedEntries))
		copy(entries, line.AttachedEntries)
		line.AttachedEntries = entries
	}
	return line
}

func copyLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	for i, line := range lines {
		out[i] = copyLine(line)
	}
	return out
}
