package service

import "github.com/shopspring/decimal"

// Price is the breakdown of a seat selection's cost in currency units.
type Price struct {
	Subtotal int64
	Discount int64
	Final    int64
}

// ComputePrice prices seats seats at unitPrice with an optional discount
// fraction (zero for none).  The discount is rounded to the nearest unit,
// halves away from zero, and the final price never goes below zero.
func ComputePrice(unitPrice int64, seats int, fraction decimal.Decimal) Price {
	subtotal := unitPrice * int64(seats)
	discount := decimal.NewFromInt(subtotal).Mul(fraction).Round(0).IntPart()
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	return Price{Subtotal: subtotal, Discount: discount, Final: subtotal - discount}
}
