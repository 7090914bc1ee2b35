package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is a discount code.  A nil CompanyID makes the coupon valid for
// every company.
//
// Fields:
//  ID         – primary key identifier.
//  Code       – redemption code, stored upper-case.
//  Discount   – fraction of the subtotal taken off, 0 < Discount < 1.
//  UsageLimit – maximum redemptions per user.
//  ExpireAt   – last instant at which the coupon is accepted.
//  CompanyID  – optional company scope.
type Coupon struct {
	ID         string          // coupons.id
	Code       string          // coupons.code
	Discount   decimal.Decimal // coupons.discount
	UsageLimit int             // coupons.usage_limit
	ExpireAt   time.Time       // coupons.expire_at
	CompanyID  *string         // coupons.company_id (nullable)
	CreatedAt  time.Time       // coupons.created_at
}

// AppliesTo reports whether the coupon may be used on a trip operated by companyID.
func (c Coupon) AppliesTo(companyID string) bool {
	return c.CompanyID == nil || *c.CompanyID == companyID
}

// CouponUsage records one redemption of a coupon by a user.
type CouponUsage struct {
	ID        string    // coupon_usages.id
	CouponID  string    // coupon_usages.coupon_id
	UserID    string    // coupon_usages.user_id
	TicketID  string    // coupon_usages.ticket_id
	CreatedAt time.Time // coupon_usages.created_at
}

// NormalizeCouponCode trims and upper-cases a user supplied code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
