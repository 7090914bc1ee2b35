package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/bus-ticket-reservation/internal/database"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// FindCouponByCode looks a coupon up by its code, ignoring case and
// surrounding whitespace.  Codes are stored upper-case, so the lookup is
// an exact match on the unique index.  Expiry and scope are not checked
// here.
func (t *Tx) FindCouponByCode(ctx context.Context, code string) (model.Coupon, error) {
	const q = `SELECT id, code, discount, usage_limit, expire_at, company_id, created_at
               FROM coupons
               WHERE code = ?`
	var (
		c         model.Coupon
		companyID sql.NullString
	)
	err := t.tx.QueryRowContext(ctx, q, model.NormalizeCouponCode(code)).Scan(
		&c.ID, &c.Code, &c.Discount, &c.UsageLimit, &c.ExpireAt, &companyID, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Coupon{}, ErrNotFound
		}
		return model.Coupon{}, fmt.Errorf("get coupon: %w", err)
	}
	if companyID.Valid {
		id := companyID.String
		c.CompanyID = &id
	}
	c.ExpireAt = c.ExpireAt.UTC()
	return c, nil
}

// CountCouponUsage returns how many times userID has redeemed couponID.
// On MySQL the counted rows are read with a locking read so the count
// reflects committed redemptions, not the transaction's snapshot.
func (t *Tx) CountCouponUsage(ctx context.Context, couponID, userID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, countCouponUsageQuery(t.dialect), couponID, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count coupon usage: %w", err)
	}
	return n, nil
}

// InsertCouponUsage records one redemption.
func (t *Tx) InsertCouponUsage(ctx context.Context, u model.CouponUsage) error {
	const q = `INSERT INTO coupon_usages (id, coupon_id, user_id, ticket_id, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := t.tx.ExecContext(ctx, q, u.ID, u.CouponID, u.UserID, u.TicketID, u.CreatedAt); err != nil {
		return fmt.Errorf("insert coupon usage: %w", err)
	}
	return nil
}

func countCouponUsageQuery(d database.Dialect) string {
	return `SELECT COUNT(*) FROM coupon_usages WHERE coupon_id = ? AND user_id = ?` + d.ForUpdate()
}
