package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// validateCoupon resolves code for a purchase by userID on a trip run by
// companyID.  Checks run in a fixed order: existence, expiry, company
// scope, then the per-user usage count.
func validateCoupon(ctx context.Context, tx Tx, code, companyID, userID string, now time.Time) (model.Coupon, error) {
	c, err := tx.FindCouponByCode(ctx, model.NormalizeCouponCode(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Coupon{}, ErrCouponNotFound
		}
		return model.Coupon{}, fmt.Errorf("find coupon: %w", err)
	}

	// expire_at itself is still valid
	if now.After(c.ExpireAt) {
		return model.Coupon{}, ErrCouponExpired
	}
	if !c.AppliesTo(companyID) {
		return model.Coupon{}, ErrCouponWrongScope
	}

	used, err := tx.CountCouponUsage(ctx, c.ID, userID)
	if err != nil {
		return model.Coupon{}, fmt.Errorf("count coupon usage: %w", err)
	}
	if used >= c.UsageLimit {
		return model.Coupon{}, ErrCouponUsageLimit
	}
	return c, nil
}
