package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// GetAccount reads a user's account without locking it.
func (t *Tx) GetAccount(ctx context.Context, userID string) (model.UserAccount, error) {
	return t.account(ctx, userID, "")
}

// LockAccount reads a user's account and, on MySQL, holds its row lock
// until the transaction ends.  Concurrent purchases by the same user are
// therefore serialized.  Callers take it before any other read of the
// transaction; the coupon usage count additionally reads with a lock.
func (t *Tx) LockAccount(ctx context.Context, userID string) (model.UserAccount, error) {
	return t.account(ctx, userID, t.dialect.ForUpdate())
}

func (t *Tx) account(ctx context.Context, userID, suffix string) (model.UserAccount, error) {
	q := `SELECT id, full_name, role, balance, created_at FROM users WHERE id = ?` + suffix
	var a model.UserAccount
	err := t.tx.QueryRowContext(ctx, q, userID).Scan(&a.ID, &a.FullName, &a.Role, &a.Balance, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UserAccount{}, ErrNotFound
		}
		return model.UserAccount{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// Debit takes amount from the user's balance.  The update is conditional
// on the balance covering the amount, so two concurrent debits can never
// drive it below zero; ErrInsufficientFunds is returned instead.
func (t *Tx) Debit(ctx context.Context, userID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("debit: negative amount %d", amount)
	}
	if amount == 0 {
		return nil
	}
	const q = `UPDATE users SET balance = balance - ? WHERE id = ? AND balance >= ?`
	res, err := t.tx.ExecContext(ctx, q, amount, userID, amount)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}
	if n == 0 {
		if _, err := t.GetAccount(ctx, userID); err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	return nil
}

// Credit adds amount to the user's balance.  There is no upper bound.
func (t *Tx) Credit(ctx context.Context, userID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit: negative amount %d", amount)
	}
	if amount == 0 {
		return nil
	}
	res, err := t.tx.ExecContext(ctx, `UPDATE users SET balance = balance + ? WHERE id = ?`, amount, userID)
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
