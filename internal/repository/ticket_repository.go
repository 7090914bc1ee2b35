package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// InsertTicket writes a new ticket row.  The status must be a member of
// the TicketStatus enum.
func (t *Tx) InsertTicket(ctx context.Context, tk model.Ticket) error {
	if !tk.Status.Valid() {
		return fmt.Errorf("insert ticket: invalid status %q", tk.Status)
	}
	const q = `INSERT INTO tickets (id, trip_id, user_id, status, total_price, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := t.tx.ExecContext(ctx, q, tk.ID, tk.TripID, tk.UserID, string(tk.Status), tk.TotalPrice, tk.CreatedAt); err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

// GetTicketForUpdate loads a ticket and, on MySQL, locks its row for the
// rest of the transaction.  Stored status literals are normalized; an
// unknown literal is reported as an error rather than guessed at.
func (t *Tx) GetTicketForUpdate(ctx context.Context, ticketID string) (model.Ticket, error) {
	q := `SELECT id, trip_id, user_id, status, total_price, created_at FROM tickets WHERE id = ?` + t.dialect.ForUpdate()
	var (
		tk     model.Ticket
		status string
	)
	err := t.tx.QueryRowContext(ctx, q, ticketID).Scan(&tk.ID, &tk.TripID, &tk.UserID, &status, &tk.TotalPrice, &tk.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Ticket{}, ErrNotFound
		}
		return model.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	st, err := model.ParseTicketStatus(status)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("get ticket %s: %w", ticketID, err)
	}
	tk.Status = st
	tk.CreatedAt = tk.CreatedAt.UTC()
	return tk, nil
}

// UpdateTicketStatus moves a ticket from one status to another.  The
// update only applies when the ticket is still in the from status;
// otherwise ErrStaleStatus is returned and nothing changes.
func (t *Tx) UpdateTicketStatus(ctx context.Context, ticketID string, from, to model.TicketStatus) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("update ticket status: invalid transition %q -> %q", from, to)
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE tickets SET status = ? WHERE id = ? AND status = ?`,
		string(to), ticketID, string(from))
	if err != nil {
		return fmt.Errorf("update ticket status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ticket status: %w", err)
	}
	if n == 0 {
		return ErrStaleStatus
	}
	return nil
}
