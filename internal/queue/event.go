// Package queue defines the ticket events exchanged over RabbitMQ, the
// publisher used by the reservation service and a background consumer
// that writes them to an audit log.
package queue

const (
	// TicketPurchasedQueue carries TicketPurchasedEvent payloads.
	TicketPurchasedQueue = "ticket.purchased"
	// TicketCanceledQueue carries TicketCanceledEvent payloads.
	TicketCanceledQueue = "ticket.canceled"
)

// TicketPurchasedEvent is published after a purchase commits.  It carries
// enough information for downstream consumers to notify or audit without
// querying the primary database.
type TicketPurchasedEvent struct {
	TicketID    string `json:"ticket_id"`
	TripID      string `json:"trip_id"`
	CompanyID   string `json:"company_id"`
	UserID      string `json:"user_id"`
	Seats       []int  `json:"seats"`
	Subtotal    int64  `json:"subtotal"`
	Discount    int64  `json:"discount"`
	TotalPrice  int64  `json:"total_price"`
	CouponCode  string `json:"coupon_code,omitempty"`
	PurchasedAt string `json:"purchased_at"`
}

// TicketCanceledEvent is published after a cancellation commits.
type TicketCanceledEvent struct {
	TicketID       string `json:"ticket_id"`
	TripID         string `json:"trip_id"`
	UserID         string `json:"user_id"`
	CanceledBy     string `json:"canceled_by"`
	ByAdmin        bool   `json:"by_admin"`
	Seats          []int  `json:"seats"`
	RefundedAmount int64  `json:"refunded_amount"`
	CanceledAt     string `json:"canceled_at"`
}
