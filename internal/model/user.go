package model

import "time"

// Account roles carried in the access token's role claim.
const (
	RoleUser    = "USER"
	RoleCompany = "COMPANY"
	RoleAdmin   = "ADMIN"
)

// UserAccount is the part of a user record the reservation engine needs:
// its identity and virtual-credit balance.  The balance is never negative
// in a committed state.
type UserAccount struct {
	ID        string    // users.id
	FullName  string    // users.full_name
	Role      string    // users.role
	Balance   int64     // users.balance
	CreatedAt time.Time // users.created_at
}

// Actor identifies who is asking for an operation.  Admins bypass ticket
// ownership checks.
type Actor struct {
	UserID  string
	IsAdmin bool
}
