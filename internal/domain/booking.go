package domain

import "time"

// Booking records a purchased (or admin-entered) tour seat
type Booking struct {
	ID         string    `json:"id" db:"id"`
	TourID     string    `json:"tour" db:"tour_id"`
	UserID     string    `json:"user" db:"user_id"`
	Price      float64   `json:"price" db:"price"`
	Paid       bool      `json:"paid" db:"paid"`
	RowVersion int       `json:"-" db:"row_version"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"-" db:"updated_at"`
}

// CheckoutSession is the reference handed back by the payment processor
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
