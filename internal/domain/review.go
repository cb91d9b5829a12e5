package domain

import "time"

// Review is a user's rating of a tour. A user may review a tour at most once
// (unique tour+user pair, enforced by the storage layer).
type Review struct {
	ID         string    `json:"id" db:"id"`
	Review     string    `json:"review" db:"review"`
	Rating     int       `json:"rating" db:"rating"`
	TourID     string    `json:"tour" db:"tour_id"`
	UserID     string    `json:"user" db:"user_id"`
	Author     *User     `json:"author,omitempty" db:"-"`
	RowVersion int       `json:"-" db:"row_version"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"-" db:"updated_at"`
}

// RatingStats is the aggregate recomputed on a tour after review writes
type RatingStats struct {
	Quantity int
	Average  float64
}
