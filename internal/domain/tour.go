package domain

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// Difficulty is the fixed set of tour difficulty labels
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Valid reports whether d is one of the enumerated difficulties
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return true
	}
	return false
}

// Location is a point on a tour itinerary. Day is the itinerary day the
// stop belongs to; the start location carries no day.
type Location struct {
	Description string  `json:"description,omitempty"`
	Address     string  `json:"address,omitempty"`
	Day         int     `json:"day,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// Tour is a bookable trip. RowVersion is internal bookkeeping and is excluded
// from default projections.
type Tour struct {
	ID              string      `json:"id" db:"id"`
	Name            string      `json:"name" db:"name"`
	Slug            string      `json:"slug" db:"slug"`
	Duration        int         `json:"duration" db:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize" db:"max_group_size"`
	Difficulty      Difficulty  `json:"difficulty" db:"difficulty"`
	RatingsAverage  float64     `json:"ratingsAverage" db:"ratings_average"`
	RatingsQuantity int         `json:"ratingsQuantity" db:"ratings_quantity"`
	Price           float64     `json:"price" db:"price"`
	PriceDiscount   float64     `json:"priceDiscount,omitempty" db:"price_discount"`
	Summary         string      `json:"summary" db:"summary"`
	Description     string      `json:"description,omitempty" db:"description"`
	ImageCover      string      `json:"imageCover,omitempty" db:"image_cover"`
	Images          []string    `json:"images,omitempty" db:"images"`
	StartDates      []time.Time `json:"startDates,omitempty" db:"start_dates"`
	StartLocation   *Location   `json:"startLocation,omitempty" db:"start_location"`
	Locations       []Location  `json:"locations,omitempty" db:"locations"`
	SecretTour      bool        `json:"-" db:"secret_tour"`
	GuideIDs        []string    `json:"guides,omitempty" db:"guides"`
	Guides          []*User     `json:"guideDetails,omitempty" db:"-"`
	Reviews         []*Review   `json:"reviews,omitempty" db:"-"`
	RowVersion      int         `json:"-" db:"row_version"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time   `json:"-" db:"updated_at"`
}

// DefaultRatingsAverage is the aggregate value carried by tours without reviews
const DefaultRatingsAverage = 4.5

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the URL slug from a tour name
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStrip.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// RoundRating rounds an aggregate rating to one decimal place
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
