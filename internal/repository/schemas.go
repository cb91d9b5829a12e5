package repository

import (
	"github.com/ShubhamMishra2526/Travease-App/internal/apperror"
	"github.com/ShubhamMishra2526/Travease-App/internal/query"
)

// Query schemas for every listable resource. The schema is the single
// allow-list used for filtering, sorting, projection and update bodies:
// API field names on the left, storage columns on the right. Internal
// fields never leave the database unless explicitly projected.

// TourSchema describes the tours table.
var TourSchema = query.NewSchema("tours",
	query.Field{Name: "id", Column: "id", Filterable: true},
	query.Field{Name: "name", Column: "name", Filterable: true},
	query.Field{Name: "slug", Column: "slug", Filterable: true},
	query.Field{Name: "duration", Column: "duration", Filterable: true},
	query.Field{Name: "maxGroupSize", Column: "max_group_size", Filterable: true},
	query.Field{Name: "difficulty", Column: "difficulty", Filterable: true},
	query.Field{Name: "ratingsAverage", Column: "ratings_average", Filterable: true},
	query.Field{Name: "ratingsQuantity", Column: "ratings_quantity", Filterable: true},
	query.Field{Name: "price", Column: "price", Filterable: true},
	query.Field{Name: "priceDiscount", Column: "price_discount"},
	query.Field{Name: "summary", Column: "summary"},
	query.Field{Name: "description", Column: "description"},
	query.Field{Name: "imageCover", Column: "image_cover"},
	query.Field{Name: "images", Column: "images"},
	query.Field{Name: "startDates", Column: "start_dates"},
	query.Field{Name: "startLocation", Column: "start_location"},
	query.Field{Name: "locations", Column: "locations"},
	query.Field{Name: "guides", Column: "guides"},
	query.Field{Name: "createdAt", Column: "created_at", Filterable: true},
	query.Field{Name: "secretTour", Column: "secret_tour", Internal: true},
	query.Field{Name: "rowVersion", Column: "row_version", Internal: true},
).WithDefaultSort("created_at DESC")

// UserSchema describes the users table. Credential and reset columns are
// internal and unreachable through the API surface.
var UserSchema = query.NewSchema("users",
	query.Field{Name: "id", Column: "id", Filterable: true},
	query.Field{Name: "name", Column: "name", Filterable: true},
	query.Field{Name: "email", Column: "email", Filterable: true},
	query.Field{Name: "photo", Column: "photo"},
	query.Field{Name: "role", Column: "role", Filterable: true},
	query.Field{Name: "createdAt", Column: "created_at", Filterable: true},
	query.Field{Name: "active", Column: "active", Internal: true},
	query.Field{Name: "passwordHash", Column: "password_hash", Internal: true},
	query.Field{Name: "passwordChangedAt", Column: "password_changed_at", Internal: true},
	query.Field{Name: "passwordResetToken", Column: "password_reset_token", Internal: true},
	query.Field{Name: "passwordResetExpires", Column: "password_reset_expires", Internal: true},
).WithDefaultSort("created_at DESC")

// ReviewSchema describes the reviews table.
var ReviewSchema = query.NewSchema("reviews",
	query.Field{Name: "id", Column: "id", Filterable: true},
	query.Field{Name: "review", Column: "review"},
	query.Field{Name: "rating", Column: "rating", Filterable: true},
	query.Field{Name: "tour", Column: "tour_id", Filterable: true},
	query.Field{Name: "user", Column: "user_id", Filterable: true},
	query.Field{Name: "createdAt", Column: "created_at", Filterable: true},
	query.Field{Name: "rowVersion", Column: "row_version", Internal: true},
).WithDefaultSort("created_at DESC")

// BookingSchema describes the bookings table.
var BookingSchema = query.NewSchema("bookings",
	query.Field{Name: "id", Column: "id", Filterable: true},
	query.Field{Name: "tour", Column: "tour_id", Filterable: true},
	query.Field{Name: "user", Column: "user_id", Filterable: true},
	query.Field{Name: "price", Column: "price", Filterable: true},
	query.Field{Name: "paid", Column: "paid", Filterable: true},
	query.Field{Name: "createdAt", Column: "created_at", Filterable: true},
	query.Field{Name: "rowVersion", Column: "row_version", Internal: true},
).WithDefaultSort("created_at DESC")

// translatePatch maps an API-named update body onto storage columns
// using the resource schema. Unknown or internal fields are rejected,
// fields in blocked are silently dropped.
func translatePatch(schema *query.Schema, patch map[string]interface{}, blocked ...string) (map[string]interface{}, error) {
	skip := make(map[string]struct{}, len(blocked)+1)
	skip["id"] = struct{}{}
	for _, b := range blocked {
		skip[b] = struct{}{}
	}

	columns := make(map[string]interface{}, len(patch))
	for name, value := range patch {
		if _, ok := skip[name]; ok {
			continue
		}
		field, ok := schema.Lookup(name)
		if !ok || field.Internal {
			return nil, apperror.BadRequest("Unknown field in request body: " + name)
		}
		columns[field.Column] = value
	}
	return columns, nil
}
