package domain

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role is the fixed set of permission levels an account can hold
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the enumerated roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// OneOf reports whether r is contained in the allow-list
func (r Role) OneOf(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// BcryptCost is the work factor for password hashing
const BcryptCost = 12

// User is a registered account. PasswordHash and the reset-token fields are
// never serialized; soft deletion flips Active instead of removing the row.
type User struct {
	ID                   string     `json:"id" db:"id"`
	Name                 string     `json:"name" db:"name"`
	Email                string     `json:"email" db:"email"`
	Photo                string     `json:"photo,omitempty" db:"photo"`
	Role                 Role       `json:"role" db:"role"`
	PasswordHash         string     `json:"-" db:"password_hash"`
	PasswordChangedAt    *time.Time `json:"-" db:"password_changed_at"`
	PasswordResetToken   string     `json:"-" db:"password_reset_token"`
	PasswordResetExpires *time.Time `json:"-" db:"password_reset_expires"`
	Active               bool       `json:"-" db:"active"`
	CreatedAt            time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time  `json:"-" db:"updated_at"`
}

// NormalizeEmail lower-cases and trims an email address. Accounts are
// keyed by the normalized form, so "Ada@Example.COM" and
// "ada@example.com" are the same identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword hashes and stores the password
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CorrectPassword checks a candidate password against the stored hash
func (u *User) CorrectPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token issue time. Tokens issued before the change are stale.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Before(*u.PasswordChangedAt)
}

// MarkPasswordChanged records a password change. The timestamp is backdated
// one second so a token issued immediately afterwards is not rejected.
func (u *User) MarkPasswordChanged(now time.Time) {
	changed := now.Add(-time.Second)
	u.PasswordChangedAt = &changed
}

// ClearResetToken discards any outstanding reset token, making it single-use
func (u *User) ClearResetToken() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
}

// ResetTokenValid reports whether a stored reset token exists and has not expired
func (u *User) ResetTokenValid(now time.Time) bool {
	return u.PasswordResetToken != "" &&
		u.PasswordResetExpires != nil &&
		u.PasswordResetExpires.After(now)
}
