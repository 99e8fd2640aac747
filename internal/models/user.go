package models

import "time"

// MaxLoginHistory is the number of logins kept per user.
const MaxLoginHistory = 8

// LoginEntry records one successful credential verification.
type LoginEntry struct {
	DateTime  time.Time `json:"dateTime" bson:"dateTime"`
	UserAgent string    `json:"userAgent" bson:"userAgent"`
}

// LoginHistory is a most-recent-first log of logins, bounded to MaxLoginHistory.
type LoginHistory []LoginEntry

// Record returns a new history with entry at the head. When the history is
// already full the oldest entries are dropped first. The receiver is not modified.
func (h LoginHistory) Record(entry LoginEntry) LoginHistory {
	kept := h
	if len(kept) >= MaxLoginHistory {
		kept = kept[:MaxLoginHistory-1]
	}

	next := make(LoginHistory, 0, len(kept)+1)
	next = append(next, entry)
	return append(next, kept...)
}

// User represents a registered user of the site.
type User struct {
	ID           string       `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserName     string       `json:"userName" bson:"userName" gorm:"uniqueIndex;type:varchar(100);not null"`
	Password     string       `json:"-" bson:"password" gorm:"type:varchar(255);not null"` // bcrypt hash, never plaintext
	Email        string       `json:"email" bson:"email" gorm:"type:varchar(255);not null"`
	LoginHistory LoginHistory `json:"loginHistory" bson:"loginHistory" gorm:"serializer:json"`
}

// RegisterRequest is the input of a registration attempt.
type RegisterRequest struct {
	UserName  string `json:"userName" validate:"required,min=1,max=100"`
	Password  string `json:"password" validate:"required"`
	Password2 string `json:"password2" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// LoginRequest is the input of a credential verification.
type LoginRequest struct {
	UserName  string `json:"userName" validate:"required"`
	Password  string `json:"password" validate:"required"`
	UserAgent string `json:"-"`
}
