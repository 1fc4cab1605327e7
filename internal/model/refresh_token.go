package model

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a stored opaque refresh credential. Exactly one record
// exists per issued token; the record is deleted on logout, on successful
// rotation, or on first use after expiry.
type RefreshToken struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	Token     string    `json:"-" gorm:"uniqueIndex;size:64;not null"`
	UserID    uuid.UUID `json:"-" gorm:"type:char(36);index;not null"`
	User      User      `json:"-" gorm:"foreignKey:UserID"`
	ExpiresAt time.Time `json:"-" gorm:"index;not null"`
	CreatedAt time.Time `json:"-"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
