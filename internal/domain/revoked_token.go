package domain

import "time"

// RevokedToken denies a token id until ExpiresAt, after which the token would fail on expiry anyway.
type RevokedToken struct {
	JTI       string    `gorm:"column:jti;primaryKey"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}
