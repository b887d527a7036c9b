package postgres

import (
	"errors"

	"github.com/dom/studyhub/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// Index names come from the gorm tags on domain.User.
const (
	usernameIndex = "idx_users_username"
	emailIndex    = "idx_users_email"
)

// translateUserConflict maps a unique violation on users to the matching domain error.
func translateUserConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case usernameIndex:
		return domain.ErrUsernameTaken
	case emailIndex:
		return domain.ErrEmailTaken
	}
	return err
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
