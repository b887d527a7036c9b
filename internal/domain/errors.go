package domain

import "errors"

// Credential store errors
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already in use")
	ErrEmailTaken    = errors.New("email already in use")
)

// Document errors
var (
	ErrPdfNotFound = errors.New("pdf not found")
)
