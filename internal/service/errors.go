package service

import "errors"

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrInvalidRole        = errors.New("role is not allowed")
)
