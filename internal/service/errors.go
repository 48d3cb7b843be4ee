package service

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUsernameTaken      = errors.New("a user with that username already exists")
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrInvalidToken       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token is expired")
	ErrBlacklisted        = errors.New("token is blacklisted")
	ErrMissingField       = errors.New("refresh: this field is required")
	ErrNotFound           = errors.New("not found")
	ErrGenreNotFound      = errors.New("genre does not exist")
)
