package auth

import "errors"

var (
	ErrInvalidToken       = errors.New("token missing or invalid")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
)
