package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")

	// Recognition related errors
	ErrNoTitleGuess = errors.New("no title could be guessed from filename")
	ErrNoMatch      = errors.New("metadata search returned no usable match")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
