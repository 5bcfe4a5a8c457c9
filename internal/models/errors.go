package models

import "errors"

// Domain errors. Callers wrap them with %w and match with errors.Is.
var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrNoFileSelected     = errors.New("no file selected")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidUsername    = errors.New("invalid username")
)
