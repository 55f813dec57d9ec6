package models

import "errors"

// Sentinel errors shared by every storage backend. Controllers map
// them onto HTTP statuses; stores return them unwrapped or wrapped
// with %w so errors.Is keeps working.
var (
	ErrNotFound             = errors.New("record not found")
	ErrInvalidInput         = errors.New("missing required field")
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrAuthFailed           = errors.New("invalid credentials")
	ErrEmptyPost            = errors.New("post must have content or media")
	ErrEmptyComment         = errors.New("comment content is required")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)
