package tokenstore

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidTTL       = errors.New("ttl must be positive")
	ErrEmptyKey         = errors.New("key must not be empty")
	ErrStoreUnavailable = errors.New("token store unavailable")
	ErrAlreadyStarted   = errors.New("token store cleanup already started")
	ErrNotStarted       = errors.New("token store cleanup not started")
)
