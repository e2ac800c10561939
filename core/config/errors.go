package config

import "errors"

var (
	ErrNilConfig = errors.New("config: nil config pointer")
	ErrNotStruct = errors.New("config: target is not a struct")
	ErrParse     = errors.New("config: failed to parse environment")
)
