package retry

import "errors"

var (
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrNilOperation     = errors.New("nil operation")
)
