package cookie

import (
	"errors"
	"fmt"
)

var ErrCookieNotFound = errors.New("cookie not found in request")

// ErrCookieTooLarge indicates the serialized cookie exceeds the size limit.
type ErrCookieTooLarge struct {
	Name string
	Size int
	Max  int
}

func (e ErrCookieTooLarge) Error() string {
	return fmt.Sprintf("cookie %q is %d bytes, max %d", e.Name, e.Size, e.Max)
}
