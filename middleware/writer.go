package middleware

import (
	"errors"
	"net/http"
)

// recorder counts bytes and remembers the status written through it.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += int64(n)
	return n, err
}

func (r *recorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Written lets the error handler see that output already started.
func (r *recorder) Written() bool { return r.status != 0 }

// finalStatus is the status the client receives: what was written, or the
// status the error handler will derive from err.
func (r *recorder) finalStatus(err error) int {
	if r.status != 0 {
		return r.status
	}
	if err != nil {
		return errorStatus(err)
	}
	return http.StatusOK
}

func errorStatus(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) && sc.StatusCode() > 0 {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}
