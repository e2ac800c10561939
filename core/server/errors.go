package server

import "errors"

var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrListen               = errors.New("failed to listen")
	ErrHTTPServer           = errors.New("http server error")
	ErrShutdown             = errors.New("http shutdown error")
)
