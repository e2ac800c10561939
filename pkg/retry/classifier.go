package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// Classifier maps an error onto a Fault.
type Classifier interface {
	Classify(err error) Fault
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(err error) Fault

// Classify calls f(err).
func (f ClassifierFunc) Classify(err error) Fault {
	return f(err)
}

// Chain consults classifiers in order and returns the first verdict other than FaultUnknown.
func Chain(classifiers ...Classifier) Classifier {
	return ClassifierFunc(func(err error) Fault {
		if err == nil {
			return FaultNone
		}
		for _, c := range classifiers {
			if c == nil {
				continue
			}
			if f := c.Classify(err); f != FaultUnknown {
				return f
			}
		}
		return FaultUnknown
	})
}

// DefaultClassifier recognises context and network errors. Everything else is FaultUnknown.
var DefaultClassifier Classifier = ClassifierFunc(classifyDefault)

// Message fragments that identify connectivity failures in drivers that do
// not expose typed errors.
var connectivityPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"host is unreachable",
	"i/o timeout",
	"timed out",
	"timeout",
	"connection",
}

func classifyDefault(err error) Fault {
	if err == nil {
		return FaultNone
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return FaultCanceled
	}
	if IsConnectivityError(err) {
		return FaultConnectivity
	}
	return FaultUnknown
}

// IsConnectivityError reports whether err looks like a transport failure:
// refused or reset connections, unreachable hosts, DNS failures or timeouts.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.ENETUNREACH,
		syscall.EHOSTUNREACH,
		syscall.ETIMEDOUT,
		syscall.EPIPE,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range connectivityPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}
