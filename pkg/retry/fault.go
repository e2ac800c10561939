package retry

// Fault is the category an operation error belongs to.
// The set is closed; classifiers must return one of the constants below.
type Fault uint8

const (
	// FaultNone means there was no error.
	FaultNone Fault = iota
	// FaultConnectivity covers refused, reset and unreachable connections,
	// DNS failures and connect or acquire timeouts.
	FaultConnectivity
	// FaultConstraint covers integrity violations (unique, foreign key, check, not null).
	FaultConstraint
	// FaultSchema covers references to undefined tables, columns or functions.
	FaultSchema
	// FaultSyntax covers malformed statements.
	FaultSyntax
	// FaultData covers values the store rejected (bad casts, out of range).
	FaultData
	// FaultNotFound means the query matched no rows.
	FaultNotFound
	// FaultCanceled means the caller's context was canceled or timed out.
	FaultCanceled
	// FaultUnknown is any error no classifier recognised.
	FaultUnknown
)

var faultNames = [...]string{
	FaultNone:         "none",
	FaultConnectivity: "connectivity",
	FaultConstraint:   "constraint",
	FaultSchema:       "schema",
	FaultSyntax:       "syntax",
	FaultData:         "data",
	FaultNotFound:     "not_found",
	FaultCanceled:     "canceled",
	FaultUnknown:      "unknown",
}

// String returns the snake_case name of the fault.
func (f Fault) String() string {
	if int(f) < len(faultNames) {
		return faultNames[f]
	}
	return "invalid"
}

// Retryable reports whether an operation failing with this fault may be attempted again.
// Unknown faults are retried until the attempt budget runs out.
func (f Fault) Retryable() bool {
	switch f {
	case FaultConnectivity, FaultUnknown:
		return true
	case FaultNone, FaultConstraint, FaultSchema, FaultSyntax, FaultData, FaultNotFound, FaultCanceled:
		return false
	}
	return false
}
