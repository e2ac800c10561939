package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/storefront/pkg/retry"
)

// Classifier maps Postgres errors onto retry faults. Anything it does not
// recognise falls through to retry.DefaultClassifier.
var Classifier = retry.Chain(retry.ClassifierFunc(Classify), retry.DefaultClassifier)

// Classify inspects SQLSTATE codes and pgx sentinel errors.
//
//	08xxx, 53xxx, 57xxx, 40001, 40P01, 55P03  connectivity (transient)
//	23xxx                                     constraint
//	42P01, 42703, 42883                       schema
//	42601                                     syntax
//	22xxx                                     data
//	no rows                                   not found
func Classify(err error) retry.Fault {
	if err == nil {
		return retry.FaultNone
	}
	if errors.Is(err, ErrConnectTimeout) {
		return retry.FaultConnectivity
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.FaultCanceled
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return retry.FaultNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyCode(pgErr.Code)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return retry.FaultConnectivity
	}
	return retry.FaultUnknown
}

func classifyCode(code string) retry.Fault {
	switch code {
	case "40001", "40P01", "55P03":
		return retry.FaultConnectivity
	case "42P01", "42703", "42883":
		return retry.FaultSchema
	case "42601":
		return retry.FaultSyntax
	}

	switch {
	case strings.HasPrefix(code, "08"), strings.HasPrefix(code, "53"), strings.HasPrefix(code, "57"):
		return retry.FaultConnectivity
	case strings.HasPrefix(code, "23"):
		return retry.FaultConstraint
	case strings.HasPrefix(code, "22"):
		return retry.FaultData
	case strings.HasPrefix(code, "42"):
		return retry.FaultSchema
	}
	return retry.FaultUnknown
}
