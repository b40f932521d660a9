package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/stocker/stocker/data/pkg/errors"
)

// Postgres error code classes relevant to the taxonomy.
const (
	classIntegrityViolation = "23"
	classConnection         = "08"
	classResources          = "53"
	classOperator           = "57"
	codeSerializationFail   = "40001"
	codeDeadlockDetected    = "40P01"
)

// mapStorageError translates engine failures into the layer's taxonomy.
// Context cancellation and already-classified errors pass through unchanged.
func mapStorageError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if apperrors.IsAppError(err) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, classIntegrityViolation):
			ve := apperrors.ConstraintViolation(pgErr.Message).WithError(err)
			if pgErr.ConstraintName != "" {
				ve = ve.WithDetail("constraint", pgErr.ConstraintName)
			}
			return ve
		case pgErr.Code == codeSerializationFail || pgErr.Code == codeDeadlockDetected:
			return apperrors.ConcurrencyConflict(resource).WithError(err)
		case strings.HasPrefix(pgErr.Code, classConnection),
			strings.HasPrefix(pgErr.Code, classResources),
			strings.HasPrefix(pgErr.Code, classOperator):
			return apperrors.StorageUnavailable("postgres").WithError(err)
		}
		return fmt.Errorf("%s query failed: %w", resource, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || pgconn.Timeout(err) {
		return apperrors.StorageUnavailable("postgres").WithError(err)
	}

	// Anything else coming out of the driver is a lost or broken session.
	return apperrors.StorageUnavailable("postgres").WithError(err)
}

// errorReason labels failed commits for metrics.
func errorReason(err error) string {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return strings.ToLower(appErr.Code)
	}
	return "storage"
}
