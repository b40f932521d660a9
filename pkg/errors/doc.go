// Package errors provides the error taxonomy of the Stocker data-access layer.
//
// This package defines:
//   - AppError type with error classification
//   - Error constructors for each failure class
//   - Error type checking helpers
//   - HTTP status code mapping for callers that translate upward
//
// # Error Types
//
//   - NotFound: a point lookup matched no row; repositories return absence
//     as a nil result, this error exists for callers that translate absence
//   - MultipleResults: a single-row query matched more than one row
//   - InvalidArgument: malformed query description (negative paging bounds,
//     unknown column or relation name)
//   - InvalidState: operation on a disposed unit of work
//   - ConcurrencyConflict: optimistic-concurrency token mismatch at commit
//   - ConstraintViolation: uniqueness/foreign-key violation at commit
//   - StorageUnavailable: connectivity or timeout failure from the engine
//
// # Usage
//
// Create errors using constructor functions:
//
//	return apperrors.ConcurrencyConflict("product")
//	return apperrors.InvalidArgument("take must not be negative")
//
// Check error types:
//
//	if apperrors.IsConcurrencyConflict(err) {
//	    // Ask the user to reload and retry
//	}
//
// # Error Wrapping
//
// Errors support wrapping with fmt.Errorf:
//
//	return fmt.Errorf("commit failed: %w", apperrors.StorageUnavailable("postgres"))
package errors
