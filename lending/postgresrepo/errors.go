package postgresrepo

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// ErrNilDatabaseConnection is returned when a Repository is constructed without a database handle.
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")

const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
	sqlStateUniqueViolation      = "23505"

	constraintStudentsPK    = "students_pkey"
	constraintBarcodeUnique = "book_copies_barcode_key"

	errorTypeBuildQuery  = "build_query_failed"
	errorTypeQuery       = "query_failed"
	errorTypeExec        = "exec_failed"
	errorTypeScan        = "scan_failed"
	errorTypeBegin       = "begin_failed"
	errorTypeCommit      = "commit_failed"
	errorTypeConcurrency = "concurrency_conflict"
)

// sqlState extracts SQLSTATE and constraint name from both pgx and lib/pq errors.
func sqlState(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint
	}

	return "", ""
}

// mapDBError translates a driver error into the lending error taxonomy.
// The driver error stays in the chain for diagnostics.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}

	code, constraint := sqlState(err)

	switch {
	case code == sqlStateSerializationFailure || code == sqlStateDeadlockDetected:
		return errors.Join(lending.ErrConcurrencyConflict, err)
	case code == sqlStateUniqueViolation && constraint == constraintBarcodeUnique:
		return errors.Join(lending.ErrDuplicateBarcode, err)
	case code == sqlStateUniqueViolation && constraint == constraintStudentsPK:
		return errors.Join(lending.ErrStudentAlreadyExists, err)
	default:
		return errors.Join(lending.ErrStorage, err)
	}
}

func errorTypeOf(err error, fallback string) string {
	if errors.Is(err, lending.ErrConcurrencyConflict) {
		return errorTypeConcurrency
	}

	return fallback
}
