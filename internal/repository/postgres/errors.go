package postgres

import (
	"fmt"

	"github.com/utafrali/catalog-review/pkg/database"
	apperrors "github.com/utafrali/catalog-review/pkg/errors"
)

type scanner interface {
	Scan(dest ...any) error
}

// translate maps driver failures onto application errors. Unique violations
// are handled by the caller, which knows which field collided.
func translate(err error, op string) error {
	switch {
	case database.IsConnectionError(err):
		return apperrors.Unavailable(err)
	case database.IsForeignKeyViolation(err):
		return apperrors.Integrity(op + ": referenced row does not exist")
	case database.IsCheckViolation(err):
		return apperrors.Integrity(op + ": value rejected by constraint")
	case database.IsUniqueViolation(err):
		return apperrors.Integrity(op + ": duplicate value")
	}
	return fmt.Errorf("%s: %w", op, err)
}
