package repositories

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"
)

// classifyDBError turns a driver error into a *ConstraintError when the store
// rejected the write for a constraint or shape reason. Other errors are
// returned unchanged.
//
// Postgres errors are classified by SQLSTATE. Other SQL dialects go through
// the dialector's gorm.ErrorTranslator.
func classifyDBError(db *gorm.DB, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if kind := pgConstraintKind(pgErr.Code); kind != nil {
			return &ConstraintError{Kind: kind, Message: pgErr.Message, Cause: err}
		}
		return err
	}

	if db == nil {
		return err
	}
	translator, ok := db.Dialector.(gorm.ErrorTranslator)
	if !ok {
		return err
	}
	switch translated := translator.Translate(err); {
	case errors.Is(translated, gorm.ErrDuplicatedKey):
		return &ConstraintError{Kind: ErrDuplicateKey, Message: err.Error(), Cause: err}
	case errors.Is(translated, gorm.ErrForeignKeyViolated):
		return &ConstraintError{Kind: ErrForeignKey, Message: err.Error(), Cause: err}
	case errors.Is(translated, gorm.ErrCheckConstraintViolated):
		return &ConstraintError{Kind: ErrInvalidValue, Message: err.Error(), Cause: err}
	}
	return err
}

// See https://www.postgresql.org/docs/current/errcodes-appendix.html
func pgConstraintKind(code string) error {
	switch code {
	case pgerrcode.UniqueViolation:
		return ErrDuplicateKey
	case pgerrcode.ForeignKeyViolation:
		return ErrForeignKey
	case pgerrcode.NotNullViolation,
		pgerrcode.CheckViolation,
		pgerrcode.StringDataRightTruncationDataException,
		pgerrcode.NumericValueOutOfRange,
		pgerrcode.InvalidTextRepresentation:
		return ErrInvalidValue
	}
	return nil
}

// classifyMongoError maps a duplicate key write error (code 11000).
func classifyMongoError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return &ConstraintError{Kind: ErrDuplicateKey, Message: err.Error(), Cause: err}
	}
	return err
}
