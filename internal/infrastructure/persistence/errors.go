package persistence

import (
	"errors"

	"github.com/clinicledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translate maps driver errors onto the shared domain sentinels. Requires
// gorm.Config.TranslateError for unique and foreign key violations.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.InvalidState("Resource is referenced by other records")
	}
	return err
}

// checkLocked turns a zero-row versioned update into a concurrency conflict.
func checkLocked(result *gorm.DB) error {
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
