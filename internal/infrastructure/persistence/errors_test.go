package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), shared.ErrNotFound)
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), shared.ErrAlreadyExists)
	assert.ErrorIs(t, translate(gorm.ErrForeignKeyViolated), shared.ErrInvalidState)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}

func TestGormPatientRepository_DeleteReferenced(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	mock.ExpectExec(`DELETE FROM "patients"`).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"})

	err := NewGormPatientRepository(db).Delete(context.Background(), uuid.New(), uuid.New())

	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}
