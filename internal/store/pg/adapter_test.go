package pg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dropDatabas3/sesamo/internal/domain/repository"
)

func TestClassifyError_UniqueViolationBecomesConflict(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           pgUniqueViolation,
		ConstraintName: "auth_client_provider_external_key",
	}

	got := classifyError(pgErr)

	assert.True(t, repository.IsConflict(got))
	assert.Contains(t, got.Error(), "auth_client_provider_external_key")
}

func TestClassifyError_WrappedUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgUniqueViolation}
	wrapped := fmt.Errorf("exec insert: %w", pgErr)

	assert.True(t, repository.IsConflict(classifyError(wrapped)))
}

func TestClassifyError_OtherCodesPassThrough(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503"} // foreign_key_violation

	got := classifyError(pgErr)

	assert.False(t, repository.IsConflict(got))
	assert.Equal(t, pgErr, got)
}

func TestClassifyError_PlainErrorsPassThrough(t *testing.T) {
	plain := errors.New("connection reset")

	assert.Equal(t, plain, classifyError(plain))
	assert.NoError(t, classifyError(nil))
}
