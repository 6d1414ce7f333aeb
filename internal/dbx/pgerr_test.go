package dbx

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

	name, ok := UniqueViolation(fmt.Errorf("db error: %w", pgErr))
	assert.True(t, ok)
	assert.Equal(t, "users_email_key", name)

	_, ok = UniqueViolation(&pgconn.PgError{Code: "23514"})
	assert.False(t, ok)

	_, ok = UniqueViolation(errors.New("plain"))
	assert.False(t, ok)
}

func TestCheckViolation(t *testing.T) {
	name, ok := CheckViolation(&pgconn.PgError{Code: "23514", ConstraintName: "goals_current_amount_check"})
	assert.True(t, ok)
	assert.Equal(t, "goals_current_amount_check", name)

	_, ok = CheckViolation(&pgconn.PgError{Code: "23505"})
	assert.False(t, ok)
}

func TestNumericOverflow(t *testing.T) {
	assert.True(t, NumericOverflow(fmt.Errorf("db error: %w", &pgconn.PgError{Code: "22003"})))
	assert.False(t, NumericOverflow(&pgconn.PgError{Code: "23514"}))
	assert.False(t, NumericOverflow(errors.New("plain")))
}
