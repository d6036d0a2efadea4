package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

// The loser of a concurrent same-slot booking aborts with SQLSTATE
// 40001; the repository must recognize it even when gorm wraps it.
func TestSerializationFailureDetection(t *testing.T) {
	ssi := &pgconn.PgError{
		Code:    "40001",
		Message: "could not serialize access due to read/write dependencies among transactions",
	}
	assert.True(t, serializationFailure(ssi))
	assert.True(t, serializationFailure(fmt.Errorf("create appointment: %w", ssi)))

	assert.False(t, serializationFailure(&pgconn.PgError{Code: "23505"}))
	assert.False(t, serializationFailure(errors.New("connection refused")))
	assert.False(t, serializationFailure(nil))
}
