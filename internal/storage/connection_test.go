package storage

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/patthub/impact-measurement-tool/internal/impact"
)

func TestNewConnection_InvalidConfig(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	_, err := NewConnection(nil)
	assert.ErrorIs(t, err, ErrDatabaseURLEmpty)

	_, err = NewConnection(&Config{})
	assert.ErrorIs(t, err, ErrDatabaseURLEmpty)
}

func TestConnection_NilSafe(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	var conn *Connection

	assert.ErrorIs(t, conn.HealthCheck(t.Context()), ErrNoDatabaseConnection)
	assert.NoError(t, conn.Close())

	_, err := NewImpactStore(nil)
	assert.ErrorIs(t, err, ErrNoDatabaseConnection)
}

func TestIsDatabaseConnectionError(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"wrapped connection exception", errors.Join(errors.New("ctx"), &pq.Error{Code: "08000"}), true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"conn done", sql.ErrConnDone, true},
		{"bad conn", driver.ErrBadConn, true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDatabaseConnectionError(tt.err))
		})
	}

	assert.ErrorIs(t, classify("op", &pq.Error{Code: "08006"}), ErrDatabaseUnavailable)
	assert.NotErrorIs(t, classify("op", errors.New("boom")), ErrDatabaseUnavailable)
}

func TestWhereClause(t *testing.T) {
	if !testing.Short() {
		t.Skip("skipping unit test in non-short mode")
	}

	where, args := whereClause(impact.Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = whereClause(impact.Filter{InstitutionUUID: ptr("inst"), DisciplineCode: ptr("D1")})
	assert.Equal(t, " WHERE institution_uuid = $1 AND discipline_code = $2", where)
	assert.Equal(t, []any{"inst", "D1"}, args)

	where, args = whereClause(impact.Filter{DisciplineCode: ptr("D1")})
	assert.Equal(t, " WHERE discipline_code = $1", where)
	assert.Equal(t, []any{"D1"}, args)
}
