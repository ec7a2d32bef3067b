package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/defenseportal/psql"
	"github.com/google/uuid"
	"github.com/gopsql/standard"
	"github.com/stretchr/testify/require"
)

var (
	aliceID    = uuid.MustParse("0b7e1d1e-8f0a-4d0e-9c1e-6a1f1f6f0a01")
	groupID    = uuid.MustParse("0b7e1d1e-8f0a-4d0e-9c1e-6a1f1f6f0a02")
	scheduleID = uuid.MustParse("0b7e1d1e-8f0a-4d0e-9c1e-6a1f1f6f0a03")
	staffID    = uuid.MustParse("0b7e1d1e-8f0a-4d0e-9c1e-6a1f1f6f0a04")
	evalID     = uuid.MustParse("0b7e1d1e-8f0a-4d0e-9c1e-6a1f1f6f0a05")
	criterion  = uuid.MustParse("0b7e1d1e-8f0a-4d0e-9c1e-6a1f1f6f0a06")
)

func newMockRegistry(t *testing.T) (*Registry, sqlmock.Sqlmock) {
	t.Helper()
	return newMockRegistryWith(t, sqlmock.QueryMatcherEqual)
}

func newMockRegistryWith(t *testing.T, matcher sqlmock.QueryMatcher) (*Registry, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return New(psql.NewExecutor(standard.NewDB("postgres", sqlDB))), mock
}
