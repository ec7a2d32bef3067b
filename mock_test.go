package psql

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gopsql/standard"
	"github.com/stretchr/testify/require"
)

type (
	testUser struct {
		ID     int    `column:"id"`
		Email  string `column:"email"`
		Status string `column:"status"`
	}

	testNewUser struct {
		Email  string  `column:"email"`
		Status *string `column:"status"`
	}

	testUserPatch struct {
		Email  Optional[string] `column:"email"`
		Status Optional[string] `column:"status"`
	}

	testMember struct {
		GroupID int `column:"group_id"`
		UserID  int `column:"user_id"`
	}
)

var userColumns = []string{"id", "email", "status"}

// newMock returns an Executor on a sqlmock pool matching statements exactly.
func newMock(t *testing.T) (*Executor, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewExecutor(standard.NewDB("postgres", sqlDB)), mock, sqlDB
}

// newRegexpMock is like newMock but matches statements as regular
// expressions, for statements carrying generated savepoint names.
func newRegexpMock(t *testing.T) (*Executor, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewExecutor(standard.NewDB("postgres", sqlDB)), mock, sqlDB
}

func userRows(users ...testUser) *sqlmock.Rows {
	rows := sqlmock.NewRows(userColumns)
	for _, u := range users {
		rows.AddRow(u.ID, u.Email, u.Status)
	}
	return rows
}
