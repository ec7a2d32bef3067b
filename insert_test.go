package psql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testScore struct {
	EvaluationID int `column:"evaluation_id"`
	CriterionID  int `column:"criterion_id"`
	Score        int `column:"score"`
}

func TestCreate(t *testing.T) {
	t.Parallel()
	ex, mock, _ := newMock(t)
	users := NewMutable[testUser, testNewUser, testUserPatch](ex, "users")

	mock.ExpectQuery(`INSERT INTO "users" ("email") VALUES ($1) RETURNING *`).
		WithArgs("alice@example.com").
		WillReturnRows(userRows(testUser{ID: 1, Email: "alice@example.com", Status: "invited"}))

	status := "active"
	mock.ExpectQuery(`INSERT INTO "users" ("email", "status") VALUES ($1, $2) RETURNING *`).
		WithArgs("bob@example.com", "active").
		WillReturnRows(userRows(testUser{ID: 2, Email: "bob@example.com", Status: "active"}))

	u, err := users.Create(context.Background(), testNewUser{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "invited", u.Status)

	u, err = users.Create(context.Background(), testNewUser{Email: "bob@example.com", Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 2, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDefaultValues(t *testing.T) {
	t.Parallel()
	ex, mock, _ := newMock(t)
	users := NewMutable[testUser, Values, Values](ex, "users")

	mock.ExpectQuery(`INSERT INTO "users" DEFAULT VALUES RETURNING *`).
		WillReturnRows(userRows(testUser{ID: 1}))

	u, err := users.Create(context.Background(), Values{"status": Optional[string]{}})
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMany(t *testing.T) {
	t.Parallel()
	ex, mock, _ := newMock(t)
	users := NewMutable[testUser, testNewUser, testUserPatch](ex, "users")

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		mock.ExpectQuery(`INSERT INTO "users" ("email") VALUES ($1) RETURNING *`).
			WithArgs(email).
			WillReturnRows(userRows(testUser{ID: i + 1, Email: email}))
	}

	rows, err := users.CreateMany(context.Background(), []testNewUser{
		{Email: "a@example.com"},
		{Email: "b@example.com"},
		{Email: "c@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, i+1, row.ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateManyStopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	ex, mock, _ := newMock(t)
	users := NewMutable[testUser, testNewUser, testUserPatch](ex, "users")
	duplicate := errors.New(`duplicate key value violates unique constraint "users_email_key"`)

	mock.ExpectQuery(`INSERT INTO "users" ("email") VALUES ($1) RETURNING *`).
		WithArgs("a@example.com").
		WillReturnRows(userRows(testUser{ID: 1, Email: "a@example.com"}))
	mock.ExpectQuery(`INSERT INTO "users" ("email") VALUES ($1) RETURNING *`).
		WithArgs("a@example.com").
		WillReturnError(duplicate)

	rows, err := users.CreateMany(context.Background(), []testNewUser{
		{Email: "a@example.com"},
		{Email: "a@example.com"},
		{Email: "c@example.com"},
	})
	assert.ErrorIs(t, err, duplicate)
	assert.Nil(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateManyEmpty(t *testing.T) {
	t.Parallel()
	ex, mock, _ := newMock(t)
	users := NewMutable[testUser, testNewUser, testUserPatch](ex, "users")

	rows, err := users.CreateMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOnConflict(t *testing.T) {
	t.Parallel()
	ex, mock, _ := newMock(t)
	scores := NewMutable[testScore, Values, Values](ex, "evaluation_scores")

	mock.ExpectQuery(`INSERT INTO "evaluation_scores" ("criterion_id", "evaluation_id", "score") VALUES ($1, $2, $3) ` +
		`ON CONFLICT ("evaluation_id", "criterion_id") DO UPDATE SET "score" = EXCLUDED."score" RETURNING *`).
		WithArgs(2, 1, 90).
		WillReturnRows(sqlmock.NewRows([]string{"evaluation_id", "criterion_id", "score"}).AddRow(1, 2, 90))

	row, err := scores.CreateOnConflict(context.Background(),
		Values{"evaluation_id": 1, "criterion_id": 2, "score": 90},
		[]string{"evaluation_id", "criterion_id"})
	require.NoError(t, err)
	assert.Equal(t, testScore{EvaluationID: 1, CriterionID: 2, Score: 90}, *row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOnConflictDoNothing(t *testing.T) {
	t.Parallel()
	ex, mock, _ := newMock(t)
	scores := NewMutable[testScore, Values, Values](ex, "evaluation_scores")

	mock.ExpectQuery(`INSERT INTO "evaluation_scores" ("criterion_id", "evaluation_id", "score") VALUES ($1, $2, $3) ` +
		`ON CONFLICT ("evaluation_id", "criterion_id") DO NOTHING RETURNING *`).
		WithArgs(2, 1, 90).
		WillReturnRows(sqlmock.NewRows([]string{"evaluation_id", "criterion_id", "score"}))

	row, err := scores.CreateOnConflict(context.Background(),
		Values{"evaluation_id": 1, "criterion_id": 2, "score": 90},
		[]string{"evaluation_id", "criterion_id"}, "score")
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOnConflictErrors(t *testing.T) {
	t.Parallel()
	ex, mock, _ := newMock(t)
	scores := NewMutable[testScore, Values, Values](ex, "evaluation_scores")

	_, err := scores.CreateOnConflict(context.Background(), Values{"score": 1}, nil)
	assert.ErrorIs(t, err, ErrEmptyConflict)

	var unsafe *UnsafeIdentifierError
	_, err = scores.CreateOnConflict(context.Background(), Values{"score": 1}, []string{"id) DO NOTHING; --"})
	assert.ErrorAs(t, err, &unsafe)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinTableCreate(t *testing.T) {
	t.Parallel()
	ex, mock, _ := newMock(t)
	members := NewJoinTable[testMember, testMember](ex, "group_members")

	mock.ExpectQuery(`INSERT INTO "group_members" ("group_id", "user_id") VALUES ($1, $2) RETURNING *`).
		WithArgs(1, 9).
		WillReturnRows(sqlmock.NewRows([]string{"group_id", "user_id"}).AddRow(1, 9))

	m, err := members.Create(context.Background(), testMember{GroupID: 1, UserID: 9})
	require.NoError(t, err)
	assert.Equal(t, testMember{GroupID: 1, UserID: 9}, *m)
	assert.NoError(t, mock.ExpectationsWereMet())
}
