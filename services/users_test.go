package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/defenseportal/psql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	cases := [][]string{
		{"alice@example.com", "alice@example.com"},
		{"  Alice@Example.COM ", "alice@example.com"},
		{"", ""},
	}
	for i, c := range cases {
		if got := NormalizeEmail(c[0]); got != c[1] {
			t.Errorf("case %d failed, got %q, want %q", i, got, c[1])
		}
	}
}

func TestUserFindByEmailIgnoresCase(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)

	mock.ExpectQuery(`SELECT * FROM "users" WHERE "email" = $1 LIMIT 1`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role"}).
			AddRow(aliceID.String(), "alice@example.com", RoleStudent))

	u, err := r.Users().FindByEmail(context.Background(), " Alice@Example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, aliceID, u.ID)
	assert.Equal(t, RoleStudent, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateNormalizesEmail(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)

	mock.ExpectQuery(`INSERT INTO "users" ("email", "name", "role", "password_hash") VALUES ($1, $2, $3, $4) RETURNING *`).
		WithArgs("bob@example.com", "Bob", RoleStaff, "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "status"}).
			AddRow(aliceID.String(), "bob@example.com", UserInvited))

	u, err := r.Users().Create(context.Background(), NewUser{
		Email:        "Bob@Example.com",
		Name:         "Bob",
		Role:         RoleStaff,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, UserInvited, u.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateManyNormalizesEmail(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)

	for _, email := range []string{"bob@example.com", "carol@example.com"} {
		mock.ExpectQuery(`INSERT INTO "users" ("email", "name", "role", "password_hash") VALUES ($1, $2, $3, $4) RETURNING *`).
			WithArgs(email, "x", RoleStudent, "hash").
			WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow(email))
	}

	users, err := r.Users().CreateMany(context.Background(), []NewUser{
		{Email: "Bob@Example.com", Name: "x", Role: RoleStudent, PasswordHash: "hash"},
		{Email: " CAROL@example.com ", Name: "x", Role: RoleStudent, PasswordHash: "hash"},
	})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "carol@example.com", users[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpsertNormalizesEmail(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)

	mock.ExpectQuery(`SELECT * FROM "users" WHERE "email" = $1 LIMIT 1`).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))
	mock.ExpectQuery(`INSERT INTO "users" ("email", "name", "role", "password_hash") VALUES ($1, $2, $3, $4) RETURNING *`).
		WithArgs("bob@example.com", "Bob", RoleStaff, "hash").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("bob@example.com"))

	where := psql.Where{"email": "Bob@Example.com"}
	u, err := r.Users().Upsert(context.Background(), where,
		NewUser{Email: "Bob@Example.com", Name: "Bob", Role: RoleStaff, PasswordHash: "hash"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.Equal(t, "Bob@Example.com", where["email"], "caller's where is left alone")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListByRole(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)

	mock.ExpectQuery(`SELECT * FROM "users" WHERE "role" = ANY($1) AND "status" = $2 ORDER BY "name" ASC LIMIT 10`).
		WithArgs(sqlmock.AnyArg(), UserActive).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(aliceID.String(), "Alice"))

	users, err := r.Users().ListByRole(context.Background(),
		psql.Query{Where: psql.Where{"status": UserActive}, Limit: 10},
		RoleAdmin, RoleStaff)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSetStatusAndTouchLastLogin(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE "users" SET "status" = $1 WHERE "id" = $2 RETURNING *`).
		WithArgs(UserDisabled, aliceID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(aliceID.String(), UserDisabled))
	mock.ExpectQuery(`UPDATE "users" SET "last_login_at" = $1 WHERE "id" = $2 RETURNING *`).
		WithArgs(at, aliceID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "last_login_at"}).AddRow(aliceID.String(), at))

	u, err := r.Users().SetStatus(context.Background(), aliceID, UserDisabled)
	require.NoError(t, err)
	assert.Equal(t, UserDisabled, u.Status)

	u, err = r.Users().TouchLastLogin(context.Background(), aliceID, at)
	require.NoError(t, err)
	require.NotNil(t, u.LastLoginAt)
	assert.True(t, at.Equal(*u.LastLoginAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessions(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT * FROM "sessions" WHERE "token" = $1 LIMIT 1`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token"}))
	mock.ExpectExec(`DELETE FROM "sessions" WHERE "user_id" = $1`).
		WithArgs(aliceID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "sessions" WHERE "expires_at" < $1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 5))

	s, err := r.Sessions().FindByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Nil(t, s)

	n, err := r.Sessions().DeleteByUser(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = r.Sessions().DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResets(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT * FROM "password_resets" WHERE "token_hash" = $1 AND "used_at" IS NULL AND "expires_at" > $2 ORDER BY "created_at" DESC LIMIT 1`).
		WithArgs("digest", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash"}).
			AddRow(evalID.String(), aliceID.String(), "digest"))
	mock.ExpectQuery(`UPDATE "password_resets" SET "used_at" = $1 WHERE "id" = $2 AND "used_at" IS NULL RETURNING *`).
		WithArgs(now, evalID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "used_at"}).AddRow(evalID.String(), now))

	reset, err := r.PasswordResets().FindActive(context.Background(), "digest", now)
	require.NoError(t, err)
	require.NotNil(t, reset)
	assert.Equal(t, aliceID, reset.UserID)

	used, err := r.PasswordResets().MarkUsed(context.Background(), reset.ID, now)
	require.NoError(t, err)
	require.NotNil(t, used)
	assert.NotNil(t, used.UsedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfiles(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)

	mock.ExpectQuery(`SELECT * FROM "students" WHERE "student_no" = $1 LIMIT 1`).
		WithArgs("2021-00123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "student_no"}).
			AddRow(groupID.String(), aliceID.String(), "2021-00123"))
	mock.ExpectQuery(`SELECT * FROM "staff_profiles" WHERE "user_id" = $1 LIMIT 1`).
		WithArgs(staffID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))
	mock.ExpectQuery(`SELECT * FROM "panelist_profiles" WHERE "staff_id" = $1 LIMIT 1`).
		WithArgs(staffID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "staff_id", "expertise"}).
			AddRow(evalID.String(), staffID.String(), "distributed systems"))

	student, err := r.Students().FindByStudentNo(context.Background(), "2021-00123")
	require.NoError(t, err)
	assert.Equal(t, aliceID, student.UserID)

	staff, err := r.StaffProfiles().FindByUser(context.Background(), staffID)
	require.NoError(t, err)
	assert.Nil(t, staff)

	panelist, err := r.PanelistProfiles().FindByStaff(context.Background(), staffID)
	require.NoError(t, err)
	require.NotNil(t, panelist.Expertise)
	assert.Equal(t, "distributed systems", *panelist.Expertise)
	assert.NoError(t, mock.ExpectationsWereMet())
}
