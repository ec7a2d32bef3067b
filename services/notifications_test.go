package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/defenseportal/psql"
	"github.com/gopsql/standard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationListByUser(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(`SELECT * FROM "notifications" WHERE "user_id" = $1 ORDER BY "created_at" DESC LIMIT 2 OFFSET 2`).
		WithArgs(aliceID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
			AddRow(evalID.String(), "Defense scheduled").
			AddRow(groupID.String(), "Scores released"))
	mock.ExpectQuery(`SELECT COUNT(*) FROM "notifications" WHERE "user_id" = $1`).
		WithArgs(aliceID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	page, err := r.Notifications().ListByUser(context.Background(), aliceID, psql.Query{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 2, page.Offset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkRead(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)
	at := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE "notifications" SET "read_at" = $1 WHERE "id" = $2 AND "user_id" = $3 RETURNING *`).
		WithArgs(at, evalID, aliceID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "read_at"}))
	mock.ExpectExec(`UPDATE "notifications" SET "read_at" = $1 WHERE "user_id" = $2 AND "read_at" IS NULL`).
		WithArgs(at, aliceID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	ctx := context.Background()
	n, err := r.Notifications().MarkRead(ctx, aliceID, evalID, at)
	require.NoError(t, err)
	assert.Nil(t, n, "notification of another user")

	count, err := r.Notifications().MarkAllRead(ctx, aliceID, at)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectPushSchema(mock sqlmock.Sqlmock) {
	for _, sql := range pushSubscriptionsSchema {
		mock.ExpectExec(sql).WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func TestEnsureSchemaRunsOnce(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)
	expectPushSchema(mock)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.PushSubscriptions().EnsureSchema(context.Background())
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	// a registry bound to a transaction shares the guard
	mock.ExpectBegin()
	mock.ExpectCommit()
	err := r.Transaction(context.Background(), func(ctx context.Context, tx *Registry) error {
		return tx.PushSubscriptions().EnsureSchema(ctx)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaRetriesAfterFailure(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)

	mock.ExpectExec(pushSubscriptionsSchema[0]).WillReturnError(assert.AnError)
	expectPushSchema(mock)

	err := r.PushSubscriptions().EnsureSchema(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	require.NoError(t, r.PushSubscriptions().EnsureSchema(context.Background()))
	require.NoError(t, r.PushSubscriptions().EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeMovesEndpoint(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)
	expectPushSchema(mock)

	mock.ExpectQuery(`INSERT INTO "push_subscriptions" ("user_id", "endpoint", "p256dh", "auth") VALUES ($1, $2, $3, $4) ` +
		`ON CONFLICT ("endpoint") DO UPDATE SET "user_id" = EXCLUDED."user_id", "p256dh" = EXCLUDED."p256dh", "auth" = EXCLUDED."auth" RETURNING *`).
		WithArgs(aliceID, "https://push.example.com/abc", "key", "secret").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "endpoint"}).
			AddRow(evalID.String(), aliceID.String(), "https://push.example.com/abc"))
	mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "endpoint" = $1`).
		WithArgs("https://push.example.com/abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	sub, err := r.PushSubscriptions().Subscribe(ctx, NewPushSubscription{
		UserID:   aliceID,
		Endpoint: "https://push.example.com/abc",
		P256dh:   "key",
		Auth:     "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, aliceID, sub.UserID)

	n, err := r.PushSubscriptions().Unsubscribe(ctx, "https://push.example.com/abc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectPushSchemaRegexp(mock sqlmock.Sqlmock) {
	for _, sql := range pushSubscriptionsSchema {
		mock.ExpectExec("^" + regexp.QuoteMeta(sql) + "$").WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func TestSubscribeInTransactionUsesSavepoint(t *testing.T) {
	t.Parallel()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer sqlDB.Close()
	// a second connection would wait forever
	sqlDB.SetMaxOpenConns(1)
	r := New(psql.NewExecutor(standard.NewDB("postgres", sqlDB)))

	mock.ExpectBegin()
	mock.ExpectExec(`^SAVEPOINT "sp_[0-9a-z]+"$`).WillReturnResult(sqlmock.NewResult(0, 0))
	expectPushSchemaRegexp(mock)
	mock.ExpectExec(`^RELEASE SAVEPOINT "sp_[0-9a-z]+"$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`^INSERT INTO "push_subscriptions" `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "endpoint"}).
			AddRow(evalID.String(), aliceID.String(), "e"))
	mock.ExpectCommit()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = r.Transaction(ctx, func(ctx context.Context, tx *Registry) error {
		_, err := tx.PushSubscriptions().Subscribe(ctx, NewPushSubscription{UserID: aliceID, Endpoint: "e", P256dh: "k", Auth: "a"})
		return err
	})
	require.NoError(t, err)

	// the transaction could have rolled back, so the pool checks again
	expectPushSchemaRegexp(mock)
	require.NoError(t, r.PushSubscriptions().EnsureSchema(ctx))
	require.NoError(t, r.PushSubscriptions().EnsureSchema(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaInTransactionRollsBackSavepoint(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistryWith(t, sqlmock.QueryMatcherRegexp)

	mock.ExpectBegin()
	mock.ExpectExec(`^SAVEPOINT "sp_[0-9a-z]+"$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("^" + regexp.QuoteMeta(pushSubscriptionsSchema[0]) + "$").WillReturnError(assert.AnError)
	mock.ExpectExec(`^ROLLBACK TO SAVEPOINT "sp_[0-9a-z]+"$`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := r.Transaction(context.Background(), func(ctx context.Context, tx *Registry) error {
		err := tx.PushSubscriptions().EnsureSchema(ctx)
		assert.ErrorIs(t, err, assert.AnError)
		// the outer transaction is still usable
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeFailsWithoutSchema(t *testing.T) {
	t.Parallel()
	r, mock := newMockRegistry(t)
	mock.ExpectExec(pushSubscriptionsSchema[0]).WillReturnError(assert.AnError)

	sub, err := r.PushSubscriptions().Subscribe(context.Background(), NewPushSubscription{UserID: aliceID, Endpoint: "e"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, sub)
	assert.NoError(t, mock.ExpectationsWereMet())
}
