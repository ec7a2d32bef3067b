package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/defenseportal/psql"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type (
	Notification struct {
		ID        uuid.UUID  `column:"id" json:"id"`
		UserID    uuid.UUID  `column:"user_id" json:"userId"`
		Type      string     `column:"type" json:"type"`
		Title     string     `column:"title" json:"title"`
		Body      *string    `column:"body" json:"body"`
		Link      *string    `column:"link" json:"link"`
		ReadAt    *time.Time `column:"read_at" json:"readAt"`
		CreatedAt time.Time  `column:"created_at" json:"createdAt"`
	}

	NewNotification struct {
		UserID uuid.UUID `column:"user_id"`
		Type   string    `column:"type"`
		Title  string    `column:"title"`
		Body   *string   `column:"body"`
		Link   *string   `column:"link"`
	}

	NotificationPatch struct {
		ReadAt psql.Optional[time.Time] `column:"read_at"`
	}

	NotificationService struct {
		*psql.Mutable[Notification, NewNotification, NotificationPatch]
	}
)

func newNotificationService(ex *psql.Executor) *NotificationService {
	return &NotificationService{psql.NewMutable[Notification, NewNotification, NotificationPatch](ex, string(Notifications))}
}

// ListByUser returns a page of a user's notifications, newest first unless
// q orders otherwise.
func (s *NotificationService) ListByUser(ctx context.Context, userID uuid.UUID, q psql.Query) (*psql.Page[Notification], error) {
	return s.FindPage(ctx, ordered(scope(q, psql.Where{"user_id": userID}), "created_at", psql.Desc))
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.Count(ctx, psql.Where{"user_id": userID, "read_at": nil})
}

// MarkRead marks one of the user's notifications read. It returns nil if the
// notification does not belong to the user.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) (*Notification, error) {
	return s.UpdateOne(ctx, psql.Where{"id": id, "user_id": userID}, NotificationPatch{ReadAt: psql.Set(at)})
}

// MarkAllRead marks every unread notification of the user read and returns
// how many there were.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	return s.Executor().Exec(ctx, `UPDATE "notifications" SET "read_at" = $1 WHERE "user_id" = $2 AND "read_at" IS NULL`, at, userID)
}

var pushSubscriptionsSchema = []string{
	`CREATE TABLE IF NOT EXISTS "push_subscriptions" (
		"id" uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		"user_id" uuid NOT NULL REFERENCES "users" ("id") ON DELETE CASCADE,
		"endpoint" text NOT NULL UNIQUE,
		"p256dh" text NOT NULL,
		"auth" text NOT NULL,
		"user_agent" text,
		"created_at" timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS "push_subscriptions_user_id_idx" ON "push_subscriptions" ("user_id")`,
}

type (
	PushSubscription struct {
		ID        uuid.UUID `column:"id" json:"id"`
		UserID    uuid.UUID `column:"user_id" json:"userId"`
		Endpoint  string    `column:"endpoint" json:"endpoint"`
		P256dh    string    `column:"p256dh" json:"p256dh"`
		Auth      string    `column:"auth" json:"auth"`
		UserAgent *string   `column:"user_agent" json:"userAgent"`
		CreatedAt time.Time `column:"created_at" json:"createdAt"`
	}

	NewPushSubscription struct {
		UserID    uuid.UUID `column:"user_id"`
		Endpoint  string    `column:"endpoint"`
		P256dh    string    `column:"p256dh"`
		Auth      string    `column:"auth"`
		UserAgent *string   `column:"user_agent"`
	}

	// PushSubscriptionService stores browser push endpoints. Its table is not
	// part of the migrated schema; every operation creates it first if
	// needed.
	PushSubscriptionService struct {
		*psql.Mutable[PushSubscription, NewPushSubscription, psql.Values]
		schema *schemaGuard
	}

	// schemaGuard runs schema statements once per Registry tree. Concurrent
	// first callers on the pool share one execution; a failure lets a later
	// call retry. Runs inside a transaction do not mark the guard done, as
	// the transaction may still roll back.
	schemaGuard struct {
		group singleflight.Group
		done  atomic.Bool
	}
)

func newPushSubscriptionService(ex *psql.Executor, schema *schemaGuard) *PushSubscriptionService {
	return &PushSubscriptionService{
		Mutable: psql.NewMutable[PushSubscription, NewPushSubscription, psql.Values](ex, string(PushSubscriptions)),
		schema:  schema,
	}
}

// EnsureSchema creates the push subscription table if it does not exist.
// Inside a transaction the statements run in a savepoint on the
// transaction's connection, so a DDL failure rolls back only the savepoint.
func (s *PushSubscriptionService) EnsureSchema(ctx context.Context) error {
	return s.schema.ensure(ctx, s.Executor(), pushSubscriptionsSchema)
}

// Subscribe stores an endpoint for the user. An endpoint already stored is
// moved to the user with the new keys.
func (s *PushSubscriptionService) Subscribe(ctx context.Context, in NewPushSubscription) (*PushSubscription, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return s.CreateOnConflict(ctx, in, []string{"endpoint"})
}

func (s *PushSubscriptionService) Unsubscribe(ctx context.Context, endpoint string) (int64, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	return s.Delete(ctx, psql.Where{"endpoint": endpoint})
}

func (s *PushSubscriptionService) ListByUser(ctx context.Context, userID uuid.UUID) ([]PushSubscription, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return s.FindMany(ctx, psql.Query{Where: psql.Where{"user_id": userID}, OrderBy: "created_at"})
}

func (g *schemaGuard) ensure(ctx context.Context, ex *psql.Executor, statements []string) error {
	if g.done.Load() {
		return nil
	}
	if ex.InTransaction() {
		return ex.Transaction(ctx, func(ctx context.Context, tx *psql.Executor) error {
			return execAll(ctx, tx, statements)
		})
	}
	_, err, _ := g.group.Do("schema", func() (interface{}, error) {
		if g.done.Load() {
			return nil, nil
		}
		if err := execAll(ctx, ex, statements); err != nil {
			return nil, err
		}
		g.done.Store(true)
		return nil, nil
	})
	return err
}

func execAll(ctx context.Context, ex *psql.Executor, statements []string) error {
	for _, sql := range statements {
		if _, err := ex.Exec(ctx, sql); err != nil {
			return err
		}
	}
	return nil
}
