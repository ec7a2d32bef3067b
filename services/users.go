package services

import (
	"context"
	"strings"
	"time"

	"github.com/defenseportal/psql"
	"github.com/google/uuid"
)

const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleStudent = "student"

	UserActive   = "active"
	UserInvited  = "invited"
	UserDisabled = "disabled"
)

type (
	User struct {
		ID           uuid.UUID  `column:"id" json:"id"`
		Email        string     `column:"email" json:"email"`
		Name         string     `column:"name" json:"name"`
		Role         string     `column:"role" json:"role"`
		Status       string     `column:"status" json:"status"`
		PasswordHash string     `column:"password_hash" json:"-"`
		AvatarURL    *string    `column:"avatar_url" json:"avatarUrl"`
		LastLoginAt  *time.Time `column:"last_login_at" json:"lastLoginAt"`
		CreatedAt    time.Time  `column:"created_at" json:"createdAt"`
		UpdatedAt    time.Time  `column:"updated_at" json:"updatedAt"`
	}

	NewUser struct {
		Email        string  `column:"email"`
		Name         string  `column:"name"`
		Role         string  `column:"role"`
		Status       *string `column:"status"`
		PasswordHash string  `column:"password_hash"`
		AvatarURL    *string `column:"avatar_url"`
	}

	UserPatch struct {
		Name         psql.Optional[string]    `column:"name" json:"name"`
		Role         psql.Optional[string]    `column:"role" json:"role"`
		Status       psql.Optional[string]    `column:"status" json:"status"`
		PasswordHash psql.Optional[string]    `column:"password_hash" json:"-"`
		AvatarURL    psql.Optional[string]    `column:"avatar_url" json:"avatarUrl"`
		LastLoginAt  psql.Optional[time.Time] `column:"last_login_at" json:"-"`
	}

	UserService struct {
		*psql.Mutable[User, NewUser, UserPatch]
	}
)

func newUserService(ex *psql.Executor) *UserService {
	return &UserService{psql.NewMutable[User, NewUser, UserPatch](ex, string(Users))}
}

// NormalizeEmail returns the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts a user with a normalized email.
func (s *UserService) Create(ctx context.Context, in NewUser) (*User, error) {
	return s.Mutable.Create(ctx, normalizeNewUser(in))
}

// CreateMany inserts users with normalized emails.
func (s *UserService) CreateMany(ctx context.Context, in []NewUser) ([]User, error) {
	normalized := make([]NewUser, len(in))
	for i := range in {
		normalized[i] = normalizeNewUser(in[i])
	}
	return s.Mutable.CreateMany(ctx, normalized)
}

func (s *UserService) CreateOnConflict(ctx context.Context, in NewUser, conflict []string, keep ...string) (*User, error) {
	return s.Mutable.CreateOnConflict(ctx, normalizeNewUser(in), conflict, keep...)
}

// Upsert normalizes the email of create and of an email filter in where.
func (s *UserService) Upsert(ctx context.Context, where psql.Where, create NewUser, patch *UserPatch) (*User, error) {
	if email, ok := where["email"].(string); ok {
		normalized := make(psql.Where, len(where))
		for k, v := range where {
			normalized[k] = v
		}
		normalized["email"] = NormalizeEmail(email)
		where = normalized
	}
	return s.Mutable.Upsert(ctx, where, normalizeNewUser(create), patch)
}

func normalizeNewUser(in NewUser) NewUser {
	in.Email = NormalizeEmail(in.Email)
	return in
}

// FindByEmail looks a user up by email, ignoring case.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.FindOne(ctx, psql.Where{"email": NormalizeEmail(email)})
}

func (s *UserService) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.FindOne(ctx, psql.Where{"id": id})
}

// ListByRole lists users with one of the roles, by name unless q orders
// otherwise.
func (s *UserService) ListByRole(ctx context.Context, q psql.Query, roles ...string) ([]User, error) {
	return s.FindMany(ctx, ordered(scope(q, psql.Where{"role": roles}), "name", psql.Asc))
}

func (s *UserService) SetStatus(ctx context.Context, id uuid.UUID, status string) (*User, error) {
	return s.UpdateOne(ctx, psql.Where{"id": id}, UserPatch{Status: psql.Set(status)})
}

func (s *UserService) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) (*User, error) {
	return s.UpdateOne(ctx, psql.Where{"id": id}, UserPatch{LastLoginAt: psql.Set(at)})
}

type (
	Session struct {
		ID        uuid.UUID `column:"id" json:"id"`
		UserID    uuid.UUID `column:"user_id" json:"userId"`
		Token     string    `column:"token" json:"-"`
		UserAgent *string   `column:"user_agent" json:"userAgent"`
		IPAddress *string   `column:"ip_address" json:"ipAddress"`
		ExpiresAt time.Time `column:"expires_at" json:"expiresAt"`
		CreatedAt time.Time `column:"created_at" json:"createdAt"`
	}

	NewSession struct {
		UserID    uuid.UUID `column:"user_id"`
		Token     string    `column:"token"`
		UserAgent *string   `column:"user_agent"`
		IPAddress *string   `column:"ip_address"`
		ExpiresAt time.Time `column:"expires_at"`
	}

	SessionPatch struct {
		ExpiresAt psql.Optional[time.Time] `column:"expires_at"`
	}

	SessionService struct {
		*psql.Mutable[Session, NewSession, SessionPatch]
	}
)

func newSessionService(ex *psql.Executor) *SessionService {
	return &SessionService{psql.NewMutable[Session, NewSession, SessionPatch](ex, string(Sessions))}
}

func (s *SessionService) FindByToken(ctx context.Context, token string) (*Session, error) {
	return s.FindOne(ctx, psql.Where{"token": token})
}

func (s *SessionService) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.Delete(ctx, psql.Where{"user_id": userID})
}

// DeleteExpired removes sessions that expired before now.
func (s *SessionService) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.Executor().Exec(ctx, `DELETE FROM "sessions" WHERE "expires_at" < $1`, now)
}

type (
	PasswordReset struct {
		ID        uuid.UUID  `column:"id" json:"id"`
		UserID    uuid.UUID  `column:"user_id" json:"userId"`
		TokenHash string     `column:"token_hash" json:"-"`
		ExpiresAt time.Time  `column:"expires_at" json:"expiresAt"`
		UsedAt    *time.Time `column:"used_at" json:"usedAt"`
		CreatedAt time.Time  `column:"created_at" json:"createdAt"`
	}

	NewPasswordReset struct {
		UserID    uuid.UUID `column:"user_id"`
		TokenHash string    `column:"token_hash"`
		ExpiresAt time.Time `column:"expires_at"`
	}

	PasswordResetPatch struct {
		UsedAt psql.Optional[time.Time] `column:"used_at"`
	}

	PasswordResetService struct {
		*psql.Mutable[PasswordReset, NewPasswordReset, PasswordResetPatch]
	}
)

func newPasswordResetService(ex *psql.Executor) *PasswordResetService {
	return &PasswordResetService{psql.NewMutable[PasswordReset, NewPasswordReset, PasswordResetPatch](ex, string(PasswordResets))}
}

// FindActive returns the newest unused, unexpired reset with the token hash.
func (s *PasswordResetService) FindActive(ctx context.Context, tokenHash string, now time.Time) (*PasswordReset, error) {
	return psql.QueryFirst[PasswordReset](ctx, s.Executor(), `SELECT * FROM "password_resets"
		WHERE "token_hash" = $1 AND "used_at" IS NULL AND "expires_at" > $2
		ORDER BY "created_at" DESC LIMIT 1`, tokenHash, now)
}

// MarkUsed consumes a reset. It returns nil if the reset was already used.
func (s *PasswordResetService) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) (*PasswordReset, error) {
	return s.UpdateOne(ctx, psql.Where{"id": id, "used_at": nil}, PasswordResetPatch{UsedAt: psql.Set(at)})
}
