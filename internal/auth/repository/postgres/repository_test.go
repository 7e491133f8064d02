package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/codax69/sever-main-sub001/internal/auth/domain"
	repo "github.com/codax69/sever-main-sub001/internal/auth/repository/postgres"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{
	"id", "username", "email", "phone", "password_hash", "role",
	"is_active", "is_approved", "is_verified", "is_logged_in", "login_count", "last_login",
	"access_token_hash", "refresh_token_hash",
	"reset_password_token_hash", "reset_password_expires",
	"verification_token_hash", "verification_token_expires",
	"google_id", "picture", "created_at", "updated_at",
}

func userRow(id, email, role string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(userColumns).AddRow(
		id, "veggie", email, "9876543210", "hash", role,
		true, true, true, true, 3, &now,
		"access-fp", "refresh-fp",
		"", nil,
		"", nil,
		"", "", now, now,
	)
}

// TestGetByEmail covers the GetByEmail repository method.
func TestGetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	userEmail := "test@example.com"
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email").
			WithArgs(userEmail).
			WillReturnRows(userRow("user-123", userEmail, "user"))

		user, err := r.GetByEmail(ctx, userEmail)
		require.NoError(t, err)
		assert.Equal(t, "user-123", user.ID)
		assert.Equal(t, userEmail, user.Email)
		assert.Equal(t, 3, user.LoginCount)
		assert.NotNil(t, user.LastLogin)
		assert.Nil(t, user.ResetPasswordExpires)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email").
			WithArgs(userEmail).
			WillReturnError(pgx.ErrNoRows)

		user, err := r.GetByEmail(ctx, userEmail)
		require.NoError(t, err) // Should return nil user, nil error
		assert.Nil(t, user)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, username, email").
			WithArgs(userEmail).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByEmail(ctx, userEmail)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupsByRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	t.Run("email and role", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE lower\\(email\\) = lower\\(\\$1\\) AND role").
			WithArgs("boss@vegbazar.store", "admin").
			WillReturnRows(userRow("admin-1", "boss@vegbazar.store", "admin"))

		user, err := r.GetByEmailAndRole(ctx, "boss@vegbazar.store", "admin")
		require.NoError(t, err)
		assert.Equal(t, "admin", user.Role)
	})

	t.Run("phone and role", func(t *testing.T) {
		mock.ExpectQuery("FROM users WHERE phone").
			WithArgs("9876543210", "user").
			WillReturnError(pgx.ErrNoRows)

		user, err := r.GetByPhoneAndRole(ctx, "9876543210", "user")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByResetToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()

	mock.ExpectQuery("reset_password_token_hash = \\$1 AND reset_password_expires > \\$2").
		WithArgs("reset-hash", now).
		WillReturnError(pgx.ErrNoRows)

	user, err := r.GetByResetToken(context.Background(), "reset-hash", now)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByVerificationToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	now := time.Now()

	mock.ExpectQuery("verification_token_hash = \\$1 AND role = \\$2").
		WithArgs("verify-hash", "admin", now).
		WillReturnRows(userRow("admin-1", "boss@vegbazar.store", "admin"))

	user, err := r.GetByVerificationToken(context.Background(), "verify-hash", "admin", now)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCreate covers the Create repository method.
func TestCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()

	r := repo.NewPostgresRepository(mock)
	userToCreate := &domain.User{
		ID:           "user-123",
		Username:     "veggie",
		Email:        "new@example.com",
		PasswordHash: "new-hash",
		Role:         "user",
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	args := make([]any, 18)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	args[0], args[1], args[2] = userToCreate.ID, userToCreate.Username, userToCreate.Email

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(args...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := r.Create(ctx, userToCreate)
		assert.NoError(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(args...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		err := r.Create(ctx, userToCreate)
		assert.ErrorIs(t, err, autherror.ErrUserAlreadyExists)
	})

	t.Run("duplicate username", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(args...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

		err := r.Create(ctx, userToCreate)
		assert.ErrorIs(t, err, autherror.ErrUsernameTaken)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(args...).
			WillReturnError(fmt.Errorf("db error"))

		err := r.Create(ctx, userToCreate)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLogin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	fp := domain.SessionFingerprint{AccessTokenHash: "a", RefreshTokenHash: "r"}
	at := time.Now()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("login_count = login_count \\+ 1").
			WithArgs("user-123", "a", "r", at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.RecordLogin(context.Background(), "user-123", fp, at))
	})

	t.Run("missing user", func(t *testing.T) {
		mock.ExpectExec("login_count = login_count \\+ 1").
			WithArgs("ghost", "a", "r", at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := r.RecordLogin(context.Background(), "ghost", fp, at)
		assert.ErrorIs(t, err, autherror.ErrUserNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionUpdates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	mock.ExpectExec("SET access_token_hash = \\$2, refresh_token_hash = \\$3, is_logged_in = TRUE, updated_at").
		WithArgs("user-123", "a2", "r2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("is_logged_in = FALSE").
		WithArgs("user-123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.SaveSession(ctx, "user-123", domain.SessionFingerprint{AccessTokenHash: "a2", RefreshTokenHash: "r2"}))
	require.NoError(t, r.ClearSession(ctx, "user-123"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenFieldUpdates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	expires := time.Now().Add(24 * time.Hour)

	mock.ExpectExec("SET reset_password_token_hash = \\$2").
		WithArgs("user-123", "reset-hash", expires).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("SET reset_password_token_hash = '', reset_password_expires = NULL").
		WithArgs("user-123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("SET password_hash = \\$2").
		WithArgs("user-123", "new-hash").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("SET verification_token_hash = \\$2").
		WithArgs("user-123", "verify-hash", expires).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("SET is_verified = TRUE, verification_token_hash = ''").
		WithArgs("user-123").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("SET google_id = \\$2").
		WithArgs("user-123", "google-sub", "https://pics/me.png").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.SetResetToken(ctx, "user-123", "reset-hash", expires))
	require.NoError(t, r.ClearResetToken(ctx, "user-123"))
	require.NoError(t, r.UpdatePassword(ctx, "user-123", "new-hash"))
	require.NoError(t, r.SetVerificationToken(ctx, "user-123", "verify-hash", expires))
	require.NoError(t, r.MarkVerified(ctx, "user-123"))
	require.NoError(t, r.LinkGoogleAccount(ctx, "user-123", "google-sub", "https://pics/me.png"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	username := "freshveg"
	phone := "9876543210"

	t.Run("both fields", func(t *testing.T) {
		mock.ExpectQuery("UPDATE users SET updated_at = now\\(\\), username = \\$2, phone = NULLIF\\(\\$3, ''\\) WHERE id = \\$1 RETURNING").
			WithArgs("user-123", username, phone).
			WillReturnRows(userRow("user-123", "a@b.com", "user"))

		user, err := r.UpdateProfile(ctx, "user-123", domain.ProfileUpdate{Username: &username, Phone: &phone})
		require.NoError(t, err)
		assert.Equal(t, "user-123", user.ID)
	})

	t.Run("phone taken", func(t *testing.T) {
		mock.ExpectQuery("UPDATE users SET updated_at = now\\(\\), phone").
			WithArgs("user-123", phone).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_phone_key"})

		_, err := r.UpdateProfile(ctx, "user-123", domain.ProfileUpdate{Phone: &phone})
		assert.ErrorIs(t, err, autherror.ErrPhoneTaken)
	})

	t.Run("missing user", func(t *testing.T) {
		mock.ExpectQuery("UPDATE users SET updated_at = now\\(\\), username").
			WithArgs("ghost", username).
			WillReturnError(pgx.ErrNoRows)

		_, err := r.UpdateProfile(ctx, "ghost", domain.ProfileUpdate{Username: &username})
		assert.ErrorIs(t, err, autherror.ErrUserNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminUpdates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	mock.ExpectExec("SET is_approved").
		WithArgs("user-123", true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("SET is_active").
		WithArgs("user-123", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM users").
		WithArgs("user-123").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM users").
		WithArgs("user-123").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, r.SetApproval(ctx, "user-123", true))
	require.NoError(t, r.SetActive(ctx, "user-123", false))
	require.NoError(t, r.Delete(ctx, "user-123"))
	assert.ErrorIs(t, r.Delete(ctx, "user-123"), autherror.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	filter := domain.UserFilter{Role: "user", Limit: 2, Offset: 0}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT count").
			WithArgs("user").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(5)))

		rows := userRow("user-1", "one@b.com", "user")
		now := time.Now()
		rows.AddRow(
			"user-2", "second", "two@b.com", "", "hash", "user",
			true, true, true, false, 0, nil,
			"", "", "", nil, "", nil,
			"", "", now, now,
		)
		mock.ExpectQuery("ORDER BY created_at DESC").
			WithArgs("user", 2, 0).
			WillReturnRows(rows)

		users, total, err := r.List(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		require.Len(t, users, 2)
		assert.Equal(t, "user-2", users[1].ID)
		assert.Nil(t, users[1].LastLogin)
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery("SELECT count").
			WithArgs("user").
			WillReturnError(fmt.Errorf("db error"))

		_, _, err := r.List(context.Background(), filter)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByRole(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM users WHERE role").
		WithArgs("admin").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

	count, err := r.CountByRole(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeResetToken(t *testing.T) {
	now := time.Now()
	query := "WHERE id = \\$1 AND reset_password_token_hash = \\$2 AND reset_password_expires > \\$4"

	t.Run("current token", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(query).
			WithArgs("user-123", "reset-hash", "new-hash", now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		r := repo.NewPostgresRepository(mock)
		assert.NoError(t, r.ConsumeResetToken(context.Background(), "user-123", "reset-hash", "new-hash", now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already redeemed", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec(query).
			WithArgs("user-123", "reset-hash", "new-hash", now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		r := repo.NewPostgresRepository(mock)
		err = r.ConsumeResetToken(context.Background(), "user-123", "reset-hash", "new-hash", now)
		assert.ErrorIs(t, err, autherror.ErrInvalidOrExpiredToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMalformedID(t *testing.T) {
	badUUID := &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}

	t.Run("lookup finds nothing", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery("WHERE id = \\$1").
			WithArgs("not-a-uuid").
			WillReturnError(badUUID)

		r := repo.NewPostgresRepository(mock)
		user, err := r.GetByID(context.Background(), "not-a-uuid")
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete reports not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("DELETE FROM users").
			WithArgs("not-a-uuid").
			WillReturnError(badUUID)

		r := repo.NewPostgresRepository(mock)
		err = r.Delete(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, autherror.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
