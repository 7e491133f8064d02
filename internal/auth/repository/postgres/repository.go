package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codax69/sever-main-sub001/internal/auth/domain"
	autherror "github.com/codax69/sever-main-sub001/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"
	// invalidTextRepresentation is raised when an id is not a valid UUID.
	invalidTextRepresentation = "22P02"
)

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, username, email, COALESCE(phone, ''), password_hash, role,
	is_active, is_approved, is_verified, is_logged_in, login_count, last_login,
	access_token_hash, refresh_token_hash,
	reset_password_token_hash, reset_password_expires,
	verification_token_hash, verification_token_expires,
	COALESCE(google_id, ''), picture, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Phone, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.IsApproved, &u.IsVerified, &u.IsLoggedIn, &u.LoginCount, &u.LastLogin,
		&u.AccessTokenHash, &u.RefreshTokenHash,
		&u.ResetPasswordTokenHash, &u.ResetPasswordExpires,
		&u.VerificationTokenHash, &u.VerificationTokenExpires,
		&u.GoogleID, &u.Picture, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, args ...any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1`
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (
			id, username, email, phone, password_hash, role,
			is_active, is_approved, is_verified, is_logged_in,
			access_token_hash, refresh_token_hash,
			verification_token_hash, verification_token_expires,
			google_id, picture, created_at, updated_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULLIF($15, ''), $16, $17, $18)
	`, user.ID, user.Username, user.Email, user.Phone, user.PasswordHash, user.Role,
		user.IsActive, user.IsApproved, user.IsVerified, user.IsLoggedIn,
		user.AccessTokenHash, user.RefreshTokenHash,
		user.VerificationTokenHash, user.VerificationTokenExpires,
		user.GoogleID, user.Picture, user.CreatedAt, user.UpdatedAt)

	return mapWriteError(err)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "lower(email) = lower($1)", email)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

func (r *PostgresRepository) GetByEmailAndRole(ctx context.Context, email, role string) (*domain.User, error) {
	return r.getOne(ctx, "lower(email) = lower($1) AND role = $2", email, role)
}

func (r *PostgresRepository) GetByPhoneAndRole(ctx context.Context, phone, role string) (*domain.User, error) {
	return r.getOne(ctx, "phone = $1 AND role = $2", phone, role)
}

func (r *PostgresRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return r.getOne(ctx, "google_id = $1", googleID)
}

func (r *PostgresRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return r.getOne(ctx, "reset_password_token_hash = $1 AND reset_password_expires > $2", tokenHash, now)
}

func (r *PostgresRepository) GetByVerificationToken(ctx context.Context, tokenHash, role string, now time.Time) (*domain.User, error) {
	return r.getOne(ctx, "verification_token_hash = $1 AND role = $2 AND verification_token_expires > $3", tokenHash, role, now)
}

func (r *PostgresRepository) RecordLogin(ctx context.Context, id string, fp domain.SessionFingerprint, at time.Time) error {
	return r.update(ctx, `
		UPDATE users
		SET access_token_hash = $2, refresh_token_hash = $3, is_logged_in = TRUE,
			last_login = $4, login_count = login_count + 1, updated_at = now()
		WHERE id = $1
	`, id, fp.AccessTokenHash, fp.RefreshTokenHash, at)
}

func (r *PostgresRepository) SaveSession(ctx context.Context, id string, fp domain.SessionFingerprint) error {
	return r.update(ctx, `
		UPDATE users
		SET access_token_hash = $2, refresh_token_hash = $3, is_logged_in = TRUE, updated_at = now()
		WHERE id = $1
	`, id, fp.AccessTokenHash, fp.RefreshTokenHash)
}

func (r *PostgresRepository) ClearSession(ctx context.Context, id string) error {
	return r.update(ctx, `
		UPDATE users
		SET access_token_hash = '', refresh_token_hash = '', is_logged_in = FALSE, updated_at = now()
		WHERE id = $1
	`, id)
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return r.update(ctx, `
		UPDATE users SET reset_password_token_hash = $2, reset_password_expires = $3, updated_at = now()
		WHERE id = $1
	`, id, tokenHash, expires)
}

func (r *PostgresRepository) ClearResetToken(ctx context.Context, id string) error {
	return r.update(ctx, `
		UPDATE users SET reset_password_token_hash = '', reset_password_expires = NULL, updated_at = now()
		WHERE id = $1
	`, id)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.update(ctx, `
		UPDATE users
		SET password_hash = $2, reset_password_token_hash = '', reset_password_expires = NULL, updated_at = now()
		WHERE id = $1
	`, id, passwordHash)
}

// ConsumeResetToken sets the new password only while tokenHash is still the
// current, unexpired reset token, so concurrent redemptions succeed once.
func (r *PostgresRepository) ConsumeResetToken(ctx context.Context, id, tokenHash, passwordHash string, now time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET password_hash = $3, reset_password_token_hash = '', reset_password_expires = NULL, updated_at = now()
		WHERE id = $1 AND reset_password_token_hash = $2 AND reset_password_expires > $4
	`, id, tokenHash, passwordHash, now)
	if err != nil {
		if isMalformedID(err) {
			return autherror.ErrInvalidOrExpiredToken
		}
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrInvalidOrExpiredToken
	}
	return nil
}

func (r *PostgresRepository) SetVerificationToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	return r.update(ctx, `
		UPDATE users SET verification_token_hash = $2, verification_token_expires = $3, updated_at = now()
		WHERE id = $1
	`, id, tokenHash, expires)
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	return r.update(ctx, `
		UPDATE users
		SET is_verified = TRUE, verification_token_hash = '', verification_token_expires = NULL, updated_at = now()
		WHERE id = $1
	`, id)
}

func (r *PostgresRepository) LinkGoogleAccount(ctx context.Context, id, googleID, picture string) error {
	return r.update(ctx, `
		UPDATE users SET google_id = $2, picture = $3, is_verified = TRUE, updated_at = now()
		WHERE id = $1
	`, id, googleID, picture)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	if update.Username != nil {
		args = append(args, *update.Username)
		sets = append(sets, fmt.Sprintf("username = $%d", len(args)))
	}
	if update.Phone != nil {
		args = append(args, *update.Phone)
		sets = append(sets, fmt.Sprintf("phone = NULLIF($%d, '')", len(args)))
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, autherror.ErrUserNotFound
		}
		return nil, mapWriteError(err)
	}
	return user, nil
}

func (r *PostgresRepository) SetApproval(ctx context.Context, id string, approved bool) error {
	return r.update(ctx, `UPDATE users SET is_approved = $2, updated_at = now() WHERE id = $1`, id, approved)
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.update(ctx, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.update(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE ($1 = '' OR role = $1)`, filter.Role).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, filter.Role, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0, filter.Limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *PostgresRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM users WHERE role = $1`, role).Scan(&count)
	return count, err
}

func (r *PostgresRepository) update(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isMalformedID(err) {
			return autherror.ErrUserNotFound
		}
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrUserNotFound
	}
	return nil
}

// isMalformedID reports a value postgres could not parse into the uuid id
// column. No row can match such an id.
func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return autherror.ErrUsernameTaken
		case strings.Contains(pgErr.ConstraintName, "phone"):
			return autherror.ErrPhoneTaken
		default:
			return autherror.ErrUserAlreadyExists
		}
	}
	return err
}
