package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/celengan/internal/common"
	"github.com/dmitrijs2005/celengan/internal/dbx"
	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, username, email, password_hash, external_id, display_name, photo_url, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO users (id, username, email, password_hash, external_id, display_name, photo_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email,
		nullIfEmpty(user.PasswordHash), nullIfEmpty(user.ExternalID),
		nullIfEmpty(user.DisplayName), nullIfEmpty(user.PhotoURL),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID)
}

func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) RefreshProfile(ctx context.Context, id, email, displayName, photoURL string) (*models.User, error) {
	query :=
		`UPDATE users SET
		   email = COALESCE(NULLIF($2, ''), email),
		   display_name = COALESCE(NULLIF($3, ''), display_name),
		   photo_url = COALESCE(NULLIF($4, ''), photo_url),
		   updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	return r.getOne(ctx, query, id, email, displayName, photoURL)
}

func (r *PostgresRepository) LinkExternal(ctx context.Context, id, externalID, displayName, photoURL string) (*models.User, error) {
	query :=
		`UPDATE users SET
		   external_id = $2,
		   display_name = COALESCE(display_name, NULLIF($3, '')),
		   photo_url = COALESCE(photo_url, NULLIF($4, '')),
		   updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	return r.getOne(ctx, query, id, externalID, displayName, photoURL)
}

func (r *PostgresRepository) SetPhotoURL(ctx context.Context, id, photoURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET photo_url = $2, updated_at = now() WHERE id = $1`, id, photoURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, mapWriteError(err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u                                           models.User
		passwordHash, externalID, displayName, photo sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &passwordHash, &externalID,
		&displayName, &photo, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = passwordHash.String
	u.ExternalID = externalID.String
	u.DisplayName = displayName.String
	u.PhotoURL = photo.String
	return &u, nil
}

func mapWriteError(err error) error {
	if constraint, ok := dbx.UniqueViolation(err); ok {
		switch constraint {
		case "users_email_key":
			return common.ErrDuplicateEmail
		case "users_username_key":
			return common.ErrDuplicateUsername
		default:
			return common.ErrorAlreadyExists
		}
	}
	return fmt.Errorf("db error: %w", err)
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
