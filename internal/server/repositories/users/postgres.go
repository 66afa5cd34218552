package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation           = "23505"
	pgInvalidTextRepresentation = "22P02"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx) using the pgx stdlib driver.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email_addr, username, profile_picture, salt, hash)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.EmailAddr, user.Username, user.ProfilePicture, user.Salt, user.Hash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return nil, r.mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email_addr", email)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username", username)
}

// findOne is only called with the fixed column names above.
func (r *PostgresRepository) findOne(ctx context.Context, column, value string) (*models.User, error) {
	query :=
		`SELECT id, email_addr, username, profile_picture, salt, hash, created_at, updated_at
		 FROM users
		 WHERE ` + column + ` = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID, &user.EmailAddr, &user.Username, &user.ProfilePicture,
		&user.Salt, &user.Hash, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return nil, r.mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) Save(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users
		 SET email_addr = $2, username = $3, profile_picture = $4, salt = $5, hash = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.EmailAddr, user.Username, user.ProfilePicture, user.Salt, user.Hash).
		Scan(&user.UpdatedAt)

	if err != nil {
		return r.mapError(err)
	}

	return nil
}

func (r *PostgresRepository) mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &UniquenessError{Field: uniqueField(pgErr.ConstraintName), Err: err}
		case pgInvalidTextRepresentation:
			// a malformed uuid cannot match any row
			return common.ErrorNotFound
		}
	}

	return fmt.Errorf("db error: %w", err)
}
