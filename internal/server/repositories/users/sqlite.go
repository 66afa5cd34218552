package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository implements Repository on top of modernc.org/sqlite.
// SQLite cannot generate ids, so they are assigned here.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email_addr, username, profile_picture, salt, hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, user.EmailAddr, user.Username, user.ProfilePicture, user.Salt, user.Hash, now, now)
	if err != nil {
		return nil, r.mapError(err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return user, nil
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email_addr", email)
}

func (r *SQLiteRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *SQLiteRepository) findOne(ctx context.Context, column, value string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email_addr, username, profile_picture, salt, hash, created_at, updated_at
		 FROM users WHERE `+column+` = ?`, value,
	).Scan(&user.ID, &user.EmailAddr, &user.Username, &user.ProfilePicture,
		&user.Salt, &user.Hash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, r.mapError(err)
	}
	return user, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET email_addr = ?, username = ?, profile_picture = ?, salt = ?, hash = ?, updated_at = ?
		 WHERE id = ?`,
		user.EmailAddr, user.Username, user.ProfilePicture, user.Salt, user.Hash, now, user.ID)
	if err != nil {
		return r.mapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	user.UpdatedAt = now
	return nil
}

func (r *SQLiteRepository) mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		if sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			strings.Contains(sqErr.Error(), "UNIQUE constraint failed") {
			return &UniquenessError{Field: uniqueField(constraintColumn(sqErr.Error())), Err: err}
		}
	}

	return fmt.Errorf("db error: %w", err)
}

// constraintColumn extracts "users.<col>" from a SQLite constraint message.
func constraintColumn(msg string) string {
	i := strings.Index(msg, "users.")
	if i < 0 {
		return msg
	}
	col := msg[i+len("users."):]
	if j := strings.IndexAny(col, " ,()"); j >= 0 {
		col = col[:j]
	}
	return col
}
