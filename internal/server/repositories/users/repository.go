// Package users declares the user store contract and its SQL implementations.
// email_addr and username are unique; violating either yields a
// *UniquenessError.
package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
)

// Repository persists user records.
type Repository interface {
	// Create inserts user and fills in ID and timestamps.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByID, FindByEmail and FindByUsername return common.ErrorNotFound
	// when no row matches.
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// Save writes every mutable column of user back. The last write wins.
	Save(ctx context.Context, user *models.User) error
}

// UniquenessError reports an insert or update that collided on a unique
// column. It matches common.ErrUniquenessViolation.
type UniquenessError struct {
	Field string
	Err   error
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("%v: users.%s already taken", common.ErrUniquenessViolation, e.Field)
}

func (e *UniquenessError) Is(target error) bool {
	return target == common.ErrUniquenessViolation
}

func (e *UniquenessError) Unwrap() error {
	return e.Err
}

// uniqueField maps a constraint name or driver message to the column name.
func uniqueField(s string) string {
	switch {
	case strings.Contains(s, "email_addr"):
		return "email_addr"
	case strings.Contains(s, "username"):
		return "username"
	case strings.Contains(s, "id"):
		return "id"
	}
	return "unknown"
}
