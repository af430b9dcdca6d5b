// Package store holds user-record persistence. Every implementation keys
// records by username, compared case-insensitively.
package store

import (
	"context"
	"errors"
	"strings"

	"treasurehunt/backend/models"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("username already exists")
	// ErrUnreadable is returned by writes while the backing store cannot be
	// loaded. Nothing is written in that state.
	ErrUnreadable = errors.New("user store is unreadable")
)

type Repository interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Update loads the record, lets fn mutate it and writes it back as one
	// serialized step. An error from fn aborts the write.
	Update(ctx context.Context, username string, fn func(*models.User) error) error
	Delete(ctx context.Context, username string) error
}

// SameUsername is the key comparison used by every repository.
func SameUsername(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
