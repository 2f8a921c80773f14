package repositories

import (
	"context"
	"errors"

	"crop-advisor/entities"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// UserRepository is the credential store. Each method touches a single row.
type UserRepository interface {
	Create(ctx context.Context, user *entities.UserRecord) error
	GetByID(ctx context.Context, id uint64) (*entities.UserRecord, error)
	GetByUsername(ctx context.Context, username string) (*entities.UserRecord, error)
	GetByEmail(ctx context.Context, email string) (*entities.UserRecord, error)
	GetAll(ctx context.Context) ([]entities.UserRecord, error)
	Update(ctx context.Context, user *entities.UserRecord) error
	Delete(ctx context.Context, id uint64) error
}
