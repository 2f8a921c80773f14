package repositories

import (
	"context"
	"errors"
	"time"

	"crop-advisor/db"
	"crop-advisor/entities"

	"gorm.io/gorm"
)

type userPgRepository struct {
	db db.Database
}

func NewUserPgRepository(database db.Database) UserRepository {
	return &userPgRepository{db: database}
}

func (r *userPgRepository) Create(ctx context.Context, user *entities.UserRecord) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(user).Error)
}

func (r *userPgRepository) GetByID(ctx context.Context, id uint64) (*entities.UserRecord, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userPgRepository) GetByUsername(ctx context.Context, username string) (*entities.UserRecord, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userPgRepository) GetByEmail(ctx context.Context, email string) (*entities.UserRecord, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userPgRepository) GetAll(ctx context.Context) ([]entities.UserRecord, error) {
	var users []entities.UserRecord
	err := r.db.GetDB().WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *userPgRepository) Update(ctx context.Context, user *entities.UserRecord) error {
	user.UpdatedAt = time.Now().UTC()
	return translate(r.db.GetDB().WithContext(ctx).Save(user).Error)
}

func (r *userPgRepository) Delete(ctx context.Context, id uint64) error {
	result := r.db.GetDB().WithContext(ctx).Where("id = ?", id).Delete(&entities.UserRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userPgRepository) first(ctx context.Context, query string, arg any) (*entities.UserRecord, error) {
	var user entities.UserRecord
	if err := r.db.GetDB().WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// translate maps gorm's errors onto the repository's. Duplicate keys are only
// reported as gorm.ErrDuplicatedKey when the connection has TranslateError set.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
