package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"crop-advisor/entities"
)

// userMemRepository keeps users in process memory. It enforces the same
// unique keys as the SQL table and is used when no database is configured.
type userMemRepository struct {
	mu     sync.RWMutex
	nextID uint64
	users  map[uint64]entities.UserRecord
}

func NewUserMemRepository() UserRepository {
	return &userMemRepository{users: make(map[uint64]entities.UserRecord)}
}

func (r *userMemRepository) Create(_ context.Context, user *entities.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflicts(0, user) {
		return ErrDuplicate
	}
	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *userMemRepository) GetByID(_ context.Context, id uint64) (*entities.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *userMemRepository) GetByUsername(_ context.Context, username string) (*entities.UserRecord, error) {
	return r.find(func(u entities.UserRecord) bool { return u.Username == username })
}

func (r *userMemRepository) GetByEmail(_ context.Context, email string) (*entities.UserRecord, error) {
	return r.find(func(u entities.UserRecord) bool { return u.Email == email })
}

func (r *userMemRepository) GetAll(_ context.Context) ([]entities.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]entities.UserRecord, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *userMemRepository) Update(_ context.Context, user *entities.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	if r.conflicts(user.ID, user) {
		return ErrDuplicate
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

func (r *userMemRepository) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *userMemRepository) find(match func(entities.UserRecord) bool) (*entities.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// conflicts must be called with the lock held.
func (r *userMemRepository) conflicts(selfID uint64, user *entities.UserRecord) bool {
	for id, u := range r.users {
		if id == selfID {
			continue
		}
		if u.Username == user.Username || u.Email == user.Email {
			return true
		}
	}
	return false
}
