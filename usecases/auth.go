package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"crop-advisor/entities"
	"crop-advisor/repositories"
	"crop-advisor/security"
)

// TokenService issues and checks session tokens.
type TokenService interface {
	Issue(subjectID uint64, username string) (string, error)
	Verify(token string) (*security.Claims, error)
}

type AuthUseCase struct {
	users  repositories.UserRepository
	hasher security.PasswordHasher
	tokens TokenService
	log    *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthUseCase(users repositories.UserRepository, hasher security.PasswordHasher, tokens TokenService, log *slog.Logger) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: tokens, log: log}
}

type RegisterInput struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	MobileNumber    string `json:"mobileNumber"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Register validates in a fixed order (missing fields, password mismatch,
// username taken, email taken) and stops at the first failure.
func (uc *AuthUseCase) Register(ctx context.Context, in RegisterInput) (*entities.UserRecord, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.MobileNumber = strings.TrimSpace(in.MobileNumber)

	var missing []string
	for _, f := range []struct{ key, value string }{
		{"name", in.Name},
		{"username", in.Username},
		{"email", in.Email},
		{"password", in.Password},
		{"confirmPassword", in.ConfirmPassword},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Message: "missing required fields", Fields: missing}
	}
	if in.Password != in.ConfirmPassword {
		return nil, &ValidationError{Message: "passwords do not match", Fields: []string{"confirmPassword"}}
	}

	if err := uc.ensureUnique(ctx, 0, in.Username, in.Email); err != nil {
		return nil, err
	}

	hash, err := uc.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &entities.UserRecord{
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		MobileNumber: in.MobileNumber,
		PasswordHash: hash,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, &ConflictError{Field: "username or email"}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	uc.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login returns the same ErrInvalidCredentials for an unknown user and for a
// wrong password.
func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (string, *entities.UserRecord, error) {
	username = strings.TrimSpace(username)

	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return "", nil, &ValidationError{Message: "missing required fields", Fields: missing}
	}

	user, err := uc.users.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		uc.hasher.Verify(password, uc.dummySecret())
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if !uc.hasher.Verify(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// dummySecret keeps unknown-user logins as slow as wrong-password ones.
func (uc *AuthUseCase) dummySecret() string {
	uc.dummyOnce.Do(func() {
		h, err := uc.hasher.Hash("crop-advisor-timing-pad")
		if err != nil {
			uc.log.Warn("could not build timing pad hash", "error", err)
			return
		}
		uc.dummyHash = h
	})
	return uc.dummyHash
}

func (uc *AuthUseCase) Authenticate(token string) (*security.Claims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := uc.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}

func (uc *AuthUseCase) List(ctx context.Context) ([]entities.UserRecord, error) {
	users, err := uc.users.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (uc *AuthUseCase) Get(ctx context.Context, id uint64) (*entities.UserRecord, error) {
	user, err := uc.users.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name         *string `json:"name"`
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	MobileNumber *string `json:"mobileNumber"`
	Password     *string `json:"password"`
}

func (uc *AuthUseCase) Update(ctx context.Context, id uint64, in UpdateInput) (*entities.UserRecord, error) {
	existing, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var empty []string
	set := func(key string, src *string, dst *string) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if v == "" {
			empty = append(empty, key)
			return
		}
		*dst = v
	}

	// Update only provided fields
	set("name", in.Name, &existing.Name)
	set("username", in.Username, &existing.Username)
	set("email", in.Email, &existing.Email)
	if in.MobileNumber != nil {
		existing.MobileNumber = strings.TrimSpace(*in.MobileNumber)
	}
	if in.Password != nil && strings.TrimSpace(*in.Password) == "" {
		empty = append(empty, "password")
	}
	if len(empty) > 0 {
		return nil, &ValidationError{Message: "fields must not be empty", Fields: empty}
	}

	if err := uc.ensureUnique(ctx, id, existing.Username, existing.Email); err != nil {
		return nil, err
	}

	if in.Password != nil {
		hash, err := uc.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		existing.PasswordHash = hash
	}

	if err := uc.users.Update(ctx, existing); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, &ConflictError{Field: "username or email"}
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return existing, nil
}

func (uc *AuthUseCase) Delete(ctx context.Context, id uint64) error {
	err := uc.users.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	uc.log.Info("user deleted", "user_id", id)
	return nil
}

// ensureUnique checks username before email. selfID is the row being
// updated, or 0 on insert.
func (uc *AuthUseCase) ensureUnique(ctx context.Context, selfID uint64, username, email string) error {
	checks := []struct {
		field  string
		lookup func(context.Context, string) (*entities.UserRecord, error)
		value  string
	}{
		{"username", uc.users.GetByUsername, username},
		{"email", uc.users.GetByEmail, email},
	}
	for _, c := range checks {
		other, err := c.lookup(ctx, c.value)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("check %s: %w", c.field, err)
		}
		if other.ID != selfID {
			return &ConflictError{Field: c.field}
		}
	}
	return nil
}

func (uc *AuthUseCase) hash(password string) (string, error) {
	hash, err := uc.hasher.Hash(password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return "", &ValidationError{Message: err.Error(), Fields: []string{"password"}}
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}
