package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() RegisterInput {
	return RegisterInput{
		Name:            "Anbu",
		Username:        "anbu",
		Email:           "anbu@example.com",
		MobileNumber:    "9876543210",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
	}
}

func TestRegister_Success(t *testing.T) {
	uc, repo, _ := newAuth(t)
	ctx := context.Background()

	user, err := uc.Register(ctx, validInput())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "anbu", user.Username)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$2"))

	stored, err := repo.GetByUsername(ctx, "anbu")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestRegister_ValidationOrder(t *testing.T) {
	uc, repo, _ := newAuth(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, validInput())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		check  func(t *testing.T, err error)
	}{
		{
			name: "missing fields listed together",
			mutate: func(in *RegisterInput) {
				in.Name = "  "
				in.Email = ""
				in.ConfirmPassword = ""
			},
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, []string{"name", "email", "confirmPassword"}, ve.Fields)
			},
		},
		{
			name: "missing beats mismatch and conflict",
			mutate: func(in *RegisterInput) {
				in.Name = ""
				in.ConfirmPassword = "different"
			},
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, []string{"name"}, ve.Fields)
			},
		},
		{
			name:   "mismatch beats conflict",
			mutate: func(in *RegisterInput) { in.ConfirmPassword = "different" },
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "passwords do not match", ve.Message)
			},
		},
		{
			name:   "username taken beats email taken",
			mutate: func(in *RegisterInput) {},
			check: func(t *testing.T, err error) {
				var ce *ConflictError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, "username", ce.Field)
			},
		},
		{
			name:   "email taken",
			mutate: func(in *RegisterInput) { in.Username = "someone-else" },
			check: func(t *testing.T, err error) {
				var ce *ConflictError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, "email", ce.Field)
			},
		},
		{
			name: "password too long",
			mutate: func(in *RegisterInput) {
				in.Username, in.Email = "long", "long@example.com"
				in.Password = strings.Repeat("p", 73)
				in.ConfirmPassword = in.Password
			},
			check: func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, []string{"password"}, ve.Fields)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			user, err := uc.Register(ctx, in)
			assert.Nil(t, user)
			tt.check(t, err)

			all, err := repo.GetAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestLogin(t *testing.T) {
	uc, _, tokens := newAuth(t)
	ctx := context.Background()
	registered, err := uc.Register(ctx, validInput())
	require.NoError(t, err)

	token, user, err := uc.Login(ctx, "anbu", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "anbu", claims.Username)

	_, _, errWrongPass := uc.Login(ctx, "anbu", "wrong")
	_, _, errUnknown := uc.Login(ctx, "nobody", "s3cret-pass")
	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errWrongPass.Error(), errUnknown.Error())

	_, _, err = uc.Login(ctx, "", "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"username", "password"}, ve.Fields)
}

func TestAuthenticate(t *testing.T) {
	uc, _, tokens := newAuth(t)

	token, err := tokens.Issue(9, "farmer")
	require.NoError(t, err)
	claims, err := uc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "9", claims.Subject)

	_, err = uc.Authenticate("")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = uc.Authenticate("garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUserCRUD(t *testing.T) {
	uc, _, _ := newAuth(t)
	ctx := context.Background()

	first, err := uc.Register(ctx, validInput())
	require.NoError(t, err)
	second := validInput()
	second.Username, second.Email = "kavi", "kavi@example.com"
	other, err := uc.Register(ctx, second)
	require.NoError(t, err)

	users, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = uc.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	name := "Anbu Selvan"
	updated, err := uc.Update(ctx, first.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Anbu Selvan", updated.Name)
	assert.Equal(t, first.PasswordHash, updated.PasswordHash)
	assert.Equal(t, "anbu@example.com", updated.Email)
	assert.False(t, updated.UpdatedAt.Before(first.UpdatedAt))

	taken := "kavi"
	_, err = uc.Update(ctx, first.ID, UpdateInput{Username: &taken})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "username", ce.Field)

	own := "anbu"
	_, err = uc.Update(ctx, first.ID, UpdateInput{Username: &own})
	assert.NoError(t, err)

	blank := " "
	_, err = uc.Update(ctx, first.ID, UpdateInput{Email: &blank, Password: &blank})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"email", "password"}, ve.Fields)

	newPass := "another-pass"
	_, err = uc.Update(ctx, first.ID, UpdateInput{Password: &newPass})
	require.NoError(t, err)
	_, _, err = uc.Login(ctx, "anbu", "another-pass")
	assert.NoError(t, err)
	_, _, err = uc.Login(ctx, "anbu", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = uc.Update(ctx, 999, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, uc.Delete(ctx, other.ID))
	assert.ErrorIs(t, uc.Delete(ctx, other.ID), ErrNotFound)
	_, err = uc.Get(ctx, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
