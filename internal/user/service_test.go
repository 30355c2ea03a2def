package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lokapasar-be/internal/utils"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = 1
	}
	return args.Error(0)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, userID uint) (*User, error) {
	args := m.Called(ctx, userID)
	if u, ok := args.Get(0).(*User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRegister(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("Create", ctx, mock.MatchedBy(func(u *User) bool {
			return u.Email == "budi@example.com" &&
				u.Role == utils.RoleUser &&
				u.PasswordHash != "rahasia123" &&
				u.Phone != nil && *u.Phone == "+6281234567890"
		})).Return(nil)

		token, u, err := svc.Register(ctx, "budi@example.com", "rahasia123", "Budi", "081234567890")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, uint(1), u.ID)
	})

	t.Run("Error - duplicate email", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("Create", ctx, mock.Anything).Return(ErrEmailExists)

		_, _, err := svc.Register(ctx, "budi@example.com", "rahasia123", "Budi", "")
		assert.ErrorIs(t, err, ErrEmailExists)
	})
}

func TestLogin(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	ctx := context.Background()

	hashed, err := HashPassword("rahasia123")
	assert.NoError(t, err)
	stored := &User{ID: 1, Email: "budi@example.com", PasswordHash: hashed, Role: utils.RoleUser}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("FindByEmail", ctx, "budi@example.com").Return(stored, nil)

		token, u, err := svc.Login(ctx, "budi@example.com", "rahasia123")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, uint(1), u.ID)
	})

	t.Run("Error - wrong password", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("FindByEmail", ctx, "budi@example.com").Return(stored, nil)

		_, _, err := svc.Login(ctx, "budi@example.com", "salah")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Error - unknown email", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)

		repo.On("FindByEmail", ctx, "ghost@example.com").Return(nil, ErrUserNotFound)

		_, _, err := svc.Login(ctx, "ghost@example.com", "rahasia123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("rahasia123")
	assert.NoError(t, err)
	assert.NotEqual(t, "rahasia123", hash)
	assert.True(t, CheckPasswordHash("rahasia123", hash))
	assert.False(t, CheckPasswordHash("salah", hash))
}
