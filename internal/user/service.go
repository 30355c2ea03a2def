package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lokapasar-be/internal/auth"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/utils"
)

const tokenTTL = 24 * time.Hour

type Service interface {
	Register(ctx context.Context, email, password, name, phone string) (string, *User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	GetByID(ctx context.Context, userID uint) (*User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, email, password, name, phone string) (string, *User, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "Register"), zap.String("email", email))

	hashed, err := HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", nil, err
	}

	u := &User{
		Email:        email,
		PasswordHash: hashed,
		Name:         name,
		Role:         utils.RoleUser,
	}
	if phone != "" {
		normalized := utils.NormalizePhoneID(phone)
		u.Phone = &normalized
	}

	if err := s.repo.Create(ctx, u); err != nil {
		log.Warn("registration rejected", zap.Error(err))
		return "", nil, err
	}

	token, err := auth.IssueToken(u.ID, u.Email, u.Role, tokenTTL)
	if err != nil {
		log.Error("failed to issue token", zap.Uint("user_id", u.ID), zap.Error(err))
		return "", nil, err
	}

	log.Info("user registered", zap.Uint("user_id", u.ID))
	return token, u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		// Same answer for unknown email and wrong password.
		return "", nil, ErrInvalidCredentials
	}

	if !CheckPasswordHash(password, u.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := auth.IssueToken(u.ID, u.Email, u.Role, tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *service) GetByID(ctx context.Context, userID uint) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}
