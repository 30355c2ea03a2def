package user

import "lokapasar-be/pkg/apperr"

var (
	ErrEmailExists        = apperr.New(apperr.CodeBusiness, "email already registered")
	ErrInvalidCredentials = apperr.New(apperr.CodeUnauthorized, "invalid email or password")
	ErrUserNotFound       = apperr.New(apperr.CodeNotFound, "user not found")
)
