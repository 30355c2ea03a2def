package user

import "time"

type User struct {
	ID           uint
	Email        string
	PasswordHash string
	Name         string
	Phone        *string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
