package model

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for every administrator password.
const PasswordCost = 10

// Admin is a registered administrator. The hash never leaves the process.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
}

// NewAdmin creates an Admin with a fresh ID and the bcrypt hash of password.
func NewAdmin(name, email, password string) (*Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return &Admin{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}, nil
}

// CheckPassword reports whether password matches the stored hash.
func (a *Admin) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}
