package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only reads the first 72 bytes of its input.
const bcryptMaxBytes = 72

// BcryptConfig holds the bcrypt cost and the accepted password length.
type BcryptConfig struct {
	Cost             int
	MinPasswordBytes int
	MaxPasswordBytes int
}

// Bcrypt hashes passwords with bcrypt. It exists for hosts migrating user
// collections whose hashes were produced by bcrypt.
type Bcrypt struct {
	cost   int
	limits lengthPolicy
}

func NewBcrypt(cfg BcryptConfig) (*Bcrypt, error) {
	if cfg.Cost == 0 {
		cfg.Cost = bcrypt.DefaultCost
	}
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.MaxPasswordBytes <= 0 || cfg.MaxPasswordBytes > bcryptMaxBytes {
		cfg.MaxPasswordBytes = bcryptMaxBytes
	}
	limits, err := newLengthPolicy(cfg.MinPasswordBytes, cfg.MaxPasswordBytes)
	if err != nil {
		return nil, err
	}
	return &Bcrypt{cost: cfg.Cost, limits: limits}, nil
}

func (b *Bcrypt) Hash(password string) (string, error) {
	if err := b.limits.check(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches encodedHash. Over-long input is a
// mismatch, not an error.
func (b *Bcrypt) Verify(password, encodedHash string) (bool, error) {
	if len(password) > b.limits.max {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, err
	}
}

// NeedsUpgrade reports whether encodedHash uses a lower cost than configured.
func (b *Bcrypt) NeedsUpgrade(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, err
	}
	return cost < b.cost, nil
}
