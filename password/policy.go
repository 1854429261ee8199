package password

import (
	"errors"
	"fmt"
)

const (
	// DefaultMinPasswordBytes is the shortest accepted password.
	DefaultMinPasswordBytes = 10
	// DefaultMaxPasswordBytes caps the work an attacker can force per hash.
	DefaultMaxPasswordBytes = 1024
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
)

type lengthPolicy struct {
	min int
	max int
}

func newLengthPolicy(minBytes, maxBytes int) (lengthPolicy, error) {
	if minBytes <= 0 {
		minBytes = DefaultMinPasswordBytes
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPasswordBytes
	}
	if minBytes > maxBytes {
		return lengthPolicy{}, fmt.Errorf("password min length %d exceeds max length %d", minBytes, maxBytes)
	}
	return lengthPolicy{min: minBytes, max: maxBytes}, nil
}

func (p lengthPolicy) check(password string) error {
	if len(password) < p.min {
		return fmt.Errorf("%w: must be at least %d bytes", ErrPasswordTooShort, p.min)
	}
	if len(password) > p.max {
		return fmt.Errorf("%w: must be at most %d bytes", ErrPasswordTooLong, p.max)
	}
	return nil
}
