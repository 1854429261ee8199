// Package codes provides the confirmation code generators.
//
// Every generator returns codes as strings. [Numeric] is the default and
// produces fixed-length digit strings suitable for email delivery.
package codes

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	MinDigits = 4
	MaxDigits = 10

	tokenBytes = 24
)

// Generator produces one confirmation code per call.
type Generator interface {
	Generate() (string, error)
}

// Numeric generates uniformly random digit strings of a fixed length.
type Numeric struct {
	digits int
}

func NewNumeric(digits int) (*Numeric, error) {
	if digits < MinDigits || digits > MaxDigits {
		return nil, fmt.Errorf("code digits must be between %d and %d", MinDigits, MaxDigits)
	}
	return &Numeric{digits: digits}, nil
}

func (n *Numeric) Generate() (string, error) {
	var b strings.Builder
	b.Grow(n.digits)

	ten := big.NewInt(10)
	for i := 0; i < n.digits; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}

	code := b.String()
	if len(code) != n.digits {
		return "", errors.New("invalid code generation length")
	}
	return code, nil
}

// UUID generates random (version 4) UUID codes.
type UUID struct{}

func (UUID) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Token generates opaque URL-safe codes for link-based confirmation.
type Token struct{}

func (Token) Generate() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Func adapts a plain function to Generator.
type Func func() (string, error)

func (f Func) Generate() (string, error) { return f() }

// Strategy names accepted by New.
const (
	StrategyNumeric = "numeric"
	StrategyUUID    = "uuid"
	StrategyToken   = "token"
)

// New returns the generator for a strategy name.
func New(strategy string, digits int) (Generator, error) {
	switch strategy {
	case "", StrategyNumeric:
		return NewNumeric(digits)
	case StrategyUUID:
		return UUID{}, nil
	case StrategyToken:
		return Token{}, nil
	default:
		return nil, fmt.Errorf("unknown code strategy %q", strategy)
	}
}
