package methods

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-authflow/core"
)

// BcryptHasher is the default password hasher. A zero value uses the
// library's default cost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("methods: hash password: %w", err)
	}
	return string(hashed), nil
}

func (h BcryptHasher) Compare(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var _ core.PasswordHasher = BcryptHasher{}
