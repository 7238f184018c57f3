package auth

import (
	"fmt"

	"imagetales-web/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes は bcrypt が扱えるパスワードの最大バイト数です。
const MaxPasswordBytes = 72

// HashPassword は bcrypt でパスワードをハッシュ化します。
// MaxPasswordBytes を超えるパスワードは ErrValidation です。
func HashPassword(password string) ([]byte, error) {
	if len(password) > MaxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrValidation, MaxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// CheckPassword はハッシュとパスワードが一致するかを返します。
func CheckPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
