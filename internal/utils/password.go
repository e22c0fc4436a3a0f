package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes a user password at cost. Seeded admins and
// registered users share it, so stored hashes stay comparable.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches a stored bcrypt hash. Any
// malformed hash simply fails the comparison.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
