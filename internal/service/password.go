package service

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	passwordIterations = 1000
	passwordKeyLen     = 64
	saltLen            = 16
)

// hashPassword returns a fresh hex salt and the hex PBKDF2-SHA512 digest
// of password under it.
func hashPassword(password string) (salt, hash string, err error) {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}
	salt = hex.EncodeToString(b)
	return salt, derive(password, salt), nil
}

func checkPassword(password, salt, hash string) bool {
	if salt == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(derive(password, salt)), []byte(hash)) == 1
}

func derive(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), passwordIterations, passwordKeyLen, sha512.New)
	return hex.EncodeToString(key)
}
