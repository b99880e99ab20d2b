// Package auth covers credential hashing and session lifecycle.
package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	pbkdf2KeyLen     = 64
	saltBytes        = 16
)

// HashPassword derives a PBKDF2-SHA512 hash with a fresh random salt.
// Both return values are hex-encoded.
func HashPassword(password string) (salt, hash string, err error) {
	rawSalt := make([]byte, saltBytes)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}
	salt = hex.EncodeToString(rawSalt)

	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha512.New)
	return salt, hex.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches the stored salt+hash.
func VerifyPassword(password, salt, hash string) bool {
	key := pbkdf2.Key([]byte(password), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha512.New)
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(key)), []byte(hash)) == 1
}
