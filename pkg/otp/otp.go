// Package otp issues counter based one-time codes (RFC 4226).
package otp

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const secretSize = 20

var opts = hotp.ValidateOpts{
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// GenerateSecret returns a fresh base32 secret without padding.
func GenerateSecret() (string, error) {
	buf := make([]byte, secretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

// Code returns the code for the given counter.
func Code(secret string, counter uint64) (string, error) {
	return hotp.GenerateCodeCustom(secret, counter, opts)
}

// Verify reports whether code matches the secret at counter.
func Verify(code, secret string, counter uint64) bool {
	ok, err := hotp.ValidateCustom(code, counter, secret, opts)
	return err == nil && ok
}
