// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"os"

	"github.com/pkg/errors"
)

const (
	secretMinLen = 256
	secretMaxLen = 512
)

// Printable ASCII minus space, so the secret survives copy-paste and env quoting.
const secretAlphabet = "!\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// LoadOrCreateSecret reads the signing secret from path. When the file does
// not exist a fresh random secret is generated and written with 0600
// permissions, so a first start on an empty host is self-provisioning.
func LoadOrCreateSecret(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		secret := string(raw)
		if len(secret) < secretMinLen || len(secret) > secretMaxLen {
			return "", errors.Errorf("secret file %s has length %d, want between %d and %d", path, len(secret), secretMinLen, secretMaxLen)
		}

		return secret, nil
	}
	if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "read secret file %s", path)
	}

	secret, err := generateSecret()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(secret), 0o600); err != nil {
		return "", errors.Wrapf(err, "write secret file %s", path)
	}

	return secret, nil
}

func generateSecret() (string, error) {
	length := make([]byte, 1)
	if _, err := rand.Read(length); err != nil {
		return "", errors.Wrap(err, "read random length")
	}
	n := secretMinLen + int(length[0])%(secretMaxLen-secretMinLen+1)

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random secret")
	}
	for i, b := range buf {
		buf[i] = secretAlphabet[int(b)%len(secretAlphabet)]
	}

	return string(buf), nil
}
