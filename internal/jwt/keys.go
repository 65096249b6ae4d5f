package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// ErrKeyNotConfigured reports missing or unparsable signing key material.
// It is a startup/first-use failure, not a per-request verification one.
var ErrKeyNotConfigured = errors.New("jwt: signing keys not configured")

// KeyManager loads the RS256 key pair from PEM files. Loading happens
// once, on first use, and the result (or failure) is kept for the
// lifetime of the process.
type KeyManager struct {
	privateFile string
	publicFile  string

	once    sync.Once
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	err     error
}

// NewKeyManager creates a manager over the given PEM file paths. No I/O
// happens until the first token is issued or verified.
func NewKeyManager(privateFile, publicFile string) *KeyManager {
	return &KeyManager{privateFile: privateFile, publicFile: publicFile}
}

func (m *KeyManager) load() {
	privatePEM, err := os.ReadFile(m.privateFile)
	if err != nil {
		m.err = fmt.Errorf("%w: read private key: %v", ErrKeyNotConfigured, err)
		return
	}
	publicPEM, err := os.ReadFile(m.publicFile)
	if err != nil {
		m.err = fmt.Errorf("%w: read public key: %v", ErrKeyNotConfigured, err)
		return
	}

	private, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		m.err = fmt.Errorf("%w: parse private key: %v", ErrKeyNotConfigured, err)
		return
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		m.err = fmt.Errorf("%w: parse public key: %v", ErrKeyNotConfigured, err)
		return
	}

	m.private = private
	m.public = public
}

// Private returns the signing key.
func (m *KeyManager) Private() (*rsa.PrivateKey, error) {
	m.once.Do(m.load)
	if m.err != nil {
		return nil, m.err
	}
	return m.private, nil
}

// Public returns the verification key.
func (m *KeyManager) Public() (*rsa.PublicKey, error) {
	m.once.Do(m.load)
	if m.err != nil {
		return nil, m.err
	}
	return m.public, nil
}
