// Package tlsmaterial loads and, when necessary, unwraps the certificate
// and private key a node uses for its TLS 1.3 transport, including
// passphrase-protected PEM keys.
package tlsmaterial

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"encoding/pem"
	"fmt"
	"hash"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

func newSHA256() hash.Hash { return sha256.New() }

const (
	pbkdf2Iterations = 210_000
	pbkdf2KeyLen     = 32
	pbkdf2SaltLen    = 16
)

// LoadServerConfig builds a server-side tls.Config (TLS 1.3 only) from a
// certificate/key pair on disk. If password is non-empty, the key file is
// treated as a PEM block wrapping an AES-256-GCM-encrypted private key, as
// produced by EncryptKey.
func LoadServerConfig(certFile, keyFile, password string) (*tls.Config, error) {
	cert, err := loadCertificate(certFile, keyFile, password)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
		ClientAuth:   tls.NoClientCert,
	}, nil
}

// LoadClientConfig builds a client-side tls.Config (TLS 1.3 only),
// optionally presenting a client certificate for mutual authentication.
func LoadClientConfig(certFile, keyFile, password string, insecureSkipVerify bool) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS13,
		InsecureSkipVerify: insecureSkipVerify,
	}
	if certFile == "" {
		return cfg, nil
	}
	cert, err := loadCertificate(certFile, keyFile, password)
	if err != nil {
		return nil, err
	}
	cfg.Certificates = []tls.Certificate{cert}
	return cfg, nil
}

func loadCertificate(certFile, keyFile, password string) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlsmaterial: read cert: %w", err)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlsmaterial: read key: %w", err)
	}
	if password != "" {
		keyPEM, err = DecryptKey(keyPEM, password)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("tlsmaterial: decrypt key: %w", err)
		}
	}
	return tls.X509KeyPair(certPEM, keyPEM)
}

// encryptedKeyBlockType is the PEM block type EncryptKey/DecryptKey use to
// wrap a passphrase-protected private key, distinct from a plain
// "PRIVATE KEY" block so the two are never confused.
const encryptedKeyBlockType = "P2PCORE ENCRYPTED PRIVATE KEY"

// EncryptKey wraps a PEM-encoded private key with AES-256-GCM, deriving
// the key from password via PBKDF2. The salt and nonce are stored
// alongside the ciphertext in the returned PEM block's bytes.
func EncryptKey(keyPEM []byte, password string) ([]byte, error) {
	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, newSHA256)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nil, nonce, keyPEM, nil)
	packed := append(append(append([]byte{}, salt...), nonce...), ciphertext...)

	return pem.EncodeToMemory(&pem.Block{Type: encryptedKeyBlockType, Bytes: packed}), nil
}

// DecryptKey reverses EncryptKey, returning the original PEM-encoded
// private key.
func DecryptKey(wrapped []byte, password string) ([]byte, error) {
	block, _ := pem.Decode(wrapped)
	if block == nil || block.Type != encryptedKeyBlockType {
		return nil, fmt.Errorf("tlsmaterial: not an encrypted key block")
	}
	if len(block.Bytes) < pbkdf2SaltLen {
		return nil, fmt.Errorf("tlsmaterial: truncated key block")
	}
	salt := block.Bytes[:pbkdf2SaltLen]
	rest := block.Bytes[pbkdf2SaltLen:]

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, pbkdf2KeyLen, newSHA256)
	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(aesBlock)
	if err != nil {
		return nil, err
	}
	if len(rest) < gcm.NonceSize() {
		return nil, fmt.Errorf("tlsmaterial: truncated nonce")
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("tlsmaterial: wrong password or corrupt key: %w", err)
	}
	return plain, nil
}

// GenerateSelfSigned creates an in-memory self-signed certificate for
// development and test use, where no real CA-issued material is
// available.
func GenerateSelfSigned() (tls.Certificate, error) {
	return generateSelfSigned()
}
