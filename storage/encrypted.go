package storage

import (
	"crypto/rand"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

var _ Storage = (*EncryptedStorage)(nil)

// scrypt parameters follow the library's recommended interactive settings.
const (
	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

var encryptionSalt = []byte("stitch-go-sdk/storage/v1")

// EncryptedStorage wraps another Storage and encrypts every value with
// XChaCha20-Poly1305 before it reaches the underlying store. Tokens written
// through it are unreadable without the passphrase, which matters when the
// backing store is a file in the user's home directory.
type EncryptedStorage struct {
	inner Storage
	key   []byte
}

// NewEncryptedStorage derives an encryption key from passphrase and wraps
// inner. The same passphrase must be supplied across restarts or previously
// stored state becomes unreadable, which the SDK reports as a load failure.
func NewEncryptedStorage(inner Storage, passphrase string) (*EncryptedStorage, error) {
	if passphrase == "" {
		return nil, errors.New("[NewEncryptedStorage] passphrase is required")
	}
	key, err := scrypt.Key([]byte(passphrase), encryptionSalt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, errors.Wrap(err, "[NewEncryptedStorage] deriving key")
	}
	return &EncryptedStorage{inner: inner, key: key}, nil
}

func (es *EncryptedStorage) Get(key string) ([]byte, error) {
	sealed, err := es.inner.Get(key)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(es.key)
	if err != nil {
		return nil, errors.Wrap(err, "[EncryptedStorage.Get] initialising cipher")
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("[EncryptedStorage.Get] stored value too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, errors.Wrap(err, "[EncryptedStorage.Get] decrypting value")
	}
	return plaintext, nil
}

func (es *EncryptedStorage) Set(key string, value []byte) error {
	aead, err := chacha20poly1305.NewX(es.key)
	if err != nil {
		return errors.Wrap(err, "[EncryptedStorage.Set] initialising cipher")
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrap(err, "[EncryptedStorage.Set] generating nonce")
	}
	sealed := aead.Seal(nonce, nonce, value, []byte(key))
	return es.inner.Set(key, sealed)
}

func (es *EncryptedStorage) Remove(key string) error {
	return es.inner.Remove(key)
}
