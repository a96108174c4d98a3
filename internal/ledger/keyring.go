package ledger

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"

	"vigil/pkg/domain"
	dErrors "vigil/pkg/domain-errors"
)

// ErrRedacted is returned when decrypting a payload whose identity key has
// been destroyed.
var ErrRedacted = dErrors.New(dErrors.CodeRedacted, "identity payload key destroyed")

// hkdfInfo separates the AEAD key from any future use of the same material.
const hkdfInfo = "vigil/ledger/payload/v1"

// Keyring holds one random symmetric key per identity. Redaction is
// crypto-shredding: destroy the key, and every historical ciphertext for
// that identity becomes unreadable while hashes and Merkle roots stay
// valid. The ledger never rewrites history.
//
// Keys are random per identity (never derived from a master secret the
// identity key could be recovered from); HKDF stretches the stored material
// into the AEAD key.
type Keyring struct {
	mu   sync.RWMutex
	keys map[domain.PersonID][]byte
}

// NewKeyring builds an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[domain.PersonID][]byte)}
}

// Seal encrypts plaintext under the identity's key, generating the key on
// first use. Output is nonce || ciphertext.
func (k *Keyring) Seal(id domain.PersonID, plaintext []byte) ([]byte, error) {
	material, err := k.materialFor(id)
	if err != nil {
		return nil, err
	}
	aead, err := k.aead(material)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "generate nonce", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a sealed payload. Returns ErrRedacted when the identity's
// key no longer exists.
func (k *Keyring) Open(id domain.PersonID, sealed []byte) ([]byte, error) {
	k.mu.RLock()
	material, ok := k.keys[id]
	k.mu.RUnlock()
	if !ok {
		return nil, ErrRedacted
	}
	aead, err := k.aead(material)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "sealed payload too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeIntegrity, "payload decryption failed", err)
	}
	return plaintext, nil
}

// Destroy erases the identity's key material. Idempotent: destroying an
// absent key succeeds, so redacting an identity with no ledger entries is
// not an error.
func (k *Keyring) Destroy(id domain.PersonID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if material, ok := k.keys[id]; ok {
		for i := range material {
			material[i] = 0
		}
		delete(k.keys, id)
	}
}

// Has reports whether key material exists for the identity.
func (k *Keyring) Has(id domain.PersonID) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.keys[id]
	return ok
}

func (k *Keyring) materialFor(id domain.PersonID) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if material, ok := k.keys[id]; ok {
		return material, nil
	}
	material := make([]byte, 32)
	if _, err := rand.Read(material); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "generate identity key", err)
	}
	k.keys[id] = material
	return material, nil
}

func (k *Keyring) aead(material []byte) (cipher.AEAD, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, material, nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "derive payload key", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "init cipher", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "init gcm", err)
	}
	return aead, nil
}
