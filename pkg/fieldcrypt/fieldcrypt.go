// Package fieldcrypt cifra campos PII en reposo con XChaCha20-Poly1305.
package fieldcrypt

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const prefix = "enc:v1:"

// ErrDecrypt el texto cifrado no es válido para la clave configurada.
var ErrDecrypt = errors.New("fieldcrypt: no se pudo descifrar")

// Cipher cifra y descifra valores de texto. Un Cipher sin clave deja los valores en claro
// (solo permitido fuera de producción; config.Validate lo exige en producción).
type Cipher struct {
	key []byte
}

// New construye el cifrador desde una clave hex de 32 bytes. hexKey vacío = passthrough.
func New(hexKey string) (*Cipher, error) {
	if hexKey == "" {
		return &Cipher{}, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: clave hex inválida: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("fieldcrypt: la clave debe tener %d bytes", chacha20poly1305.KeySize)
	}
	return &Cipher{key: key}, nil
}

// Enabled indica si hay clave configurada.
func (c *Cipher) Enabled() bool { return len(c.key) > 0 }

// Encrypt devuelve "enc:v1:<base64(nonce|ciphertext)>". Cadena vacía se devuelve tal cual.
func (c *Cipher) Encrypt(plain string) (string, error) {
	if plain == "" || !c.Enabled() {
		return plain, nil
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plain), nil)
	return prefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decrypt inverso de Encrypt. Valores sin prefijo se devuelven tal cual (datos legados en claro).
func (c *Cipher) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, prefix) {
		return value, nil
	}
	if !c.Enabled() {
		return "", ErrDecrypt
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil {
		return "", ErrDecrypt
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrDecrypt
	}
	plain, err := aead.Open(nil, raw[:aead.NonceSize()], raw[aead.NonceSize():], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// Mask deja visibles los últimos 4 caracteres.
func Mask(s string) string {
	if len(s) <= 4 {
		return s
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
