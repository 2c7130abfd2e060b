package lgpd

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ErrCipher indica texto cifrado malformado ou chave incorreta.
var ErrCipher = errors.New("lgpd: não foi possível decifrar o conteúdo")

// Cipher cifra e decifra strings com AES-256-GCM. O blob resultante é
// base64(nonce ‖ ciphertext); a chave é derivada via SHA-256 do segredo
// configurado, de modo que qualquer segredo vira uma chave de 256 bits.
type Cipher struct {
	key []byte
}

// NewCipher deriva a chave a partir do segredo do ambiente.
func NewCipher(segredo string) *Cipher {
	sum := sha256.Sum256([]byte(segredo))
	return &Cipher{key: sum[:]}
}

// Encrypt cifra o texto plano e devolve o blob em base64.
func (c *Cipher) Encrypt(texto string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("lgpd: criar cifra: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("lgpd: criar gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("lgpd: gerar nonce: %w", err)
	}

	blob := gcm.Seal(nonce, nonce, []byte(texto), nil)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt reverte Encrypt. Blob malformado, truncado ou cifrado com
// outra chave resulta em ErrCipher.
func (c *Cipher) Decrypt(cifrado string) (string, error) {
	blob, err := base64.StdEncoding.DecodeString(cifrado)
	if err != nil {
		return "", fmt.Errorf("%w: base64 inválido", ErrCipher)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("lgpd: criar cifra: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("lgpd: criar gcm: %w", err)
	}

	if len(blob) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: blob curto demais", ErrCipher)
	}
	nonce, ciphertext := blob[:gcm.NonceSize()], blob[gcm.NonceSize():]

	texto, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCipher, err)
	}
	return string(texto), nil
}

// Hash produz digest SHA-256 em hexadecimal.
func Hash(dado string) string {
	sum := sha256.Sum256([]byte(dado))
	return hex.EncodeToString(sum[:])
}

// VerifyIntegrity confere o dado contra um digest gerado por Hash.
func VerifyIntegrity(dado, digest string) bool {
	return hmac.Equal([]byte(Hash(dado)), []byte(digest))
}
