package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// ErrInvalidRefresh indica refresh token desconhecido, revogado ou expirado.
var ErrInvalidRefresh = errors.New("refresh token inválido")

// GenerateRefreshToken devolve o token opaco entregue ao painel e o
// hash que vai para o banco. O valor cru nunca é persistido.
func GenerateRefreshToken() (raw, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, HashRefreshToken(raw), nil
}

// HashRefreshToken reduz o token cru ao hash SHA-256 persistível.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RefreshKey monta a chave do acelerador redis para um refresh token.
func RefreshKey(hash string) string {
	return "gabinete:refresh:" + hash
}
