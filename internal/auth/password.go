package auth

import "github.com/alexedwards/argon2id"

// Parâmetros de custo das senhas de credenciais de gabinete. Mudar os
// valores não invalida hashes antigos: cada hash carrega os próprios
// parâmetros.
var argonParams = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash deriva o hash Argon2id armazenado em gabinete_credenciais.
func Hash(senha string) (string, error) {
	return argon2id.CreateHash(senha, argonParams)
}

// Verify confere a senha apresentada contra o hash armazenado.
func Verify(senha, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(senha, hash)
}
