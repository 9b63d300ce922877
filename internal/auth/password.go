package auth

import (
	"github.com/alexedwards/argon2id"
)

// Parâmetros Argon2id usados para senhas de cidadãos e atendentes.
var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// HashPassword gera um hash Argon2id autocontido (parâmetros embutidos).
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, params)
}

// VerifyPassword compara a senha com o hash Argon2id.
func VerifyPassword(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}
