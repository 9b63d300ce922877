package repo

import (
	"time"

	"github.com/google/uuid"
)

// Papéis aceitos na coluna papel de usuarios.
const (
	PapelCidadao   = "CIDADAO"
	PapelAtendente = "ATENDENTE"
	PapelAdmin     = "ADMIN"
)

// Usuario representa uma conta do portal: cidadão ou equipe de balcão.
type Usuario struct {
	ID        uuid.UUID
	Nome      string
	Email     string
	Telefone  string
	SenhaHash string
	Papel     string
	Ativo     bool
	CriadoEm  time.Time
}

// InsertUsuarioParams encapsula os campos de criação de conta.
type InsertUsuarioParams struct {
	ID        uuid.UUID
	Nome      string
	Email     string
	Telefone  string
	SenhaHash string
	Papel     string
}

// TokenRefresh modela a tabela de refresh tokens.
type TokenRefresh struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
	Revogado  bool
}

// InsertRefreshTokenParams encapsula a criação de refresh token.
type InsertRefreshTokenParams struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	Audience  string
	TokenHash string
	Expiracao time.Time
	CriadoEm  time.Time
}
