package repo

import "errors"

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrEmailTaken é retornado ao cadastrar e-mail já existente.
	ErrEmailTaken = errors.New("e-mail já cadastrado")
)
