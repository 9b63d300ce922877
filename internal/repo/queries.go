package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaozabele/agendamento/internal/db"
)

// Queries provê acesso às tabelas de identidade.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria o repositório sobre o pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const usuarioColumns = "id, nome, email, telefone, senha_hash, papel, ativo, criado_em"

// GetUsuarioByEmail busca conta pelo e-mail (minúsculo).
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `
        SELECT `+usuarioColumns+`
        FROM usuarios
        WHERE email = $1
    `, strings.ToLower(strings.TrimSpace(email)))
	return scanUsuario(row)
}

// GetUsuarioByID busca conta pelo id.
func (q *Queries) GetUsuarioByID(ctx context.Context, id uuid.UUID) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `
        SELECT `+usuarioColumns+`
        FROM usuarios
        WHERE id = $1
    `, id)
	return scanUsuario(row)
}

// InsertUsuario cria a conta; e-mail duplicado vira ErrEmailTaken.
func (q *Queries) InsertUsuario(ctx context.Context, arg InsertUsuarioParams) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `
        INSERT INTO usuarios (id, nome, email, telefone, senha_hash, papel, ativo)
        VALUES ($1, $2, $3, $4, $5, $6, TRUE)
        RETURNING `+usuarioColumns+`
    `,
		arg.ID,
		strings.TrimSpace(arg.Nome),
		strings.ToLower(strings.TrimSpace(arg.Email)),
		strings.TrimSpace(arg.Telefone),
		arg.SenhaHash,
		arg.Papel,
	)

	user, err := scanUsuario(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Usuario{}, ErrEmailTaken
		}
		return Usuario{}, err
	}
	return user, nil
}

// UpdateUsuario altera nome e telefone.
func (q *Queries) UpdateUsuario(ctx context.Context, id uuid.UUID, nome, telefone string) error {
	cmd, err := q.pool.Exec(ctx, `
        UPDATE usuarios SET nome = $2, telefone = $3 WHERE id = $1
    `, id, strings.TrimSpace(nome), strings.TrimSpace(telefone))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRefreshTokenByHash localiza refresh token pelo hash.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (TokenRefresh, error) {
	var t TokenRefresh
	err := q.pool.QueryRow(ctx, `
        SELECT id, subject, audience, token_hash, expiracao, criado_em, revogado
        FROM tokens_refresh
        WHERE token_hash = $1
    `, tokenHash).Scan(&t.ID, &t.Subject, &t.Audience, &t.TokenHash, &t.Expiracao, &t.CriadoEm, &t.Revogado)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TokenRefresh{}, ErrNotFound
		}
		return TokenRefresh{}, err
	}
	return t, nil
}

// RotateRefreshToken insere o novo token e revoga os demais do mesmo
// subject/audience em uma única transação.
func (q *Queries) RotateRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) error {
	return db.WithTx(ctx, q.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            INSERT INTO tokens_refresh (id, subject, audience, token_hash, expiracao, criado_em, revogado)
            VALUES ($1, $2, $3, $4, $5, $6, FALSE)
        `, arg.ID, arg.Subject, arg.Audience, arg.TokenHash, arg.Expiracao, arg.CriadoEm); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
            UPDATE tokens_refresh
            SET revogado = TRUE
            WHERE subject = $1 AND audience = $2 AND token_hash <> $3 AND NOT revogado
        `, arg.Subject, arg.Audience, arg.TokenHash)
		return err
	})
}

// RevokeRefreshToken marca o token como revogado.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	cmd, err := q.pool.Exec(ctx, `
        UPDATE tokens_refresh SET revogado = TRUE WHERE token_hash = $1
    `, tokenHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.Telefone, &u.SenhaHash, &u.Papel, &u.Ativo, &u.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}
