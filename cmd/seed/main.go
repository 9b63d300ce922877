package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/agendamento/internal/auth"
	"github.com/gestaozabele/agendamento/internal/db"
	"github.com/gestaozabele/agendamento/internal/repo"
	"github.com/gestaozabele/agendamento/internal/util"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	queries := repo.New(pool)

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "create":
		if err := runCreate(ctx, queries, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao criar usuário")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "seed CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  seed create --nome \"Maria Silva\" --email maria@zabele.pi.gov.br --senha segredo123 --papel ATENDENTE")
	fmt.Fprintln(os.Stderr, "  seed create --nome \"João Souza\" --email joao@zabele.pi.gov.br --senha segredo123 --papel ADMIN")
}

func runCreate(ctx context.Context, queries *repo.Queries, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		nome     = fs.String("nome", "", "nome completo")
		email    = fs.String("email", "", "e-mail de acesso")
		telefone = fs.String("telefone", "", "telefone de contato (opcional)")
		senha    = fs.String("senha", "", "senha inicial")
		papel    = fs.String("papel", repo.PapelAtendente, "papel do usuário (ATENDENTE ou ADMIN)")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *nome == "" || *email == "" || *senha == "" {
		return errors.New("nome, email e senha são obrigatórios")
	}

	papelNorm := strings.ToUpper(strings.TrimSpace(*papel))
	if papelNorm != repo.PapelAtendente && papelNorm != repo.PapelAdmin {
		return fmt.Errorf("papel %q não suportado", *papel)
	}

	if err := util.ValidateEmail(*email); err != nil {
		return err
	}
	if err := util.ValidatePassword(*senha); err != nil {
		return err
	}

	hash, err := auth.HashPassword(*senha)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	usuario, err := queries.InsertUsuario(ctx, repo.InsertUsuarioParams{
		ID:        uuid.New(),
		Nome:      strings.TrimSpace(*nome),
		Email:     strings.ToLower(strings.TrimSpace(*email)),
		Telefone:  strings.TrimSpace(*telefone),
		SenhaHash: hash,
		Papel:     papelNorm,
	})
	if err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return errors.New("e-mail já cadastrado")
		}
		return err
	}

	output, _ := json.MarshalIndent(map[string]any{
		"id":    usuario.ID,
		"nome":  usuario.Nome,
		"email": usuario.Email,
		"papel": usuario.Papel,
	}, "", "  ")
	fmt.Println(string(output))
	return nil
}
