package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/agendamento/internal/auth"
	"github.com/gestaozabele/agendamento/internal/repo"
)

type stubIdentityRepo struct {
	usuarios map[uuid.UUID]repo.Usuario
	tokens   map[string]repo.TokenRefresh
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{
		usuarios: make(map[uuid.UUID]repo.Usuario),
		tokens:   make(map[string]repo.TokenRefresh),
	}
}

func (s *stubIdentityRepo) GetUsuarioByEmail(_ context.Context, email string) (repo.Usuario, error) {
	for _, u := range s.usuarios {
		if u.Email == email {
			return u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubIdentityRepo) GetUsuarioByID(_ context.Context, id uuid.UUID) (repo.Usuario, error) {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.Usuario{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubIdentityRepo) InsertUsuario(_ context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error) {
	for _, u := range s.usuarios {
		if u.Email == arg.Email {
			return repo.Usuario{}, repo.ErrEmailTaken
		}
	}
	u := repo.Usuario{
		ID:        arg.ID,
		Nome:      arg.Nome,
		Email:     arg.Email,
		Telefone:  arg.Telefone,
		SenhaHash: arg.SenhaHash,
		Papel:     arg.Papel,
		Ativo:     true,
		CriadoEm:  time.Now().UTC(),
	}
	s.usuarios[u.ID] = u
	return u, nil
}

func (s *stubIdentityRepo) GetRefreshTokenByHash(_ context.Context, tokenHash string) (repo.TokenRefresh, error) {
	t, ok := s.tokens[tokenHash]
	if !ok {
		return repo.TokenRefresh{}, repo.ErrNotFound
	}
	return t, nil
}

func (s *stubIdentityRepo) RotateRefreshToken(_ context.Context, arg repo.InsertRefreshTokenParams) error {
	for hash, t := range s.tokens {
		if t.Subject == arg.Subject && t.Audience == arg.Audience && hash != arg.TokenHash {
			t.Revogado = true
			s.tokens[hash] = t
		}
	}
	s.tokens[arg.TokenHash] = repo.TokenRefresh{
		ID:        arg.ID,
		Subject:   arg.Subject,
		Audience:  arg.Audience,
		TokenHash: arg.TokenHash,
		Expiracao: arg.Expiracao,
		CriadoEm:  arg.CriadoEm,
	}
	return nil
}

func (s *stubIdentityRepo) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	t, ok := s.tokens[tokenHash]
	if !ok {
		return repo.ErrNotFound
	}
	t.Revogado = true
	s.tokens[tokenHash] = t
	return nil
}

type stubRedis struct {
	values map[string]string
}

func newStubRedis() *stubRedis {
	return &stubRedis{values: make(map[string]string)}
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	s.values[key] = value.(string)
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if val, ok := s.values[key]; ok {
		cmd.SetVal(val)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var removed int64
	for _, key := range keys {
		if _, ok := s.values[key]; ok {
			delete(s.values, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func newTestAuthService() (*AuthService, *stubIdentityRepo, *stubRedis) {
	identities := newStubIdentityRepo()
	redisStub := newStubRedis()
	jwtMgr := auth.NewJWTManager("chave-super-secreta-para-testes-234567", 15*time.Minute)
	return NewAuthService(identities, redisStub, jwtMgr, 24*time.Hour), identities, redisStub
}

func seedUsuario(t *testing.T, identities *stubIdentityRepo, papel, email, senha string, ativo bool) repo.Usuario {
	t.Helper()
	hash, err := auth.HashPassword(senha)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := repo.Usuario{
		ID:        uuid.New(),
		Nome:      "Conta de Teste",
		Email:     email,
		Telefone:  "(89) 99999-0000",
		SenhaHash: hash,
		Papel:     papel,
		Ativo:     ativo,
		CriadoEm:  time.Now().UTC(),
	}
	identities.usuarios[u.ID] = u
	return u
}

func TestRegisterCriaCidadao(t *testing.T) {
	svc, identities, _ := newTestAuthService()

	result, err := svc.Register(context.Background(), RegisterInput{
		Nome:     "Maria Silva",
		Email:    "maria@example.com",
		Telefone: "(89) 99999-0000",
		Senha:    "senha-forte-1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if result.Audience != AudienceCidadao {
		t.Fatalf("expected cidadao audience got %s", result.Audience)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("expected issued tokens")
	}
	if result.Profile.Papel != repo.PapelCidadao {
		t.Fatalf("expected CIDADAO got %s", result.Profile.Papel)
	}

	stored, err := identities.GetUsuarioByID(context.Background(), result.Subject)
	if err != nil {
		t.Fatalf("stored account: %v", err)
	}
	if stored.SenhaHash == "senha-forte-1" {
		t.Fatal("password must be stored hashed")
	}

	if _, err := svc.Register(context.Background(), RegisterInput{
		Nome:     "Outra Maria",
		Email:    "maria@example.com",
		Telefone: "(89) 98888-0000",
		Senha:    "senha-forte-2",
	}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken got %v", err)
	}
}

func TestRegisterValidaEntrada(t *testing.T) {
	svc, _, _ := newTestAuthService()

	if _, err := svc.Register(context.Background(), RegisterInput{
		Nome: "Maria", Email: "sem-arroba", Telefone: "(89) 99999-0000", Senha: "senha-forte-1",
	}); err == nil {
		t.Fatal("expected error for invalid email")
	}
	if _, err := svc.Register(context.Background(), RegisterInput{
		Nome: "Maria", Email: "maria@example.com", Telefone: "(89) 99999-0000", Senha: "curta",
	}); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestLoginCidadao(t *testing.T) {
	svc, identities, _ := newTestAuthService()
	seedUsuario(t, identities, repo.PapelCidadao, "maria@example.com", "senha-forte-1", true)

	if _, err := svc.LoginCidadao(context.Background(), "maria@example.com", "senha-forte-1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.LoginCidadao(context.Background(), "maria@example.com", "senha-errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials got %v", err)
	}
	if _, err := svc.LoginCidadao(context.Background(), "ninguem@example.com", "senha-forte-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials got %v", err)
	}
}

func TestLoginAudienceEnforcement(t *testing.T) {
	svc, identities, _ := newTestAuthService()
	seedUsuario(t, identities, repo.PapelCidadao, "cidadao@example.com", "senha-forte-1", true)
	seedUsuario(t, identities, repo.PapelAtendente, "balcao@example.com", "senha-forte-1", true)

	if _, err := svc.LoginBackoffice(context.Background(), "cidadao@example.com", "senha-forte-1"); !errors.Is(err, ErrForbiddenAudience) {
		t.Fatalf("expected ErrForbiddenAudience got %v", err)
	}
	if _, err := svc.LoginCidadao(context.Background(), "balcao@example.com", "senha-forte-1"); !errors.Is(err, ErrForbiddenAudience) {
		t.Fatalf("expected ErrForbiddenAudience got %v", err)
	}

	result, err := svc.LoginBackoffice(context.Background(), "balcao@example.com", "senha-forte-1")
	if err != nil {
		t.Fatalf("backoffice login: %v", err)
	}
	if len(result.Roles) != 1 || result.Roles[0] != repo.PapelAtendente {
		t.Fatalf("unexpected roles %v", result.Roles)
	}
}

func TestLoginContaDesativada(t *testing.T) {
	svc, identities, _ := newTestAuthService()
	seedUsuario(t, identities, repo.PapelCidadao, "inativa@example.com", "senha-forte-1", false)

	if _, err := svc.LoginCidadao(context.Background(), "inativa@example.com", "senha-forte-1"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled got %v", err)
	}
}

func TestRefreshRotaciona(t *testing.T) {
	svc, identities, _ := newTestAuthService()
	seedUsuario(t, identities, repo.PapelCidadao, "maria@example.com", "senha-forte-1", true)

	session, err := svc.LoginCidadao(context.Background(), "maria@example.com", "senha-forte-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	renewed, err := svc.Refresh(context.Background(), AudienceCidadao, session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if renewed.RefreshToken == session.RefreshToken {
		t.Fatal("expected rotated refresh token")
	}

	// o token antigo foi revogado pela rotação
	if _, err := svc.Refresh(context.Background(), AudienceCidadao, session.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid got %v", err)
	}

	// audience divergente não renova
	if _, err := svc.Refresh(context.Background(), AudienceBackoffice, renewed.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid got %v", err)
	}
}

func TestLogoutRevoga(t *testing.T) {
	svc, identities, _ := newTestAuthService()
	seedUsuario(t, identities, repo.PapelCidadao, "maria@example.com", "senha-forte-1", true)

	session, err := svc.LoginCidadao(context.Background(), "maria@example.com", "senha-forte-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), AudienceCidadao, session.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), AudienceCidadao, session.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("expected ErrRefreshInvalid got %v", err)
	}
}

func TestGetMe(t *testing.T) {
	svc, identities, _ := newTestAuthService()
	user := seedUsuario(t, identities, repo.PapelAdmin, "admin@example.com", "senha-forte-1", true)

	profile, roles, err := svc.GetMe(context.Background(), AudienceBackoffice, user.ID)
	if err != nil {
		t.Fatalf("getme: %v", err)
	}
	if profile.Email != "admin@example.com" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if len(roles) != 1 || roles[0] != repo.PapelAdmin {
		t.Fatalf("unexpected roles %v", roles)
	}

	if _, _, err := svc.GetMe(context.Background(), AudienceCidadao, user.ID); !errors.Is(err, ErrForbiddenAudience) {
		t.Fatalf("expected ErrForbiddenAudience got %v", err)
	}
}
