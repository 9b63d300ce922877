package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/agendamento/internal/auth"
	"github.com/gestaozabele/agendamento/internal/repo"
	"github.com/gestaozabele/agendamento/internal/util"
)

const (
	// AudienceCidadao identifica sessões do portal do cidadão.
	AudienceCidadao = "cidadao"
	// AudienceBackoffice identifica sessões da equipe de balcão/administração.
	AudienceBackoffice = "backoffice"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
	// ErrEmailTaken indica cadastro com e-mail já utilizado.
	ErrEmailTaken = errors.New("e-mail já cadastrado")
	// ErrForbiddenAudience indica papel incompatível com a audience.
	ErrForbiddenAudience = errors.New("conta sem acesso a essa área")
)

type identityRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id uuid.UUID) (repo.Usuario, error)
	InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.TokenRefresh, error)
	RotateRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra regras de autenticação e sessões. O portal usa
// credenciais reais (argon2id + JWT + refresh rotativo); o cadastro público
// sempre cria contas CIDADAO — atendentes e administradores são
// provisionados pelo cmd/seed.
type AuthService struct {
	repo       identityRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(r identityRepository, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: r, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	Audience      string
	AccessToken   string
	RefreshToken  string
	Subject       uuid.UUID
	Roles         []string
	Profile       *Profile
	RefreshExpiry time.Time
}

// Profile descreve a conta autenticada.
type Profile struct {
	ID       string `json:"id"`
	Nome     string `json:"nome"`
	Email    string `json:"email"`
	Telefone string `json:"telefone"`
	Papel    string `json:"papel"`
}

// RegisterInput encapsula o cadastro de cidadão.
type RegisterInput struct {
	Nome     string
	Email    string
	Telefone string
	Senha    string
}

// Register cria conta de cidadão e abre sessão.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, err
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if err := util.ValidatePhone(input.Telefone); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Senha)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.InsertUsuario(ctx, repo.InsertUsuarioParams{
		ID:        uuid.New(),
		Nome:      input.Nome,
		Email:     input.Email,
		Telefone:  input.Telefone,
		SenhaHash: hash,
		Papel:     repo.PapelCidadao,
	})
	if err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.openSession(ctx, user, AudienceCidadao)
}

// LoginCidadao autentica o portal do cidadão.
func (s *AuthService) LoginCidadao(ctx context.Context, email, senha string) (*LoginResult, error) {
	return s.login(ctx, email, senha, AudienceCidadao)
}

// LoginBackoffice autentica atendentes e administradores.
func (s *AuthService) LoginBackoffice(ctx context.Context, email, senha string) (*LoginResult, error) {
	return s.login(ctx, email, senha, AudienceBackoffice)
}

func (s *AuthService) login(ctx context.Context, email, senha, audience string) (*LoginResult, error) {
	user, err := s.repo.GetUsuarioByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Str("audience", audience).Msg("login: conta não encontrada")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(senha, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificação de senha falhou")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Str("audience", audience).Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, user, audience)
}

func (s *AuthService) openSession(ctx context.Context, user repo.Usuario, audience string) (*LoginResult, error) {
	if !user.Ativo {
		return nil, ErrAccountDisabled
	}

	roles, err := rolesFor(user.Papel, audience)
	if err != nil {
		return nil, err
	}

	token, _, err := s.jwt.GenerateAccessToken(user.ID.String(), audience, roles)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().UTC().Add(s.refreshTTL)
	if err := s.persistRefresh(ctx, user.ID, audience, refreshHash, expires); err != nil {
		return nil, err
	}

	return &LoginResult{
		Audience:      audience,
		AccessToken:   token,
		RefreshToken:  rawRefresh,
		Subject:       user.ID,
		Roles:         roles,
		Profile:       profileOf(user),
		RefreshExpiry: expires,
	}, nil
}

// Refresh troca refresh token por novos tokens (rotação).
func (s *AuthService) Refresh(ctx context.Context, audience, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	record, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if record.Revogado || time.Now().UTC().After(record.Expiracao) || record.Audience != audience {
		return nil, ErrRefreshInvalid
	}

	redisKey := auth.RefreshRedisKey(audience, hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, ErrRefreshInvalid
	}

	user, err := s.repo.GetUsuarioByID(ctx, record.Subject)
	if err != nil {
		return nil, err
	}

	result, err := s.openSession(ctx, user, audience)
	if err != nil {
		return nil, err
	}

	// Revoga o token anterior (DB + Redis)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return result, nil
}

// Logout revoga o refresh token atual.
func (s *AuthService) Logout(ctx context.Context, audience, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(rawToken)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	redisKey := auth.RefreshRedisKey(audience, hash)
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// GetMe retorna perfil e papéis para subject/audience.
func (s *AuthService) GetMe(ctx context.Context, audience string, subject uuid.UUID) (*Profile, []string, error) {
	user, err := s.repo.GetUsuarioByID(ctx, subject)
	if err != nil {
		return nil, nil, err
	}

	roles, err := rolesFor(user.Papel, audience)
	if err != nil {
		return nil, nil, err
	}

	return profileOf(user), roles, nil
}

func (s *AuthService) persistRefresh(ctx context.Context, subject uuid.UUID, audience, hash string, expires time.Time) error {
	err := s.repo.RotateRefreshToken(ctx, repo.InsertRefreshTokenParams{
		ID:        uuid.New(),
		Subject:   subject,
		Audience:  audience,
		TokenHash: hash,
		Expiracao: expires,
		CriadoEm:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.redis.Set(ctx, auth.RefreshRedisKey(audience, hash), "active", time.Until(expires)).Err()
}

// rolesFor garante que o papel da conta é elegível para a audience.
func rolesFor(papel, audience string) ([]string, error) {
	papel = strings.ToUpper(strings.TrimSpace(papel))

	switch audience {
	case AudienceCidadao:
		if papel != repo.PapelCidadao {
			return nil, ErrForbiddenAudience
		}
		return []string{repo.PapelCidadao}, nil
	case AudienceBackoffice:
		switch papel {
		case repo.PapelAtendente, repo.PapelAdmin:
			return []string{papel}, nil
		}
		return nil, ErrForbiddenAudience
	default:
		return nil, ErrRefreshInvalid
	}
}

func profileOf(user repo.Usuario) *Profile {
	return &Profile{
		ID:       user.ID.String(),
		Nome:     user.Nome,
		Email:    user.Email,
		Telefone: user.Telefone,
		Papel:    user.Papel,
	}
}
