// Package service reúne serviços de aplicação que orquestram mais de um
// domínio. Hoje contém apenas a autenticação de gabinetes.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaogabinete/gabinete/internal/audit"
	"github.com/gestaogabinete/gabinete/internal/auth"
	"github.com/gestaogabinete/gabinete/internal/db"
	"github.com/gestaogabinete/gabinete/internal/gabinete"
	"github.com/gestaogabinete/gabinete/internal/util"
)

// execer cobre pool e transação para as escritas de refresh token.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrCredenciaisInvalidas cobre usuário desconhecido, senha errada e
// credencial desativada, sem distinguir o caso para o chamador.
var ErrCredenciaisInvalidas = errors.New("credenciais inválidas")

// TokenPair é o resultado de um login ou refresh bem-sucedido.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthService autentica gabinetes e gerencia tokens de acesso e
// refresh. Refresh tokens são rotativos: cada uso emite um novo e
// revoga o anterior.
type AuthService struct {
	store      gabinete.Store
	pool       *pgxpool.Pool
	redis      *redis.Client
	jwt        *auth.JWTManager
	accessTTL  time.Duration
	refreshTTL time.Duration
	auditoria  *audit.Service
}

// NewAuthService cria o serviço de autenticação.
func NewAuthService(store gabinete.Store, pool *pgxpool.Pool, redisClient *redis.Client, jwtManager *auth.JWTManager, accessTTL, refreshTTL time.Duration, auditoria *audit.Service) *AuthService {
	return &AuthService{
		store:      store,
		pool:       pool,
		redis:      redisClient,
		jwt:        jwtManager,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		auditoria:  auditoria,
	}
}

// Login autentica por username ou e-mail e emite o par de tokens.
func (s *AuthService) Login(ctx context.Context, login, senha string, req audit.RequestInfo) (*TokenPair, error) {
	c, err := s.store.GetCredenciaisByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("consultar credenciais: %w", err)
	}
	if c == nil || !c.IsActive {
		return nil, ErrCredenciaisInvalidas
	}

	ok, err := auth.Verify(senha, c.SenhaHash)
	if err != nil {
		return nil, fmt.Errorf("verificar senha: %w", err)
	}
	if !ok {
		return nil, ErrCredenciaisInvalidas
	}

	pair, err := s.issueTokens(ctx, s.pool, c)
	if err != nil {
		return nil, err
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       c.GabineteID.String(),
		Action:       audit.ActionLogin,
		ResourceType: audit.ResourceUser,
		ResourceID:   c.ID.String(),
		Details:      fmt.Sprintf("Login do gabinete via %s", c.Username),
	}, req)
	return pair, nil
}

// Refresh troca um refresh token válido por um novo par, revogando o
// token usado.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*TokenPair, error) {
	hash := auth.HashRefreshToken(rawRefresh)
	key := auth.RefreshKey(hash)

	// o banco é a fonte da verdade; o redis só acelera a negativa
	if _, err := s.redis.Get(ctx, key).Result(); errors.Is(err, redis.Nil) {
		log.Ctx(ctx).Debug().Msg("refresh token ausente no redis, validando no banco")
	}

	var gabineteID, credencialID string
	err := s.pool.QueryRow(ctx, `
        SELECT c.gabinete_id, c.id
          FROM refresh_tokens t
          JOIN gabinete_credenciais c ON c.id = t.credencial_id
         WHERE t.token_hash = $1 AND t.revogado_em IS NULL AND t.expira_em > NOW()
    `, hash).Scan(&gabineteID, &credencialID)
	if err != nil {
		return nil, auth.ErrInvalidRefresh
	}

	c, err := s.store.GetCredenciaisByGabinete(ctx, gabineteID)
	if err != nil {
		return nil, fmt.Errorf("consultar credenciais: %w", err)
	}
	if c == nil || !c.IsActive || c.ID.String() != credencialID {
		return nil, auth.ErrInvalidRefresh
	}

	// revogação do token usado e emissão do novo na mesma transação
	var pair *TokenPair
	err = db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.revoke(ctx, tx, hash, key); err != nil {
			return err
		}
		pair, err = s.issueTokens(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revoga o refresh token apresentado.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string, req audit.RequestInfo) error {
	hash := auth.HashRefreshToken(rawRefresh)
	key := auth.RefreshKey(hash)

	var gabineteID string
	err := s.pool.QueryRow(ctx, `
        SELECT c.gabinete_id
          FROM refresh_tokens t
          JOIN gabinete_credenciais c ON c.id = t.credencial_id
         WHERE t.token_hash = $1 AND t.revogado_em IS NULL
    `, hash).Scan(&gabineteID)
	if err != nil {
		return auth.ErrInvalidRefresh
	}

	if err := s.revoke(ctx, s.pool, hash, key); err != nil {
		return err
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       gabineteID,
		Action:       audit.ActionLogout,
		ResourceType: audit.ResourceUser,
		Details:      "Logout do gabinete",
	}, req)
	return nil
}

// GetMe devolve o gabinete dono do token apresentado.
func (s *AuthService) GetMe(ctx context.Context, gabineteID string) (*gabinete.Gabinete, error) {
	g, err := s.store.GetByID(ctx, gabineteID)
	if err != nil {
		return nil, fmt.Errorf("consultar gabinete: %w", err)
	}
	if g == nil {
		return nil, gabinete.ErrNotFound
	}
	return g, nil
}

func (s *AuthService) issueTokens(ctx context.Context, q execer, c *gabinete.Credenciais) (*TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(c.GabineteID.String(), []string{"gabinete"})
	if err != nil {
		return nil, fmt.Errorf("emitir access token: %w", err)
	}

	rawRefresh, hashedRefresh, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("emitir refresh token: %w", err)
	}

	agora := util.Now()
	expiraEm := agora.Add(s.refreshTTL)
	_, err = q.Exec(ctx, `
        INSERT INTO refresh_tokens (id, credencial_id, token_hash, audience, expira_em, criado_em)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, uuid.New(), c.ID, hashedRefresh, auth.Audience, expiraEm, agora)
	if err != nil {
		return nil, fmt.Errorf("registrar refresh token: %w", err)
	}

	key := auth.RefreshKey(hashedRefresh)
	if err := s.redis.Set(ctx, key, c.ID.String(), s.refreshTTL).Err(); err != nil {
		// o redis é um acelerador; o registro no banco continua valendo
		log.Ctx(ctx).Warn().Err(err).Msg("falha ao marcar refresh token no redis")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: rawRefresh,
		ExpiresAt:    agora.Add(s.accessTTL),
	}, nil
}

func (s *AuthService) revoke(ctx context.Context, q execer, hash, key string) error {
	_, err := q.Exec(ctx, `
        UPDATE refresh_tokens SET revogado_em = NOW()
         WHERE token_hash = $1 AND revogado_em IS NULL
    `, hash)
	if err != nil {
		return fmt.Errorf("revogar refresh token: %w", err)
	}
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("falha ao remover refresh token do redis")
	}
	return nil
}
