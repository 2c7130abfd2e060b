package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestaogabinete/gabinete/internal/auth"
	"github.com/gestaogabinete/gabinete/internal/config"
	httpmiddleware "github.com/gestaogabinete/gabinete/internal/http/middleware"
)

// RouterDeps agrupa o que o roteador precisa para montar a API. Os
// handlers de domínio entram como registradores de rota para manter
// este pacote isolado dos pacotes de domínio.
type RouterDeps struct {
	Config     *config.Config
	Pool       *pgxpool.Pool
	JWTManager *auth.JWTManager

	// PublicRoutes registra rotas sem autenticação (login, refresh).
	PublicRoutes []func(chi.Router)
	// PrivateRoutes registra rotas atrás do JWT.
	PrivateRoutes []func(chi.Router)
}

// NewRouter monta o roteador com grupos público e privado.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(deps.Config.AllowOrigins))

	publicLimiter := httpmiddleware.NewRateLimiter(
		deps.Config.RateLimitPublic.RequestsPerSecond,
		deps.Config.RateLimitPublic.Burst,
	)
	authLimiter := httpmiddleware.NewRateLimiter(
		deps.Config.RateLimitAuth.RequestsPerSecond,
		deps.Config.RateLimitAuth.Burst,
	)

	r.Group(func(r chi.Router) {
		r.Use(httpmiddleware.IPRateLimit(publicLimiter))

		r.Get("/health", handleHealth)
		r.Get("/ready", handleReady(deps.Pool))
		for _, register := range deps.PublicRoutes {
			register(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(httpmiddleware.Auth(deps.JWTManager))
		r.Use(httpmiddleware.UserRateLimit(authLimiter))

		for _, register := range deps.PrivateRoutes {
			register(r)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "banco indisponível", nil)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "pronto"})
	}
}
