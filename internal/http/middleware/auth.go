package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gestaogabinete/gabinete/internal/auth"
)

type contextKey string

const (
	contextKeySubject contextKey = "subject"
	contextKeyRoles   contextKey = "roles"
)

// Auth valida o JWT de acesso e injeta gabinete e papéis no contexto.
// Audiência e expiração já são conferidas pelo JWTManager.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, contextKeyRoles, claims.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera o gabinete autenticado do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(contextKeySubject).(string)
	return val
}

// GetRoles recupera os papéis da credencial autenticada.
func GetRoles(ctx context.Context) []string {
	val, _ := ctx.Value(contextKeyRoles).([]string)
	return val
}

// RequireRoles exige pelo menos um dos papéis informados. Usado nas
// rotas de credenciais, que não aceitam tokens sem papel atribuído.
func RequireRoles(requiredRoles ...string) func(http.Handler) http.Handler {
	normalized := make([]string, 0, len(requiredRoles))
	for _, role := range requiredRoles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			normalized = append(normalized, role)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, role := range GetRoles(r.Context()) {
				role = strings.ToLower(strings.TrimSpace(role))
				for _, required := range normalized {
					if role == required {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
