package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaogabinete/gabinete/internal/auth"
)

func protectedHandler(manager *auth.JWTManager) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetSubject(r.Context())))
	})
	return Auth(manager)(RequireRoles("gabinete")(ok))
}

func TestAuthInjetaSubjectERoles(t *testing.T) {
	manager := auth.NewJWTManager("segredo-de-teste", time.Minute)
	token, err := manager.GenerateAccessToken("gab-1", []string{"gabinete"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedHandler(manager).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gab-1", rec.Body.String())
}

func TestAuthRejeitaTokenAusenteOuDeOutroSegredo(t *testing.T) {
	manager := auth.NewJWTManager("segredo-de-teste", time.Minute)
	h := protectedHandler(manager)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	outro := auth.NewJWTManager("outro-segredo", time.Minute)
	token, err := outro.GenerateAccessToken("gab-1", []string{"gabinete"})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRolesBloqueiaTokenSemPapel(t *testing.T) {
	manager := auth.NewJWTManager("segredo-de-teste", time.Minute)
	token, err := manager.GenerateAccessToken("gab-1", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protectedHandler(manager).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
