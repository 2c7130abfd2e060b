package pessoa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaogabinete/gabinete/internal/audit"
)

func newTestRouter(t *testing.T) (chi.Router, *Service) {
	t.Helper()
	svc, _, _ := newTestService()
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	return r, svc
}

func TestHandleGetInexistenteDevolve404(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/pessoas/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestHandleGetRemovidaDevolve404(t *testing.T) {
	r, svc := newTestRouter(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Nome: "Maria Souza"}, "user-1", audit.RequestInfo{})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, p.ID.String(), "user-1", audit.RequestInfo{}))

	req := httptest.NewRequest(http.MethodGet, "/pessoas/"+p.ID.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCreateEGet(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{"nome":"João Silva","cidade":"Zabelê","estado":"PB"}`
	req := httptest.NewRequest(http.MethodPost, "/pessoas", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data Pessoa `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	req = httptest.NewRequest(http.MethodGet, "/pessoas/"+created.Data.ID.String(), nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
