package gabinete

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (chi.Router, *Service) {
	t.Helper()
	svc, _, _, _ := newTestService()
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	return r, svc
}

func TestHandleCreateEGet(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{"nome":"Gabinete Centro","vereador":"Carlos Lima","municipio":"Zabelê"}`
	req := httptest.NewRequest(http.MethodPost, "/gabinetes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data Gabinete `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, StatusPendente, created.Data.Status)

	req = httptest.NewRequest(http.MethodGet, "/gabinetes/"+created.Data.ID.String(), nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleCreateInvalido(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/gabinetes", strings.NewReader(`{"vereador":"Carlos"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION", resp.Error.Code)
}

func TestHandleListComFiltros(t *testing.T) {
	r, svc := newTestRouter(t)
	ctx := context.Background()

	for _, g := range fixtureGabinetes() {
		require.NoError(t, svc.store.Insert(ctx, g))
	}

	req := httptest.NewRequest(http.MethodGet, "/gabinetes?status=ativo&ordenar_por=vereador&tamanho=5", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data ViewResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Total)
	require.Len(t, resp.Data.Itens, 2)
	assert.Equal(t, "Beatriz Melo", resp.Data.Itens[0].Vereador)
}

func TestHandleDeleteSemConfirmacao(t *testing.T) {
	r, svc := newTestRouter(t)
	g := criaGabinete(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/gabinetes/"+g.ID.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/gabinetes/"+g.ID.String()+"?confirmar=true", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleExportCSV(t *testing.T) {
	r, svc := newTestRouter(t)
	criaGabinete(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/gabinetes/export", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Body.String(), "Gabinete Centro")
}
