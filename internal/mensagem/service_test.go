package mensagem

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaogabinete/gabinete/internal/audit"
	"github.com/gestaogabinete/gabinete/internal/storage"
)

type stubUploader struct {
	uploads []storage.UploadInput
}

func (s *stubUploader) Upload(_ context.Context, input storage.UploadInput) (*storage.UploadResult, error) {
	s.uploads = append(s.uploads, input)
	return &storage.UploadResult{URL: "https://cdn.exemplo.gov.br/" + input.Key}, nil
}

func newTestService() (*Service, *MemStore, *audit.MemStore) {
	store := NewMemStore()
	trilha := audit.NewMemStore()
	return NewService(store, &stubUploader{}, audit.NewService(trilha)), store, trilha
}

func TestSendValidacao(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Send(ctx, SendInput{GabineteID: "não-é-uuid", Conteudo: "olá"}, "user-1", "Ana", audit.RequestInfo{})
	assert.ErrorIs(t, err, ErrValidacao)

	_, err = svc.Send(ctx, SendInput{GabineteID: uuid.NewString(), Conteudo: "   "}, "user-1", "Ana", audit.RequestInfo{})
	assert.ErrorIs(t, err, ErrValidacao, "mensagem sem conteúdo nem anexo")
}

func TestSendResumoNaAuditoria(t *testing.T) {
	svc, _, trilha := newTestService()
	ctx := context.Background()
	gabineteID := uuid.NewString()

	longa := strings.Repeat("a", 60)
	m, err := svc.Send(ctx, SendInput{GabineteID: gabineteID, Conteudo: longa}, "user-1", "Ana", audit.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, longa, m.Conteudo, "conteúdo completo é persistido")

	logs, total, err := trilha.List(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, audit.ActionCreate, logs[0].Action)
	assert.Equal(t, audit.ResourceCabinet, logs[0].ResourceType)
	assert.Equal(t, gabineteID, logs[0].ResourceID)
	assert.Contains(t, logs[0].Details, strings.Repeat("a", 50)+"...")
	assert.NotContains(t, logs[0].Details, strings.Repeat("a", 51))
}

func TestSendResumoCurtoSemReticencias(t *testing.T) {
	svc, _, trilha := newTestService()
	ctx := context.Background()

	_, err := svc.Send(ctx, SendInput{GabineteID: uuid.NewString(), Conteudo: "curta"}, "user-1", "Ana", audit.RequestInfo{})
	require.NoError(t, err)

	logs, _, err := trilha.List(ctx, audit.Filter{})
	require.NoError(t, err)
	assert.Contains(t, logs[0].Details, "curta")
	assert.NotContains(t, logs[0].Details, "...")
}

func TestListEnvelopePaginado(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	gabineteID := uuid.NewString()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		require.NoError(t, svc.store.Insert(ctx, Mensagem{
			ID:         uuid.New(),
			GabineteID: uuid.MustParse(gabineteID),
			Conteudo:   "mensagem",
			Anexos:     []Anexo{},
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := svc.List(ctx, ListFilter{GabineteID: gabineteID, Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Messages, 5)

	page, err = svc.List(ctx, ListFilter{GabineteID: gabineteID})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page, "página padrão")
	assert.Len(t, page.Messages, 20, "limite padrão")
}

func TestDelete(t *testing.T) {
	svc, store, trilha := newTestService()
	ctx := context.Background()

	m := Mensagem{ID: uuid.New(), GabineteID: uuid.New(), Conteudo: "x", Anexos: []Anexo{}, Timestamp: time.Now()}
	require.NoError(t, store.Insert(ctx, m))

	require.NoError(t, svc.Delete(ctx, m.ID.String(), "user-1", audit.RequestInfo{}))
	assert.ErrorIs(t, svc.Delete(ctx, m.ID.String(), "user-1", audit.RequestInfo{}), ErrNotFound)

	logs, _, err := trilha.List(ctx, audit.Filter{Action: audit.ActionDelete})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ResourceMessage, logs[0].ResourceType)
}

func TestUploadAnexoClassificaTipo(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	anexo, err := svc.UploadAnexo(ctx, "oficio.pdf", "application/pdf", []byte("%PDF"), 0)
	require.NoError(t, err)
	assert.Equal(t, AnexoArquivo, anexo.Tipo)
	assert.Equal(t, int64(4), anexo.Tamanho)
	assert.Zero(t, anexo.Duracao)

	audio, err := svc.UploadAnexo(ctx, "nota.webm", "audio/webm", []byte("dados"), 12.5)
	require.NoError(t, err)
	assert.Equal(t, AnexoAudio, audio.Tipo)
	assert.Equal(t, 12.5, audio.Duracao)
}
