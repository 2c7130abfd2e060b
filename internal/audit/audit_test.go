package audit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPreencheCamposGerados(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	ctx := context.Background()

	svc.Record(ctx, Entry{
		UserID:       "user-1",
		Action:       " CREATE ",
		ResourceType: "Person",
		ResourceID:   "p-1",
	}, RequestInfo{IPAddress: "10.0.0.1", UserAgent: "cli/1.0"})

	logs, total, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	e := logs[0]
	assert.NotEqual(t, "", e.ID.String())
	assert.Equal(t, ActionCreate, e.Action, "ação normalizada")
	assert.Equal(t, ResourcePerson, e.ResourceType)
	assert.Equal(t, "10.0.0.1", e.IPAddress)
	assert.Equal(t, "cli/1.0", e.UserAgent)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestRecordDescartaAcaoDesconhecida(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	ctx := context.Background()

	svc.Record(ctx, Entry{UserID: "user-1", Action: "truncate", ResourceType: ResourcePerson}, RequestInfo{})
	svc.Record(ctx, Entry{UserID: "user-1", Action: ActionCreate, ResourceType: "planeta"}, RequestInfo{})

	assert.Equal(t, 0, store.Len())
}

func TestRecordEngoleFalhaDeEscrita(t *testing.T) {
	store := NewMemStore()
	store.FailWith(assert.AnError)
	svc := NewService(store)

	// não deve entrar em pânico nem propagar erro
	svc.Record(context.Background(), Entry{
		UserID:       "user-1",
		Action:       ActionCreate,
		ResourceType: ResourcePerson,
	}, RequestInfo{})

	assert.Equal(t, 0, store.Len())
}

func TestRetencaoDescartaOsMaisAntigos(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 1001; i++ {
		require.NoError(t, store.Insert(ctx, Entry{
			UserID:       "user-1",
			Action:       ActionCreate,
			ResourceType: ResourcePerson,
			Details:      "entrada",
			CreatedAt:    base.Add(time.Duration(i) * time.Second),
		}))
	}

	assert.Equal(t, 1000, store.Len())
	oldest, ok := store.Oldest()
	require.True(t, ok)
	assert.Equal(t, base.Add(1*time.Second), oldest.CreatedAt, "a entrada mais antiga foi descartada")
}

func TestListFiltrosEPaginacao(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	acoes := []string{ActionCreate, ActionUpdate, ActionCreate, ActionDelete, ActionCreate}
	for i, acao := range acoes {
		require.NoError(t, store.Insert(ctx, Entry{
			UserID:       "user-1",
			Action:       acao,
			ResourceType: ResourcePerson,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}))
	}

	page, err := svc.List(ctx, Filter{Action: ActionCreate})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Logs, 3)
	assert.True(t, page.Logs[0].CreatedAt.After(page.Logs[1].CreatedAt), "descendente por data")

	inicio := base.Add(90 * time.Minute)
	page, err = svc.List(ctx, Filter{StartDate: &inicio})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	page, err = svc.List(ctx, Filter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Logs, 1)
}

func TestListSemResultadosDevolveListaVazia(t *testing.T) {
	svc := NewService(NewMemStore())

	page, err := svc.List(context.Background(), Filter{UserID: "ninguem"})
	require.NoError(t, err)
	assert.NotNil(t, page.Logs)
	assert.Empty(t, page.Logs)
	assert.Equal(t, 0, page.Total)
}

func TestExportCSVEscapaCampos(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, Entry{
		UserID:       "user-1",
		Action:       ActionUpdate,
		ResourceType: ResourcePerson,
		Details:      `campo com "aspas", e vírgula`,
		CreatedAt:    time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}))

	out, err := svc.Export(ctx, Filter{}, FormatCSV)
	require.NoError(t, err)
	csv := string(out)
	assert.True(t, strings.HasPrefix(csv, "ID,"), "cabeçalho na primeira linha")
	assert.Contains(t, csv, `"campo com ""aspas"", e vírgula"`, "aspas dobradas no escape")
}

func TestExportJSONIgnoraPaginacao(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		require.NoError(t, store.Insert(ctx, Entry{
			UserID:       "user-1",
			Action:       ActionCreate,
			ResourceType: ResourcePerson,
			CreatedAt:    time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	out, err := svc.Export(ctx, Filter{Limit: 10, Offset: 5}, FormatJSON)
	require.NoError(t, err)

	var logs []Entry
	require.NoError(t, json.Unmarshal(out, &logs))
	assert.Len(t, logs, 60, "exportação cobre o conjunto filtrado completo")

	_, err = svc.Export(ctx, Filter{}, "xml")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestListRejeitaFiltroForaDoVocabulario(t *testing.T) {
	svc := NewService(NewMemStore())
	ctx := context.Background()

	_, err := svc.List(ctx, Filter{Action: "format_disk"})
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = svc.List(ctx, Filter{ResourceType: "planeta"})
	assert.ErrorIs(t, err, ErrInvalidResource)

	_, err = svc.Export(ctx, Filter{Action: "format_disk"}, FormatCSV)
	assert.ErrorIs(t, err, ErrInvalidAction)
}
