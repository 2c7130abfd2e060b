package gabinete

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureGabinetes() []Gabinete {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	nomes := []struct {
		nome     string
		vereador string
		status   string
	}{
		{"Gabinete Centro", "Carlos Lima", StatusAtivo},
		{"Gabinete Zona Norte", "Ana Braga", StatusPendente},
		{"Gabinete Rural", "Beatriz Melo", StatusAtivo},
	}
	out := make([]Gabinete, 0, len(nomes))
	for i, n := range nomes {
		out = append(out, Gabinete{
			ID:         uuid.New(),
			Nome:       n.nome,
			Vereador:   n.vereador,
			Municipio:  "Zabelê",
			AdminNome:  "Admin " + n.nome,
			AdminEmail: fmt.Sprintf("admin%d@zabele.pb.gov.br", i),
			Status:     n.status,
			CriadoEm:   base.Add(time.Duration(i) * time.Hour),
		})
	}
	return out
}

func TestListViewFiltrosNeutrosPreservamOrdem(t *testing.T) {
	gabinetes := fixtureGabinetes()
	state := NewViewState().WithBusca("").WithStatus(StatusTodos)
	state.OrdenarPor = OrdenarCriadoEm

	result := ListView(gabinetes, state)
	require.Equal(t, len(gabinetes), result.Total)
	for i := range gabinetes {
		assert.Equal(t, gabinetes[i].ID, result.Itens[i].ID, "ordem de entrada preservada")
	}
}

func TestListViewBuscaOR(t *testing.T) {
	gabinetes := fixtureGabinetes()

	// casa pelo vereador
	result := ListView(gabinetes, NewViewState().WithBusca("braga"))
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "Gabinete Zona Norte", result.Itens[0].Nome)

	// casa pelo e-mail do administrador
	result = ListView(gabinetes, NewViewState().WithBusca("admin0@"))
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "Gabinete Centro", result.Itens[0].Nome)

	// casa pelo município em todos
	result = ListView(gabinetes, NewViewState().WithBusca("ZABELÊ"))
	assert.Equal(t, 3, result.Total)
}

func TestListViewFiltroStatusPreservaOrdemRelativa(t *testing.T) {
	gabinetes := fixtureGabinetes()
	state := NewViewState().WithStatus(StatusAtivo)
	state.OrdenarPor = OrdenarCriadoEm

	result := ListView(gabinetes, state)
	require.Equal(t, 2, result.Total)
	assert.Equal(t, "Gabinete Centro", result.Itens[0].Nome)
	assert.Equal(t, "Gabinete Rural", result.Itens[1].Nome)
}

func TestListViewOrdenacaoToggle(t *testing.T) {
	gabinetes := fixtureGabinetes()

	state := NewViewState().WithOrdenacao(OrdenarVereador)
	assert.Equal(t, DirecaoAsc, state.Direcao, "campo novo começa ascendente")
	asc := ListView(gabinetes, state)

	state = state.WithOrdenacao(OrdenarVereador)
	assert.Equal(t, DirecaoDesc, state.Direcao, "reselecionar inverte")
	desc := ListView(gabinetes, state)

	require.Equal(t, len(asc.Itens), len(desc.Itens))
	for i := range asc.Itens {
		assert.Equal(t, asc.Itens[i].ID, desc.Itens[len(desc.Itens)-1-i].ID, "ordem exatamente invertida")
	}

	state = state.WithOrdenacao(OrdenarNome)
	assert.Equal(t, DirecaoAsc, state.Direcao, "campo novo volta ao ascendente")
	assert.Equal(t, OrdenarNome, state.OrdenarPor)
}

func TestListViewPaginacao(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	gabinetes := make([]Gabinete, 0, 25)
	for i := 0; i < 25; i++ {
		gabinetes = append(gabinetes, Gabinete{
			ID:       uuid.New(),
			Nome:     fmt.Sprintf("Gabinete %02d", i+1),
			Status:   StatusAtivo,
			CriadoEm: base.Add(time.Duration(i) * time.Minute),
		})
	}

	state := NewViewState() // tamanho padrão 10
	p1 := ListView(gabinetes, state)
	assert.Equal(t, 25, p1.Total)
	assert.Equal(t, 3, p1.TotalPages)
	require.Len(t, p1.Itens, 10)
	assert.Equal(t, "Gabinete 01", p1.Itens[0].Nome)
	assert.Equal(t, "Gabinete 10", p1.Itens[9].Nome)

	p3 := ListView(gabinetes, state.WithPagina(3))
	require.Len(t, p3.Itens, 5)
	assert.Equal(t, "Gabinete 21", p3.Itens[0].Nome)
	assert.Equal(t, "Gabinete 25", p3.Itens[4].Nome)
}

func TestViewStateResetDePagina(t *testing.T) {
	state := NewViewState().WithPagina(4)

	assert.Equal(t, 1, state.WithBusca("x").Pagina)
	assert.Equal(t, 1, state.WithStatus(StatusAtivo).Pagina)
	assert.Equal(t, 1, state.WithOrdenacao(OrdenarStatus).Pagina)
	assert.Equal(t, 1, state.WithTamanho(20).Pagina)
	assert.Equal(t, 4, state.Pagina, "estado é imutável")
}

func TestViewStateTamanhoInvalidoCaiNoPadrao(t *testing.T) {
	state := NewViewState().WithTamanho(7)
	assert.Equal(t, 10, state.Tamanho)

	state = state.WithTamanho(50)
	assert.Equal(t, 50, state.Tamanho)
}

func TestPaddingClass(t *testing.T) {
	assert.Equal(t, "py-2 px-3", PaddingClass(DensidadeCompacta))
	assert.Equal(t, "py-3 px-4", PaddingClass(DensidadeNormal))
	assert.Equal(t, "py-5 px-6", PaddingClass(DensidadeEspacosa))
	assert.Equal(t, "py-3 px-4", PaddingClass("qualquer"))
}
