package pessoa

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaogabinete/gabinete/internal/audit"
)

type stubStore struct {
	pessoas map[string]Pessoa
}

func newStubStore() *stubStore {
	return &stubStore{pessoas: map[string]Pessoa{}}
}

func (s *stubStore) Insert(_ context.Context, p Pessoa) error {
	s.pessoas[p.ID.String()] = p
	return nil
}

func (s *stubStore) Update(_ context.Context, p Pessoa) error {
	if _, ok := s.pessoas[p.ID.String()]; !ok {
		return ErrNotFound
	}
	s.pessoas[p.ID.String()] = p
	return nil
}

func (s *stubStore) GetByID(_ context.Context, id string) (*Pessoa, error) {
	p, ok := s.pessoas[id]
	if !ok || p.RemovidoEm != nil {
		return nil, nil
	}
	copia := p
	return &copia, nil
}

func (s *stubStore) GetAny(_ context.Context, id string) (*Pessoa, error) {
	p, ok := s.pessoas[id]
	if !ok {
		return nil, nil
	}
	copia := p
	return &copia, nil
}

func (s *stubStore) List(_ context.Context) ([]Pessoa, error) {
	out := make([]Pessoa, 0, len(s.pessoas))
	for _, p := range s.pessoas {
		if p.RemovidoEm == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestService() (*Service, *stubStore, *audit.MemStore) {
	store := newStubStore()
	trilha := audit.NewMemStore()
	return NewService(store, audit.NewService(trilha)), store, trilha
}

func TestCreateValidacao(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	futuro := time.Now().Add(48 * time.Hour)

	casos := []struct {
		nome  string
		input CreateInput
	}{
		{"nome curto", CreateInput{Nome: "J"}},
		{"email inválido", CreateInput{Nome: "João Silva", Email: "joao@"}},
		{"nascimento no futuro", CreateInput{Nome: "João Silva", Nascimento: &futuro}},
	}
	for _, caso := range casos {
		t.Run(caso.nome, func(t *testing.T) {
			_, err := svc.Create(ctx, caso.input, "user-1", audit.RequestInfo{})
			assert.ErrorIs(t, err, ErrValidacao)
		})
	}
}

func TestCreateRegistraAuditoria(t *testing.T) {
	svc, _, trilha := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Nome: "Maria Souza", Email: "maria@exemplo.com"}, "user-1", audit.RequestInfo{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Maria Souza", p.Nome)
	assert.False(t, p.CriadoEm.IsZero())

	require.Equal(t, 1, trilha.Len())
	logs, total, err := trilha.List(ctx, audit.Filter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, audit.ActionCreate, logs[0].Action)
	assert.Equal(t, audit.ResourcePerson, logs[0].ResourceType)
	assert.Equal(t, p.ID.String(), logs[0].ResourceID)
	assert.Equal(t, "10.0.0.1", logs[0].IPAddress)
}

func TestUpdateParcial(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Nome: "Maria Souza", Cidade: "Zabelê"}, "user-1", audit.RequestInfo{})
	require.NoError(t, err)

	novoNome := "Maria S. Lima"
	atualizado, err := svc.Update(ctx, p.ID.String(), UpdateInput{Nome: &novoNome}, "user-2", audit.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, "Maria S. Lima", atualizado.Nome)
	assert.Equal(t, "Zabelê", atualizado.Cidade, "campos nil não mudam")
	assert.Equal(t, "user-2", atualizado.AtualizadoPor)
}

func TestDeleteLogico(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Nome: "Pedro Alves"}, "user-1", audit.RequestInfo{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, p.ID.String(), "user-1", audit.RequestInfo{}))

	oculto, err := svc.GetByID(ctx, p.ID.String())
	require.NoError(t, err)
	assert.Nil(t, oculto, "removido não aparece em consultas normais")

	bruto, err := store.GetAny(ctx, p.ID.String())
	require.NoError(t, err)
	require.NotNil(t, bruto, "registro preservado para a trilha")
	assert.NotNil(t, bruto.RemovidoEm)

	assert.ErrorIs(t, svc.Delete(ctx, p.ID.String(), "user-1", audit.RequestInfo{}), ErrNotFound)
}

func TestSearchFiltroOrdenacaoPaginacao(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	nomes := []string{"Ângela Dias", "Bruno Costa", "ana clara", "Carlos Eduardo"}
	for _, nome := range nomes {
		_, err := svc.Create(ctx, CreateInput{Nome: nome, Cidade: "Zabelê", Estado: "PB"}, "user-1", audit.RequestInfo{})
		require.NoError(t, err)
	}

	result, err := svc.Search(ctx, SearchFilter{Estado: "pb", OrdenarPor: "nome"}, "user-1", audit.RequestInfo{})
	require.NoError(t, err)
	require.Equal(t, 4, result.Total)
	// colação pt-BR ignora caixa e trata acentos
	assert.Equal(t, "ana clara", result.Pessoas[0].Nome)
	assert.Equal(t, "Ângela Dias", result.Pessoas[1].Nome)

	result, err = svc.Search(ctx, SearchFilter{OrdenarPor: "nome", Direcao: "desc", Limit: 2, Offset: 2}, "user-1", audit.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	require.Len(t, result.Pessoas, 2)
	assert.Equal(t, "Ângela Dias", result.Pessoas[0].Nome)

	result, err = svc.Search(ctx, SearchFilter{Nome: "ANA"}, "user-1", audit.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	_, err = svc.Create(ctx, CreateInput{Nome: "Paula Mendes", Cidade: "São Paulo", Estado: "SP"}, "user-1", audit.RequestInfo{})
	require.NoError(t, err)

	// cidade filtra por substring, sem diferenciar caixa
	result, err = svc.Search(ctx, SearchFilter{Cidade: "são"}, "user-1", audit.RequestInfo{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, "Paula Mendes", result.Pessoas[0].Nome)
}

func TestAddInteracao(t *testing.T) {
	svc, _, trilha := newTestService()
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{Nome: "Maria Souza"}, "user-1", audit.RequestInfo{})
	require.NoError(t, err)

	_, err = svc.AddInteracao(ctx, p.ID.String(), InteracaoInput{Tipo: "telegrama", Titulo: "x"}, "user-1", audit.RequestInfo{})
	assert.ErrorIs(t, err, ErrValidacao)

	inter, err := svc.AddInteracao(ctx, p.ID.String(), InteracaoInput{
		Tipo:   TipoAtendimento,
		Titulo: "Pedido de poda de árvore",
		Status: StatusConcluido,
	}, "user-1", audit.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, PrioridadeNormal, inter.Prioridade, "prioridade padrão")
	require.NotNil(t, inter.ConcluidaEm, "concluído carimba a conclusão")

	recarregada, err := svc.GetByID(ctx, p.ID.String())
	require.NoError(t, err)
	require.Len(t, recarregada.Interacoes, 1)

	logs, _, err := trilha.List(ctx, audit.Filter{ResourceType: audit.ResourceInteraction})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ActionCreate, logs[0].Action)
}

func TestExportMascaraDados(t *testing.T) {
	svc, _, trilha := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		Nome:        "Maria Souza",
		CPF:         "12345678909",
		Email:       "maria@exemplo.com",
		Observacoes: "informação sigilosa",
	}, "user-1", audit.RequestInfo{})
	require.NoError(t, err)

	out, err := svc.Export(ctx, SearchFilter{}, FormatCSV, "user-1", audit.RequestInfo{})
	require.NoError(t, err)
	csv := string(out)
	assert.Contains(t, csv, "123.***.**-09")
	assert.NotContains(t, csv, "12345678909")
	assert.NotContains(t, csv, "informação sigilosa")

	_, err = svc.Export(ctx, SearchFilter{}, "xml", "user-1", audit.RequestInfo{})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	logs, _, err := trilha.List(ctx, audit.Filter{Action: audit.ActionExport})
	require.NoError(t, err)
	require.Len(t, logs, 1)
}
