package gabinete

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaogabinete/gabinete/internal/audit"
	"github.com/gestaogabinete/gabinete/internal/auth"
)

type statusCall struct {
	From, To string
}

type muralSpy struct {
	chamadas []statusCall
	falha    error
}

func (m *muralSpy) SendStatusChange(_ context.Context, _, from, to, _, _ string, _ audit.RequestInfo) error {
	if m.falha != nil {
		return m.falha
	}
	m.chamadas = append(m.chamadas, statusCall{From: from, To: to})
	return nil
}

func newTestService() (*Service, *MemStore, *audit.MemStore, *muralSpy) {
	store := NewMemStore()
	trilha := audit.NewMemStore()
	mural := &muralSpy{}
	return NewService(store, audit.NewService(trilha), mural), store, trilha, mural
}

func criaGabinete(t *testing.T, svc *Service) *Gabinete {
	t.Helper()
	g, err := svc.Create(context.Background(), CreateInput{
		Nome:      "Gabinete Centro",
		Vereador:  "Carlos Lima",
		Municipio: "Zabelê",
	}, "admin-1", audit.RequestInfo{})
	require.NoError(t, err)
	return g
}

func TestCreateValidacao(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Vereador: "Carlos", Municipio: "Zabelê"}, "admin-1", audit.RequestInfo{})
	assert.ErrorIs(t, err, ErrValidacao, "nome obrigatório")

	_, err = svc.Create(ctx, CreateInput{Nome: "G", Vereador: "C", Municipio: "Z", Status: "suspenso"}, "admin-1", audit.RequestInfo{})
	assert.ErrorIs(t, err, ErrValidacao, "status desconhecido")

	g, err := svc.Create(ctx, CreateInput{Nome: "G", Vereador: "C", Municipio: "Z"}, "admin-1", audit.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, StatusPendente, g.Status, "status inicial padrão")
}

func TestChangeStatusAuditaEPublicaNoMural(t *testing.T) {
	svc, _, trilha, mural := newTestService()
	ctx := context.Background()
	g := criaGabinete(t, svc)

	atualizado, err := svc.ChangeStatus(ctx, g.ID.String(), StatusAtivo, "admin-1", "Ana", audit.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, StatusAtivo, atualizado.Status)

	logs, _, err := trilha.List(ctx, audit.Filter{Action: audit.ActionStatusChange})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Details, `"pendente"`)
	assert.Contains(t, logs[0].Details, `"ativo"`)

	require.Len(t, mural.chamadas, 1)
	assert.Equal(t, "pendente", mural.chamadas[0].From)
	assert.Equal(t, "ativo", mural.chamadas[0].To)
}

func TestChangeStatusMesmoStatusNaoAudita(t *testing.T) {
	svc, _, trilha, mural := newTestService()
	ctx := context.Background()
	g := criaGabinete(t, svc)

	_, err := svc.ChangeStatus(ctx, g.ID.String(), StatusPendente, "admin-1", "Ana", audit.RequestInfo{})
	require.NoError(t, err)

	logs, _, err := trilha.List(ctx, audit.Filter{Action: audit.ActionStatusChange})
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Empty(t, mural.chamadas)
}

func TestChangeStatusFalhaNoMuralNaoDesfaz(t *testing.T) {
	svc, store, _, mural := newTestService()
	ctx := context.Background()
	g := criaGabinete(t, svc)
	mural.falha = assert.AnError

	_, err := svc.ChangeStatus(ctx, g.ID.String(), StatusInativo, "admin-1", "Ana", audit.RequestInfo{})
	require.NoError(t, err, "falha no mural não propaga")

	persistido, err := store.GetByID(ctx, g.ID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusInativo, persistido.Status)
}

func TestDeleteExigeConfirmacao(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	g := criaGabinete(t, svc)

	err := svc.Delete(ctx, g.ID.String(), false, "admin-1", audit.RequestInfo{})
	assert.ErrorIs(t, err, ErrValidacao)

	persistido, err := store.GetByID(ctx, g.ID.String())
	require.NoError(t, err)
	assert.NotNil(t, persistido)

	require.NoError(t, svc.Delete(ctx, g.ID.String(), true, "admin-1", audit.RequestInfo{}))
	removido, err := store.GetByID(ctx, g.ID.String())
	require.NoError(t, err)
	assert.Nil(t, removido)
}

func TestSetCredenciais(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	g := criaGabinete(t, svc)

	_, err := svc.SetCredenciais(ctx, g.ID.String(), CredenciaisInput{
		Username: "gabinete.centro",
		Email:    "centro@zabele.pb.gov.br",
		Senha:    "fraca",
	}, "admin-1", audit.RequestInfo{})
	assert.ErrorIs(t, err, ErrValidacao, "senha fraca rejeitada")

	c, err := svc.SetCredenciais(ctx, g.ID.String(), CredenciaisInput{
		Username: "gabinete.centro",
		Email:    "centro@zabele.pb.gov.br",
		Senha:    "SenhaForte123",
	}, "admin-1", audit.RequestInfo{})
	require.NoError(t, err)
	assert.Empty(t, c.SenhaHash, "hash não sai da camada de serviço")
	assert.True(t, c.IsActive)
	assert.False(t, c.CriadoEm.IsZero())
	assert.False(t, c.AtualizadoEm.IsZero())

	bruto, err := store.GetCredenciaisByLogin(ctx, "GABINETE.CENTRO")
	require.NoError(t, err)
	require.NotNil(t, bruto)
	ok, err := auth.Verify("SenhaForte123", bruto.SenhaHash)
	require.NoError(t, err)
	assert.True(t, ok, "hash verifica com a senha original")

	// redefinir preserva a data de criação original
	atualizado, err := svc.SetCredenciais(ctx, g.ID.String(), CredenciaisInput{
		Username: "gabinete.centro",
		Email:    "centro@zabele.pb.gov.br",
		Senha:    "OutraSenha456",
	}, "admin-1", audit.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, c.CriadoEm, atualizado.CriadoEm)
}

func TestRotateSenhaFluxoAuditado(t *testing.T) {
	svc, _, trilha, _ := newTestService()
	ctx := context.Background()
	g := criaGabinete(t, svc)

	_, err := svc.SetCredenciais(ctx, g.ID.String(), CredenciaisInput{
		Username: "gabinete.centro",
		Email:    "centro@zabele.pb.gov.br",
		Senha:    "SenhaForte123",
	}, "admin-1", audit.RequestInfo{})
	require.NoError(t, err)

	err = svc.RotateSenha(ctx, g.ID.String(), "semdigito", "admin-1", audit.RequestInfo{})
	assert.ErrorIs(t, err, ErrValidacao)

	tentativas, _, err := trilha.List(ctx, audit.Filter{Action: audit.ActionCredentialsAttempt})
	require.NoError(t, err)
	assert.Len(t, tentativas, 1, "tentativa auditada antes da validação")

	erros, _, err := trilha.List(ctx, audit.Filter{Action: audit.ActionCredentialsError})
	require.NoError(t, err)
	assert.Len(t, erros, 1)

	require.NoError(t, svc.RotateSenha(ctx, g.ID.String(), "NovaSenha456", "admin-1", audit.RequestInfo{}))

	sucessos, _, err := trilha.List(ctx, audit.Filter{Action: audit.ActionCredentialsSuccess})
	require.NoError(t, err)
	// SetCredenciais também registra sucesso
	assert.Len(t, sucessos, 2)
}
