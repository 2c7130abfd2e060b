package gabinete

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaogabinete/gabinete/internal/audit"
	"github.com/gestaogabinete/gabinete/internal/auth"
	"github.com/gestaogabinete/gabinete/internal/util"
)

// Mural publica mensagens automáticas no mural do gabinete. Implementado
// pelo serviço de mensagens; o serviço funciona sem mural (nil).
type Mural interface {
	SendStatusChange(ctx context.Context, gabineteID, from, to, userID, userName string, req audit.RequestInfo) error
}

// Service concentra as regras de cadastro, ciclo de vida e credenciais
// de gabinetes.
type Service struct {
	store     Store
	auditoria *audit.Service
	mural     Mural
}

// NewService cria o serviço de gabinetes.
func NewService(store Store, auditoria *audit.Service, mural Mural) *Service {
	return &Service{store: store, auditoria: auditoria, mural: mural}
}

// Create cadastra um gabinete. Nome, vereador e município são
// obrigatórios; o status inicial é pendente quando omitido.
func (s *Service) Create(ctx context.Context, input CreateInput, userID string, req audit.RequestInfo) (*Gabinete, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}
	if err := util.RequireString(input.Vereador, "vereador"); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}
	if err := util.RequireString(input.Municipio, "municipio"); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}
	if input.Email != "" {
		if err := util.ValidateEmail(input.Email); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
		}
	}
	if input.AdminEmail != "" {
		if err := util.ValidateEmail(input.AdminEmail); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
		}
	}
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status == "" {
		status = StatusPendente
	}
	if !IsValidStatus(status) {
		return nil, fmt.Errorf("%w: status desconhecido", ErrValidacao)
	}

	agora := util.Now()
	g := Gabinete{
		ID:           uuid.New(),
		Nome:         strings.TrimSpace(input.Nome),
		Vereador:     strings.TrimSpace(input.Vereador),
		Municipio:    strings.TrimSpace(input.Municipio),
		Endereco:     strings.TrimSpace(input.Endereco),
		Cidade:       strings.TrimSpace(input.Cidade),
		Estado:       strings.ToUpper(strings.TrimSpace(input.Estado)),
		CEP:          strings.TrimSpace(input.CEP),
		Telefone:     strings.TrimSpace(input.Telefone),
		Email:        strings.TrimSpace(input.Email),
		Site:         strings.TrimSpace(input.Site),
		Instagram:    strings.TrimSpace(input.Instagram),
		Facebook:     strings.TrimSpace(input.Facebook),
		AdminNome:    strings.TrimSpace(input.AdminNome),
		AdminEmail:   strings.TrimSpace(input.AdminEmail),
		Status:       status,
		CriadoEm:     agora,
		AtualizadoEm: agora,
	}
	if err := s.store.Insert(ctx, g); err != nil {
		return nil, err
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionCreate,
		ResourceType: audit.ResourceCabinet,
		ResourceID:   g.ID.String(),
		Details:      fmt.Sprintf("Gabinete cadastrado: %s (%s)", g.Nome, g.Municipio),
	}, req)
	return &g, nil
}

// Update aplica atualização parcial de dados cadastrais. Status tem
// fluxo próprio em ChangeStatus.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput, userID string, req audit.RequestInfo) (*Gabinete, error) {
	g, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotFound
	}

	if input.Nome != nil {
		if err := util.RequireString(*input.Nome, "nome"); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
		}
		g.Nome = strings.TrimSpace(*input.Nome)
	}
	if input.Vereador != nil {
		if err := util.RequireString(*input.Vereador, "vereador"); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
		}
		g.Vereador = strings.TrimSpace(*input.Vereador)
	}
	if input.Municipio != nil {
		if err := util.RequireString(*input.Municipio, "municipio"); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
		}
		g.Municipio = strings.TrimSpace(*input.Municipio)
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email != "" {
			if err := util.ValidateEmail(email); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
			}
		}
		g.Email = email
	}
	if input.AdminEmail != nil {
		email := strings.TrimSpace(*input.AdminEmail)
		if email != "" {
			if err := util.ValidateEmail(email); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
			}
		}
		g.AdminEmail = email
	}
	if input.Endereco != nil {
		g.Endereco = strings.TrimSpace(*input.Endereco)
	}
	if input.Cidade != nil {
		g.Cidade = strings.TrimSpace(*input.Cidade)
	}
	if input.Estado != nil {
		g.Estado = strings.ToUpper(strings.TrimSpace(*input.Estado))
	}
	if input.CEP != nil {
		g.CEP = strings.TrimSpace(*input.CEP)
	}
	if input.Telefone != nil {
		g.Telefone = strings.TrimSpace(*input.Telefone)
	}
	if input.Site != nil {
		g.Site = strings.TrimSpace(*input.Site)
	}
	if input.Instagram != nil {
		g.Instagram = strings.TrimSpace(*input.Instagram)
	}
	if input.Facebook != nil {
		g.Facebook = strings.TrimSpace(*input.Facebook)
	}
	if input.AdminNome != nil {
		g.AdminNome = strings.TrimSpace(*input.AdminNome)
	}

	g.AtualizadoEm = util.Now()
	if err := s.store.Update(ctx, *g); err != nil {
		return nil, err
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionUpdate,
		ResourceType: audit.ResourceCabinet,
		ResourceID:   g.ID.String(),
		Details:      fmt.Sprintf("Gabinete atualizado: %s", g.Nome),
	}, req)
	return g, nil
}

// GetByID devolve o gabinete ou nil quando inexistente.
func (s *Service) GetByID(ctx context.Context, id string) (*Gabinete, error) {
	return s.store.GetByID(ctx, id)
}

// List devolve todos os gabinetes na ordem de cadastro.
func (s *Service) List(ctx context.Context) ([]Gabinete, error) {
	return s.store.List(ctx)
}

// ChangeStatus muda o status do gabinete, registra a transição na
// trilha e publica a mensagem automática no mural. Falha no mural não
// desfaz a mudança.
func (s *Service) ChangeStatus(ctx context.Context, id, novoStatus, userID, userName string, req audit.RequestInfo) (*Gabinete, error) {
	novoStatus = strings.ToLower(strings.TrimSpace(novoStatus))
	if !IsValidStatus(novoStatus) {
		return nil, fmt.Errorf("%w: status desconhecido", ErrValidacao)
	}

	g, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotFound
	}
	if g.Status == novoStatus {
		return g, nil
	}

	anterior := g.Status
	g.Status = novoStatus
	g.AtualizadoEm = util.Now()
	if err := s.store.Update(ctx, *g); err != nil {
		return nil, err
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionStatusChange,
		ResourceType: audit.ResourceCabinet,
		ResourceID:   g.ID.String(),
		Details:      fmt.Sprintf("Status alterado de %q para %q", anterior, novoStatus),
	}, req)

	if s.mural != nil {
		if err := s.mural.SendStatusChange(ctx, g.ID.String(), anterior, novoStatus, userID, userName, req); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("gabinete_id", g.ID.String()).
				Msg("falha ao publicar mensagem de status no mural")
		}
	}
	return g, nil
}

// Delete remove o gabinete em definitivo. A remoção exige confirmação
// explícita do chamador.
func (s *Service) Delete(ctx context.Context, id string, confirmado bool, userID string, req audit.RequestInfo) error {
	if !confirmado {
		return fmt.Errorf("%w: remoção exige confirmação explícita", ErrValidacao)
	}

	g, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if g == nil {
		return ErrNotFound
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionDelete,
		ResourceType: audit.ResourceCabinet,
		ResourceID:   id,
		Details:      fmt.Sprintf("Gabinete removido: %s", g.Nome),
	}, req)
	return nil
}

// SetCredenciais cria ou substitui as credenciais de acesso do
// gabinete. A senha entra pelo mesmo fluxo de validação da troca.
func (s *Service) SetCredenciais(ctx context.Context, gabineteID string, input CredenciaisInput, userID string, req audit.RequestInfo) (*Credenciais, error) {
	g, err := s.store.GetByID(ctx, gabineteID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotFound
	}
	if err := util.RequireString(input.Username, "username"); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}
	if err := util.ValidatePasswordStrength(input.Senha); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}

	hash, err := auth.Hash(input.Senha)
	if err != nil {
		return nil, fmt.Errorf("gerar hash de senha: %w", err)
	}

	agora := util.Now()
	c := Credenciais{
		ID:                 uuid.New(),
		GabineteID:         g.ID,
		Username:           strings.TrimSpace(input.Username),
		Email:              strings.TrimSpace(input.Email),
		SenhaHash:          hash,
		LastPasswordChange: &agora,
		IsActive:           true,
		CriadoEm:           agora,
		AtualizadoEm:       agora,
	}

	existente, err := s.store.GetCredenciaisByGabinete(ctx, gabineteID)
	if err != nil {
		return nil, err
	}
	if existente != nil {
		c.ID = existente.ID
		c.CriadoEm = existente.CriadoEm
		if err := s.store.UpdateCredenciais(ctx, c); err != nil {
			return nil, err
		}
	} else if err := s.store.InsertCredenciais(ctx, c); err != nil {
		return nil, err
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionCredentialsSuccess,
		ResourceType: audit.ResourceCredentials,
		ResourceID:   g.ID.String(),
		Details:      fmt.Sprintf("Credenciais definidas para %s", g.Nome),
	}, req)

	c.SenhaHash = ""
	return &c, nil
}

// RotateSenha troca a senha do gabinete. A tentativa é auditada antes
// da validação; o desfecho (sucesso ou erro) também.
func (s *Service) RotateSenha(ctx context.Context, gabineteID, novaSenha, userID string, req audit.RequestInfo) error {
	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionCredentialsAttempt,
		ResourceType: audit.ResourceCredentials,
		ResourceID:   gabineteID,
		Details:      "Tentativa de troca de senha",
	}, req)

	c, err := s.store.GetCredenciaisByGabinete(ctx, gabineteID)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNotFound
	}

	if err := util.ValidatePasswordStrength(novaSenha); err != nil {
		s.auditoria.Record(ctx, audit.Entry{
			UserID:       userID,
			Action:       audit.ActionCredentialsError,
			ResourceType: audit.ResourceCredentials,
			ResourceID:   gabineteID,
			Details:      fmt.Sprintf("Troca de senha rejeitada: %s", err.Error()),
		}, req)
		return fmt.Errorf("%w: %s", ErrValidacao, err.Error())
	}

	hash, err := auth.Hash(novaSenha)
	if err != nil {
		return fmt.Errorf("gerar hash de senha: %w", err)
	}

	agora := util.Now()
	c.SenhaHash = hash
	c.LastPasswordChange = &agora
	c.AtualizadoEm = agora
	if err := s.store.UpdateCredenciais(ctx, *c); err != nil {
		return err
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionCredentialsSuccess,
		ResourceType: audit.ResourceCredentials,
		ResourceID:   gabineteID,
		Details:      "Senha trocada com sucesso",
	}, req)
	return nil
}

// GetCredenciais devolve as credenciais do gabinete sem o hash.
func (s *Service) GetCredenciais(ctx context.Context, gabineteID string) (*Credenciais, error) {
	c, err := s.store.GetCredenciaisByGabinete(ctx, gabineteID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	c.SenhaHash = ""
	return c, nil
}

// ExportCSV gera a planilha de gabinetes e registra a exportação.
func (s *Service) ExportCSV(ctx context.Context, state ViewState, userID string, req audit.RequestInfo) ([]byte, error) {
	gabinetes, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	// exporta o conjunto filtrado completo, sem paginação
	state.Pagina = 1
	state.Tamanho = len(gabinetes) + 1
	completo := ListView(gabinetes, state)

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write([]string{"ID", "Nome", "Vereador", "Município", "Status", "Administrador", "E-mail do Administrador", "Cadastro"}); err != nil {
		return nil, err
	}
	for _, g := range completo.Itens {
		if err := w.Write([]string{
			g.ID.String(), g.Nome, g.Vereador, g.Municipio, g.Status,
			g.AdminNome, g.AdminEmail, g.CriadoEm.Format(time.RFC3339),
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionExport,
		ResourceType: audit.ResourceCabinet,
		Details:      fmt.Sprintf("Exportação de gabinetes: %d registro(s)", len(completo.Itens)),
	}, req)
	return []byte(sb.String()), nil
}
