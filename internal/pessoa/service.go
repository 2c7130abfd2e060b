package pessoa

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/gestaogabinete/gabinete/internal/audit"
	"github.com/gestaogabinete/gabinete/internal/lgpd"
	"github.com/gestaogabinete/gabinete/internal/util"
)

const defaultSearchLimit = 20

// Formatos de exportação aceitos.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ErrInvalidFormat indica formato de exportação desconhecido.
var ErrInvalidFormat = errors.New("formato de exportação inválido")

// Service concentra as regras de negócio de pessoas e interações.
// Toda operação relevante gera entrada na trilha de auditoria.
type Service struct {
	store     Store
	auditoria *audit.Service
	collator  *collate.Collator
}

// NewService cria o serviço de pessoas.
func NewService(store Store, auditoria *audit.Service) *Service {
	return &Service{
		store:     store,
		auditoria: auditoria,
		collator:  collate.New(language.BrazilianPortuguese, collate.IgnoreCase),
	}
}

// Create cadastra uma pessoa. Nome com ao menos dois caracteres é
// obrigatório; e-mail e data de nascimento são validados quando presentes.
func (s *Service) Create(ctx context.Context, input CreateInput, userID string, req audit.RequestInfo) (*Pessoa, error) {
	nome := strings.TrimSpace(input.Nome)
	if len([]rune(nome)) < 2 {
		return nil, fmt.Errorf("%w: nome deve ter ao menos 2 caracteres", ErrValidacao)
	}
	if input.Email != "" {
		if err := util.ValidateEmail(input.Email); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
		}
	}
	if input.Nascimento != nil {
		if err := util.ValidateBirthDate(*input.Nascimento); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
		}
	}

	agora := util.Now()
	p := Pessoa{
		ID:             uuid.New(),
		Nome:           nome,
		Email:          strings.TrimSpace(input.Email),
		Telefone:       strings.TrimSpace(input.Telefone),
		WhatsApp:       strings.TrimSpace(input.WhatsApp),
		CPF:            strings.TrimSpace(input.CPF),
		RG:             strings.TrimSpace(input.RG),
		Nascimento:     input.Nascimento,
		Endereco:       strings.TrimSpace(input.Endereco),
		Cidade:         strings.TrimSpace(input.Cidade),
		Estado:         strings.ToUpper(strings.TrimSpace(input.Estado)),
		Relacionamento: strings.TrimSpace(input.Relacionamento),
		Observacoes:    input.Observacoes,
		Interacoes:     []Interacao{},
		CriadoEm:       agora,
		AtualizadoEm:   agora,
		CriadoPor:      userID,
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("inserir pessoa: %w", err)
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionCreate,
		ResourceType: audit.ResourcePerson,
		ResourceID:   p.ID.String(),
		Details:      fmt.Sprintf("Pessoa cadastrada: %s", p.Nome),
	}, req)
	return &p, nil
}

// Update aplica atualização parcial; campos nil permanecem como estão.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput, userID string, req audit.RequestInfo) (*Pessoa, error) {
	atual, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if atual == nil {
		return nil, ErrNotFound
	}

	if input.Nome != nil {
		nome := strings.TrimSpace(*input.Nome)
		if len([]rune(nome)) < 2 {
			return nil, fmt.Errorf("%w: nome deve ter ao menos 2 caracteres", ErrValidacao)
		}
		atual.Nome = nome
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email != "" {
			if err := util.ValidateEmail(email); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
			}
		}
		atual.Email = email
	}
	if input.Nascimento != nil {
		if err := util.ValidateBirthDate(*input.Nascimento); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrValidacao, err.Error())
		}
		atual.Nascimento = input.Nascimento
	}
	if input.Telefone != nil {
		atual.Telefone = strings.TrimSpace(*input.Telefone)
	}
	if input.WhatsApp != nil {
		atual.WhatsApp = strings.TrimSpace(*input.WhatsApp)
	}
	if input.CPF != nil {
		atual.CPF = strings.TrimSpace(*input.CPF)
	}
	if input.RG != nil {
		atual.RG = strings.TrimSpace(*input.RG)
	}
	if input.Endereco != nil {
		atual.Endereco = strings.TrimSpace(*input.Endereco)
	}
	if input.Cidade != nil {
		atual.Cidade = strings.TrimSpace(*input.Cidade)
	}
	if input.Estado != nil {
		atual.Estado = strings.ToUpper(strings.TrimSpace(*input.Estado))
	}
	if input.Relacionamento != nil {
		atual.Relacionamento = strings.TrimSpace(*input.Relacionamento)
	}
	if input.Observacoes != nil {
		atual.Observacoes = *input.Observacoes
	}

	atual.AtualizadoEm = util.Now()
	atual.AtualizadoPor = userID
	if err := s.store.Update(ctx, *atual); err != nil {
		return nil, fmt.Errorf("atualizar pessoa: %w", err)
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionUpdate,
		ResourceType: audit.ResourcePerson,
		ResourceID:   atual.ID.String(),
		Details:      fmt.Sprintf("Pessoa atualizada: %s", atual.Nome),
	}, req)
	return atual, nil
}

// GetByID devolve a pessoa ou nil quando inexistente ou removida.
func (s *Service) GetByID(ctx context.Context, id string) (*Pessoa, error) {
	return s.store.GetByID(ctx, id)
}

// Search filtra, ordena e pagina pessoas. A leitura é sempre registrada
// na trilha com o total de resultados.
func (s *Service) Search(ctx context.Context, filter SearchFilter, userID string, req audit.RequestInfo) (*SearchResult, error) {
	todas, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar pessoas: %w", err)
	}

	filtradas := make([]Pessoa, 0, len(todas))
	for _, p := range todas {
		if !matchFilter(p, filter) {
			continue
		}
		filtradas = append(filtradas, p)
	}

	s.sortPessoas(filtradas, filter.OrdenarPor, filter.Direcao)

	total := len(filtradas)
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	fim := offset + limit
	if fim > total {
		fim = total
	}
	pagina := filtradas[offset:fim]

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionRead,
		ResourceType: audit.ResourcePerson,
		Details:      fmt.Sprintf("Busca de pessoas: %d resultado(s)", total),
	}, req)

	return &SearchResult{Pessoas: pagina, Total: total}, nil
}

func matchFilter(p Pessoa, f SearchFilter) bool {
	if f.Nome != "" && !containsFold(p.Nome, f.Nome) {
		return false
	}
	if f.Email != "" && !containsFold(p.Email, f.Email) {
		return false
	}
	if f.Telefone != "" && !strings.Contains(p.Telefone, f.Telefone) {
		return false
	}
	if f.Cidade != "" && !containsFold(p.Cidade, f.Cidade) {
		return false
	}
	if f.Estado != "" && !strings.EqualFold(p.Estado, f.Estado) {
		return false
	}
	if f.Relacionamento != "" && !strings.EqualFold(p.Relacionamento, f.Relacionamento) {
		return false
	}
	if f.Inicio != nil && p.CriadoEm.Before(*f.Inicio) {
		return false
	}
	if f.Fim != nil && p.CriadoEm.After(*f.Fim) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// sortPessoas ordena de forma estável usando colação pt-BR para campos
// textuais, para que acentos não quebrem a ordem esperada.
func (s *Service) sortPessoas(pessoas []Pessoa, campo, direcao string) {
	desc := strings.EqualFold(direcao, "desc")
	var less func(a, b Pessoa) bool
	switch campo {
	case "email":
		less = func(a, b Pessoa) bool { return s.collator.CompareString(a.Email, b.Email) < 0 }
	case "cidade":
		less = func(a, b Pessoa) bool { return s.collator.CompareString(a.Cidade, b.Cidade) < 0 }
	case "relacionamento":
		less = func(a, b Pessoa) bool { return s.collator.CompareString(a.Relacionamento, b.Relacionamento) < 0 }
	case "criado_em":
		less = func(a, b Pessoa) bool { return a.CriadoEm.Before(b.CriadoEm) }
	default: // nome
		less = func(a, b Pessoa) bool { return s.collator.CompareString(a.Nome, b.Nome) < 0 }
	}
	sort.SliceStable(pessoas, func(i, j int) bool {
		if desc {
			return less(pessoas[j], pessoas[i])
		}
		return less(pessoas[i], pessoas[j])
	})
}

// AddInteracao registra uma interação no histórico da pessoa.
func (s *Service) AddInteracao(ctx context.Context, pessoaID string, input InteracaoInput, userID string, req audit.RequestInfo) (*Interacao, error) {
	if !IsValidTipo(input.Tipo) {
		return nil, fmt.Errorf("%w: tipo de interação desconhecido", ErrValidacao)
	}
	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = StatusPendente
	}
	if !IsValidStatus(status) {
		return nil, fmt.Errorf("%w: status de interação desconhecido", ErrValidacao)
	}
	prioridade := strings.TrimSpace(input.Prioridade)
	if prioridade == "" {
		prioridade = PrioridadeNormal
	}
	if !IsValidPrioridade(prioridade) {
		return nil, fmt.Errorf("%w: prioridade desconhecida", ErrValidacao)
	}
	if strings.TrimSpace(input.Titulo) == "" {
		return nil, fmt.Errorf("%w: título é obrigatório", ErrValidacao)
	}

	p, err := s.store.GetByID(ctx, pessoaID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}

	agora := util.Now()
	inter := Interacao{
		ID:           uuid.New(),
		Tipo:         strings.ToLower(strings.TrimSpace(input.Tipo)),
		Titulo:       strings.TrimSpace(input.Titulo),
		Descricao:    input.Descricao,
		Status:       strings.ToLower(status),
		Prioridade:   strings.ToLower(prioridade),
		AgendadaPara: input.AgendadaPara,
		Retorno:      input.Retorno,
		Local:        strings.TrimSpace(input.Local),
		Inicio:       input.Inicio,
		Fim:          input.Fim,
		AgendadoPor:  strings.TrimSpace(input.AgendadoPor),
		CriadoEm:     agora,
		AtualizadoEm: agora,
	}
	if inter.Status == StatusConcluido {
		inter.ConcluidaEm = &agora
	}

	p.Interacoes = append(p.Interacoes, inter)
	p.AtualizadoEm = agora
	p.AtualizadoPor = userID
	if err := s.store.Update(ctx, *p); err != nil {
		return nil, fmt.Errorf("registrar interação: %w", err)
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionCreate,
		ResourceType: audit.ResourceInteraction,
		ResourceID:   inter.ID.String(),
		Details:      fmt.Sprintf("Interação (%s) registrada para %s", inter.Tipo, p.Nome),
	}, req)
	return &inter, nil
}

// Delete faz remoção lógica: marca RemovidoEm e preserva o registro.
func (s *Service) Delete(ctx context.Context, id, userID string, req audit.RequestInfo) error {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}

	agora := util.Now()
	p.RemovidoEm = &agora
	p.AtualizadoEm = agora
	p.AtualizadoPor = userID
	if err := s.store.Update(ctx, *p); err != nil {
		return fmt.Errorf("remover pessoa: %w", err)
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionDelete,
		ResourceType: audit.ResourcePerson,
		ResourceID:   p.ID.String(),
		Details:      fmt.Sprintf("Pessoa removida: %s", p.Nome),
	}, req)
	return nil
}

// Export gera o arquivo de exportação com dados pessoais mascarados
// conforme a LGPD. Limit zero exporta tudo que casa com o filtro.
func (s *Service) Export(ctx context.Context, filter SearchFilter, format, userID string, req audit.RequestInfo) ([]byte, error) {
	todas, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar pessoas: %w", err)
	}

	registros := make([]lgpd.RegistroExportavel, 0, len(todas))
	for _, p := range todas {
		if !matchFilter(p, filter) {
			continue
		}
		registros = append(registros, lgpd.AnonymizeForExport(lgpd.RegistroExportavel{
			ID:             p.ID.String(),
			Nome:           p.Nome,
			Email:          p.Email,
			Telefone:       p.Telefone,
			WhatsApp:       p.WhatsApp,
			CPF:            p.CPF,
			RG:             p.RG,
			Cidade:         p.Cidade,
			Estado:         p.Estado,
			Relacionamento: p.Relacionamento,
			CriadoEm:       p.CriadoEm.Format(time.RFC3339),
			Observacoes:    p.Observacoes,
		}))
	}

	var out []byte
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV, "":
		out, err = renderPessoasCSV(registros)
	case FormatJSON:
		out, err = json.MarshalIndent(registros, "", "  ")
	default:
		return nil, ErrInvalidFormat
	}
	if err != nil {
		return nil, fmt.Errorf("gerar exportação: %w", err)
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionExport,
		ResourceType: audit.ResourcePerson,
		Details:      fmt.Sprintf("Exportação de pessoas: %d registro(s)", len(registros)),
	}, req)
	return out, nil
}

func renderPessoasCSV(registros []lgpd.RegistroExportavel) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write([]string{"ID", "Nome", "Email", "Telefone", "WhatsApp", "CPF", "RG", "Cidade", "Estado", "Relacionamento", "Cadastro"}); err != nil {
		return nil, err
	}
	for _, r := range registros {
		if err := w.Write([]string{r.ID, r.Nome, r.Email, r.Telefone, r.WhatsApp, r.CPF, r.RG, r.Cidade, r.Estado, r.Relacionamento, r.CriadoEm}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}
