package mensagem

import (
	"context"
	"fmt"
	"math"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/gestaogabinete/gabinete/internal/audit"
	"github.com/gestaogabinete/gabinete/internal/storage"
	"github.com/gestaogabinete/gabinete/internal/util"
)

const (
	defaultListLimit = 20
	resumoMaxChars   = 50
)

// Service concentra as regras do mural de mensagens.
type Service struct {
	store     Store
	uploader  storage.Uploader
	auditoria *audit.Service
}

// NewService cria o serviço de mensagens.
func NewService(store Store, uploader storage.Uploader, auditoria *audit.Service) *Service {
	return &Service{store: store, uploader: uploader, auditoria: auditoria}
}

// Send publica uma mensagem no mural do gabinete e registra a ação na
// trilha com um resumo do conteúdo.
func (s *Service) Send(ctx context.Context, input SendInput, userID, userName string, req audit.RequestInfo) (*Mensagem, error) {
	gabineteID, err := uuid.Parse(strings.TrimSpace(input.GabineteID))
	if err != nil {
		return nil, fmt.Errorf("%w: gabinete inválido", ErrValidacao)
	}
	conteudo := strings.TrimSpace(input.Conteudo)
	if conteudo == "" && len(input.Anexos) == 0 {
		return nil, fmt.Errorf("%w: mensagem vazia", ErrValidacao)
	}
	for _, anexo := range input.Anexos {
		if anexo.Tipo != AnexoArquivo && anexo.Tipo != AnexoAudio {
			return nil, fmt.Errorf("%w: tipo de anexo desconhecido", ErrValidacao)
		}
	}

	anexos := input.Anexos
	if anexos == nil {
		anexos = []Anexo{}
	}
	m := Mensagem{
		ID:              uuid.New(),
		GabineteID:      gabineteID,
		Conteudo:        conteudo,
		Anexos:          anexos,
		UserID:          userID,
		UserName:        userName,
		Timestamp:       util.Now(),
		IsStatusRelated: input.IsStatusRelated,
		StatusChange:    input.StatusChange,
	}
	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}

	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionCreate,
		ResourceType: audit.ResourceCabinet,
		ResourceID:   gabineteID.String(),
		Details:      fmt.Sprintf("Mensagem enviada: %s", resumir(conteudo)),
	}, req)
	return &m, nil
}

// Delete remove uma mensagem do mural.
func (s *Service) Delete(ctx context.Context, id, userID string, req audit.RequestInfo) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.auditoria.Record(ctx, audit.Entry{
		UserID:       userID,
		Action:       audit.ActionDelete,
		ResourceType: audit.ResourceMessage,
		ResourceID:   id,
		Details:      "Mensagem removida",
	}, req)
	return nil
}

// ListByGabinete devolve o mural completo do gabinete.
func (s *Service) ListByGabinete(ctx context.Context, gabineteID string) ([]Mensagem, error) {
	if _, err := uuid.Parse(strings.TrimSpace(gabineteID)); err != nil {
		return nil, fmt.Errorf("%w: gabinete inválido", ErrValidacao)
	}
	return s.store.ListByGabinete(ctx, gabineteID)
}

// List aplica filtros e devolve o envelope paginado.
func (s *Service) List(ctx context.Context, filter ListFilter) (*Page, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}

	mensagens, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if mensagens == nil {
		mensagens = []Mensagem{}
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	return &Page{
		Messages:   mensagens,
		Total:      total,
		Page:       filter.Page,
		TotalPages: totalPages,
	}, nil
}

// SendStatusChange publica a mensagem automática gerada quando o
// status de um gabinete muda.
func (s *Service) SendStatusChange(ctx context.Context, gabineteID, from, to, userID, userName string, req audit.RequestInfo) error {
	_, err := s.Send(ctx, SendInput{
		GabineteID:      gabineteID,
		Conteudo:        fmt.Sprintf("Status do gabinete alterado de %q para %q", from, to),
		IsStatusRelated: true,
		StatusChange:    &StatusChange{From: from, To: to},
	}, userID, userName, req)
	return err
}

// UploadAnexo armazena o blob do anexo e devolve os metadados prontos
// para vincular a uma mensagem.
func (s *Service) UploadAnexo(ctx context.Context, nome, contentType string, body []byte, duracao float64) (*Anexo, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" || len(body) == 0 {
		return nil, fmt.Errorf("%w: anexo vazio", ErrValidacao)
	}

	tipo := AnexoArquivo
	if strings.HasPrefix(contentType, "audio/") {
		tipo = AnexoAudio
	}

	id := util.NewID()
	result, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:         path.Join("mensagens", id+path.Ext(nome)),
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("armazenar anexo: %w", err)
	}

	anexo := &Anexo{
		ID:      id,
		Nome:    nome,
		Tipo:    tipo,
		URL:     result.URL,
		Tamanho: int64(len(body)),
	}
	if tipo == AnexoAudio {
		anexo.Duracao = duracao
	}
	return anexo, nil
}

// resumir encurta o conteúdo para a trilha de auditoria.
func resumir(conteudo string) string {
	if utf8.RuneCountInString(conteudo) <= resumoMaxChars {
		return conteudo
	}
	runes := []rune(conteudo)
	return string(runes[:resumoMaxChars]) + "..."
}
