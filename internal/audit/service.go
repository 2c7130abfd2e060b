package audit

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gestaogabinete/gabinete/internal/util"
)

const defaultLimit = 50

// RequestInfo carrega a origem da requisição para dentro da trilha.
type RequestInfo struct {
	IPAddress string
	UserAgent string
}

// FromRequest extrai IP e user agent da requisição HTTP. Assume que o
// middleware RealIP já normalizou RemoteAddr.
func FromRequest(r *http.Request) RequestInfo {
	return RequestInfo{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}

// Service valida e grava entradas, e responde consultas e exportações.
type Service struct {
	store Store
}

// NewService cria o serviço sobre qualquer Store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Record grava uma entrada na trilha. Falha de persistência é registrada
// em log e engolida: auditoria nunca bloqueia a operação que a originou.
func (s *Service) Record(ctx context.Context, entry Entry, req RequestInfo) {
	entry.Action = strings.ToLower(strings.TrimSpace(entry.Action))
	entry.ResourceType = strings.ToLower(strings.TrimSpace(entry.ResourceType))

	if !IsValidAction(entry.Action) {
		log.Warn().Str("action", entry.Action).Msg("auditoria: ação desconhecida descartada")
		return
	}
	if !IsValidResource(entry.ResourceType) {
		log.Warn().Str("resource_type", entry.ResourceType).Msg("auditoria: recurso desconhecido descartado")
		return
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = util.Now()
	}
	entry.IPAddress = req.IPAddress
	entry.UserAgent = req.UserAgent

	if err := s.store.Insert(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("action", entry.Action).
			Str("resource_type", entry.ResourceType).
			Msg("auditoria: falha ao gravar entrada")
	}
}

// List devolve a página filtrada com total antes da paginação.
func (s *Service) List(ctx context.Context, filter Filter) (*Page, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	logs, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []Entry{}
	}
	return &Page{Logs: logs, Total: total}, nil
}
