// Package audit mantém a trilha imutável de ações de usuários exigida
// para conformidade. Entradas nunca são alteradas; apenas a retenção
// descarta as mais antigas.
package audit

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidAction   = errors.New("ação de auditoria inválida")
	ErrInvalidResource = errors.New("tipo de recurso inválido")
	ErrInvalidFilter   = errors.New("filtro de auditoria inválido")
)

// Ações registráveis. Os valores são os mesmos usados na interface web
// e em exportações, então mudanças aqui quebram relatórios antigos.
const (
	ActionCreate             = "create"
	ActionUpdate             = "update"
	ActionDelete             = "delete"
	ActionRead               = "read"
	ActionExport             = "export"
	ActionLogin              = "login"
	ActionLogout             = "logout"
	ActionStatusChange       = "status_change"
	ActionCredentialsAttempt = "credentials_change_attempt"
	ActionCredentialsSuccess = "credentials_change_success"
	ActionCredentialsError   = "credentials_change_error"
)

// Tipos de recurso auditáveis.
const (
	ResourcePerson      = "person"
	ResourceInteraction = "interaction"
	ResourceUser        = "user"
	ResourceReport      = "report"
	ResourceCabinet     = "cabinet"
	ResourceCredentials = "credentials"
	ResourceMessage     = "message"
)

var validActions = map[string]struct{}{
	ActionCreate:             {},
	ActionUpdate:             {},
	ActionDelete:             {},
	ActionRead:               {},
	ActionExport:             {},
	ActionLogin:              {},
	ActionLogout:             {},
	ActionStatusChange:       {},
	ActionCredentialsAttempt: {},
	ActionCredentialsSuccess: {},
	ActionCredentialsError:   {},
}

var validResources = map[string]struct{}{
	ResourcePerson:      {},
	ResourceInteraction: {},
	ResourceUser:        {},
	ResourceReport:      {},
	ResourceCabinet:     {},
	ResourceCredentials: {},
	ResourceMessage:     {},
}

// IsValidAction indica se a ação é aceita.
func IsValidAction(action string) bool {
	_, ok := validActions[strings.ToLower(strings.TrimSpace(action))]
	return ok
}

// IsValidResource indica se o tipo de recurso é aceito.
func IsValidResource(resource string) bool {
	_, ok := validResources[strings.ToLower(strings.TrimSpace(resource))]
	return ok
}

// Entry é uma linha da trilha de auditoria.
type Entry struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Details      string    `json:"details,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Filter restringe consultas à trilha. Campos vazios não filtram.
type Filter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}

// validate rejeita filtros com ação ou recurso fora do vocabulário.
func (f Filter) validate() error {
	if f.Action != "" && !IsValidAction(f.Action) {
		return ErrInvalidAction
	}
	if f.ResourceType != "" && !IsValidResource(f.ResourceType) {
		return ErrInvalidResource
	}
	return nil
}

// Page é o resultado paginado de List.
type Page struct {
	Logs  []Entry `json:"logs"`
	Total int     `json:"total"`
}
