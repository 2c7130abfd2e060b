// Package pessoa acompanha munícipes atendidos pelo gabinete e o
// histórico de interações de cada um.
package pessoa

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("pessoa não encontrada")
	ErrValidacao = errors.New("dados inválidos")
)

// Tipos de interação registráveis.
const (
	TipoAtendimento = "atendimento"
	TipoLigacao     = "ligacao"
	TipoEmail       = "email"
	TipoWhatsApp    = "whatsapp"
	TipoReuniao     = "reuniao"
	TipoVisita      = "visita"
	TipoEvento      = "evento"
	TipoOutro       = "outro"
)

// Status de interação. "em_progresso" e "em_andamento" coexistem na base
// histórica; ambos são aceitos e não são normalizados um no outro.
const (
	StatusPendente    = "pendente"
	StatusEmProgresso = "em_progresso"
	StatusEmAndamento = "em_andamento"
	StatusConcluido   = "concluido"
	StatusCancelado   = "cancelado"
)

// Prioridades de interação.
const (
	PrioridadeBaixa  = "baixa"
	PrioridadeNormal = "normal"
	PrioridadeMedia  = "media"
	PrioridadeAlta   = "alta"
)

var validTipos = map[string]struct{}{
	TipoAtendimento: {},
	TipoLigacao:     {},
	TipoEmail:       {},
	TipoWhatsApp:    {},
	TipoReuniao:     {},
	TipoVisita:      {},
	TipoEvento:      {},
	TipoOutro:       {},
}

var validStatus = map[string]struct{}{
	StatusPendente:    {},
	StatusEmProgresso: {},
	StatusEmAndamento: {},
	StatusConcluido:   {},
	StatusCancelado:   {},
}

var validPrioridades = map[string]struct{}{
	PrioridadeBaixa:  {},
	PrioridadeNormal: {},
	PrioridadeMedia:  {},
	PrioridadeAlta:   {},
}

// IsValidTipo indica se o tipo de interação é aceito.
func IsValidTipo(tipo string) bool {
	_, ok := validTipos[strings.ToLower(strings.TrimSpace(tipo))]
	return ok
}

// IsValidStatus indica se o status de interação é aceito.
func IsValidStatus(status string) bool {
	_, ok := validStatus[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// IsValidPrioridade indica se a prioridade é aceita.
func IsValidPrioridade(prioridade string) bool {
	_, ok := validPrioridades[strings.ToLower(strings.TrimSpace(prioridade))]
	return ok
}

// Interacao é um contato registrado com a pessoa. Vive embutida na
// própria pessoa; não há coleção separada.
type Interacao struct {
	ID           uuid.UUID  `json:"id"`
	Tipo         string     `json:"tipo"`
	Titulo       string     `json:"titulo"`
	Descricao    string     `json:"descricao,omitempty"`
	Status       string     `json:"status"`
	Prioridade   string     `json:"prioridade"`
	AgendadaPara *time.Time `json:"agendada_para,omitempty"`
	Retorno      *time.Time `json:"retorno,omitempty"`
	ConcluidaEm  *time.Time `json:"concluida_em,omitempty"`

	// Campos exclusivos de eventos (tipo = evento).
	Local       string     `json:"local,omitempty"`
	Inicio      *time.Time `json:"inicio,omitempty"`
	Fim         *time.Time `json:"fim,omitempty"`
	AgendadoPor string     `json:"agendado_por,omitempty"`

	CriadoEm     time.Time `json:"criado_em"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}

// Pessoa representa um munícipe/contato do gabinete.
type Pessoa struct {
	ID             uuid.UUID   `json:"id"`
	Nome           string      `json:"nome"`
	Email          string      `json:"email,omitempty"`
	Telefone       string      `json:"telefone,omitempty"`
	WhatsApp       string      `json:"whatsapp,omitempty"`
	CPF            string      `json:"cpf,omitempty"`
	RG             string      `json:"rg,omitempty"`
	Nascimento     *time.Time  `json:"nascimento,omitempty"`
	Endereco       string      `json:"endereco,omitempty"`
	Cidade         string      `json:"cidade,omitempty"`
	Estado         string      `json:"estado,omitempty"`
	Relacionamento string      `json:"relacionamento,omitempty"`
	Observacoes    string      `json:"observacoes,omitempty"`
	Interacoes     []Interacao `json:"interacoes"`
	CriadoEm       time.Time   `json:"criado_em"`
	AtualizadoEm   time.Time   `json:"atualizado_em"`
	CriadoPor      string      `json:"criado_por,omitempty"`
	AtualizadoPor  string      `json:"atualizado_por,omitempty"`
	RemovidoEm     *time.Time  `json:"removido_em,omitempty"`
}

// CreateInput reúne campos para cadastro.
type CreateInput struct {
	Nome           string
	Email          string
	Telefone       string
	WhatsApp       string
	CPF            string
	RG             string
	Nascimento     *time.Time
	Endereco       string
	Cidade         string
	Estado         string
	Relacionamento string
	Observacoes    string
}

// UpdateInput permite atualização parcial; nil não altera o campo.
type UpdateInput struct {
	Nome           *string
	Email          *string
	Telefone       *string
	WhatsApp       *string
	CPF            *string
	RG             *string
	Nascimento     *time.Time
	Endereco       *string
	Cidade         *string
	Estado         *string
	Relacionamento *string
	Observacoes    *string
}

// InteracaoInput reúne campos para registrar interação.
type InteracaoInput struct {
	Tipo         string
	Titulo       string
	Descricao    string
	Status       string
	Prioridade   string
	AgendadaPara *time.Time
	Retorno      *time.Time
	Local        string
	Inicio       *time.Time
	Fim          *time.Time
	AgendadoPor  string
}

// SearchFilter restringe buscas. Os filtros são aplicados na ordem dos
// campos; strings vazias não filtram.
type SearchFilter struct {
	Nome           string
	Email          string
	Telefone       string
	Cidade         string
	Estado         string
	Relacionamento string
	Inicio         *time.Time
	Fim            *time.Time
	OrdenarPor     string
	Direcao        string // asc (padrão) ou desc
	Limit          int
	Offset         int
}

// SearchResult é a página de resultados com total antes da paginação.
type SearchResult struct {
	Pessoas []Pessoa `json:"pessoas"`
	Total   int      `json:"total"`
}
