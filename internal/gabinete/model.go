// Package gabinete mantém o cadastro de gabinetes parlamentares, seu
// ciclo de vida e as credenciais de acesso de cada um.
package gabinete

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("gabinete não encontrado")
	ErrValidacao = errors.New("dados inválidos")
)

// Status possíveis de um gabinete. Transições são livres; cada mudança
// gera trilha de auditoria e mensagem automática no mural.
const (
	StatusAtivo    = "ativo"
	StatusPendente = "pendente"
	StatusInativo  = "inativo"
)

// StatusTodos é o valor sentinela de filtro que casa com qualquer status.
const StatusTodos = "todos"

var validStatus = map[string]struct{}{
	StatusAtivo:    {},
	StatusPendente: {},
	StatusInativo:  {},
}

// IsValidStatus indica se o status é aceito.
func IsValidStatus(status string) bool {
	_, ok := validStatus[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// Gabinete representa a unidade administrativa de um vereador.
type Gabinete struct {
	ID        uuid.UUID `json:"id"`
	Nome      string    `json:"nome"`
	Vereador  string    `json:"vereador"`
	Municipio string    `json:"municipio"`

	Endereco string `json:"endereco,omitempty"`
	Cidade   string `json:"cidade,omitempty"`
	Estado   string `json:"estado,omitempty"`
	CEP      string `json:"cep,omitempty"`

	Telefone  string `json:"telefone,omitempty"`
	Email     string `json:"email,omitempty"`
	Site      string `json:"site,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`

	AdminNome  string `json:"admin_nome"`
	AdminEmail string `json:"admin_email"`

	Status       string    `json:"status"`
	CriadoEm     time.Time `json:"criado_em"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}

// Credenciais são os dados de acesso do gabinete. O hash da senha nunca
// sai desta camada.
type Credenciais struct {
	ID                 uuid.UUID  `json:"id"`
	GabineteID         uuid.UUID  `json:"gabinete_id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	SenhaHash          string     `json:"-"`
	LastPasswordChange *time.Time `json:"last_password_change,omitempty"`
	IsActive           bool       `json:"is_active"`
	CriadoEm           time.Time  `json:"criado_em"`
	AtualizadoEm       time.Time  `json:"atualizado_em"`
}

// CreateInput reúne campos para cadastro de gabinete.
type CreateInput struct {
	Nome       string
	Vereador   string
	Municipio  string
	Endereco   string
	Cidade     string
	Estado     string
	CEP        string
	Telefone   string
	Email      string
	Site       string
	Instagram  string
	Facebook   string
	AdminNome  string
	AdminEmail string
	Status     string
}

// UpdateInput permite atualização parcial; nil não altera o campo.
// Status não entra aqui: mudanças de status têm fluxo próprio.
type UpdateInput struct {
	Nome       *string
	Vereador   *string
	Municipio  *string
	Endereco   *string
	Cidade     *string
	Estado     *string
	CEP        *string
	Telefone   *string
	Email      *string
	Site       *string
	Instagram  *string
	Facebook   *string
	AdminNome  *string
	AdminEmail *string
}

// CredenciaisInput reúne campos para criar ou trocar credenciais.
type CredenciaisInput struct {
	Username string
	Email    string
	Senha    string
}
