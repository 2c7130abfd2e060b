// Package mensagem implementa o mural de mensagens interno de cada
// gabinete, com anexos de arquivo e áudio.
package mensagem

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("mensagem não encontrada")
	ErrValidacao = errors.New("dados inválidos")
)

// Tipos de anexo aceitos.
const (
	AnexoArquivo = "file"
	AnexoAudio   = "audio"
)

// Anexo é um arquivo ou áudio vinculado à mensagem. Duração só se
// aplica a áudios.
type Anexo struct {
	ID      string  `json:"id"`
	Nome    string  `json:"name"`
	Tipo    string  `json:"type"`
	URL     string  `json:"url"`
	Tamanho int64   `json:"size"`
	Duracao float64 `json:"duration,omitempty"`
}

// StatusChange acompanha mensagens geradas por mudança de status do
// gabinete.
type StatusChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Mensagem é uma entrada do mural. Os nomes JSON seguem o contrato da
// interface web existente, por isso ficam em inglês.
type Mensagem struct {
	ID              uuid.UUID     `json:"id"`
	GabineteID      uuid.UUID     `json:"cabinetId"`
	Conteudo        string        `json:"content"`
	Anexos          []Anexo       `json:"attachments"`
	UserID          string        `json:"userId"`
	UserName        string        `json:"userName"`
	Timestamp       time.Time     `json:"timestamp"`
	IsStatusRelated bool          `json:"isStatusRelated"`
	StatusChange    *StatusChange `json:"statusChange,omitempty"`
}

// SendInput reúne campos para envio de mensagem.
type SendInput struct {
	GabineteID      string
	Conteudo        string
	IsStatusRelated bool
	StatusChange    *StatusChange
	Anexos          []Anexo
}

// ListFilter restringe a listagem geral de mensagens.
type ListFilter struct {
	Search     string
	GabineteID string
	Inicio     *time.Time
	Fim        *time.Time
	Page       int
	Limit      int
}

// Page é o envelope paginado da listagem geral.
type Page struct {
	Messages   []Mensagem `json:"messages"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	TotalPages int        `json:"totalPages"`
}
