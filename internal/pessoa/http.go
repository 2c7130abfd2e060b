package pessoa

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gestaogabinete/gabinete/internal/audit"
	internalhttp "github.com/gestaogabinete/gabinete/internal/http"
	httpmiddleware "github.com/gestaogabinete/gabinete/internal/http/middleware"
)

// Handler expõe o cadastro de pessoas e interações.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pessoas", func(r chi.Router) {
		r.Get("/", h.handleSearch)
		r.Post("/", h.handleCreate)
		r.Get("/export", h.handleExport)
		r.Get("/{id}", h.handleGet)
		r.Patch("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/interacoes", h.handleAddInteracao)
	})
}

type pessoaPayload struct {
	Nome           string     `json:"nome"`
	Email          string     `json:"email"`
	Telefone       string     `json:"telefone"`
	WhatsApp       string     `json:"whatsapp"`
	CPF            string     `json:"cpf"`
	RG             string     `json:"rg"`
	Nascimento     *time.Time `json:"nascimento"`
	Endereco       string     `json:"endereco"`
	Cidade         string     `json:"cidade"`
	Estado         string     `json:"estado"`
	Relacionamento string     `json:"relacionamento"`
	Observacoes    string     `json:"observacoes"`
}

type pessoaPatchPayload struct {
	Nome           *string    `json:"nome"`
	Email          *string    `json:"email"`
	Telefone       *string    `json:"telefone"`
	WhatsApp       *string    `json:"whatsapp"`
	CPF            *string    `json:"cpf"`
	RG             *string    `json:"rg"`
	Nascimento     *time.Time `json:"nascimento"`
	Endereco       *string    `json:"endereco"`
	Cidade         *string    `json:"cidade"`
	Estado         *string    `json:"estado"`
	Relacionamento *string    `json:"relacionamento"`
	Observacoes    *string    `json:"observacoes"`
}

type interacaoPayload struct {
	Tipo         string     `json:"tipo"`
	Titulo       string     `json:"titulo"`
	Descricao    string     `json:"descricao"`
	Status       string     `json:"status"`
	Prioridade   string     `json:"prioridade"`
	AgendadaPara *time.Time `json:"agendada_para"`
	Retorno      *time.Time `json:"retorno"`
	Local        string     `json:"local"`
	Inicio       *time.Time `json:"inicio"`
	Fim          *time.Time `json:"fim"`
	AgendadoPor  string     `json:"agendado_por"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload pessoaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	p, err := h.service.Create(r.Context(), CreateInput{
		Nome:           payload.Nome,
		Email:          payload.Email,
		Telefone:       payload.Telefone,
		WhatsApp:       payload.WhatsApp,
		CPF:            payload.CPF,
		RG:             payload.RG,
		Nascimento:     payload.Nascimento,
		Endereco:       payload.Endereco,
		Cidade:         payload.Cidade,
		Estado:         payload.Estado,
		Relacionamento: payload.Relacionamento,
		Observacoes:    payload.Observacoes,
	}, httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível consultar a pessoa", nil)
		return
	}
	if p == nil {
		internalhttp.WriteError(w, http.StatusNotFound, "NOT_FOUND", ErrNotFound.Error(), nil)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload pessoaPatchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateInput{
		Nome:           payload.Nome,
		Email:          payload.Email,
		Telefone:       payload.Telefone,
		WhatsApp:       payload.WhatsApp,
		CPF:            payload.CPF,
		RG:             payload.RG,
		Nascimento:     payload.Nascimento,
		Endereco:       payload.Endereco,
		Cidade:         payload.Cidade,
		Estado:         payload.Estado,
		Relacionamento: payload.Relacionamento,
		Observacoes:    payload.Observacoes,
	}, httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]bool{"removido": true})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	filter, err := searchFilterFromQuery(r)
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	result, err := h.service.Search(r.Context(), filter, httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível buscar pessoas", nil)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAddInteracao(w http.ResponseWriter, r *http.Request) {
	var payload interacaoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	inter, err := h.service.AddInteracao(r.Context(), chi.URLParam(r, "id"), InteracaoInput{
		Tipo:         payload.Tipo,
		Titulo:       payload.Titulo,
		Descricao:    payload.Descricao,
		Status:       payload.Status,
		Prioridade:   payload.Prioridade,
		AgendadaPara: payload.AgendadaPara,
		Retorno:      payload.Retorno,
		Local:        payload.Local,
		Inicio:       payload.Inicio,
		Fim:          payload.Fim,
		AgendadoPor:  payload.AgendadoPor,
	}, httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusCreated, inter)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := searchFilterFromQuery(r)
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	filter.Limit = 0
	filter.Offset = 0

	format := r.URL.Query().Get("formato")
	if format == "" {
		format = FormatCSV
	}

	data, err := h.service.Export(r.Context(), filter, format, httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		if errors.Is(err, ErrInvalidFormat) {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível exportar pessoas", nil)
		return
	}

	switch format {
	case FormatJSON:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="pessoas.json"`)
	default:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="pessoas.csv"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func searchFilterFromQuery(r *http.Request) (SearchFilter, error) {
	q := r.URL.Query()
	filter := SearchFilter{
		Nome:           q.Get("nome"),
		Email:          q.Get("email"),
		Telefone:       q.Get("telefone"),
		Cidade:         q.Get("cidade"),
		Estado:         q.Get("estado"),
		Relacionamento: q.Get("relacionamento"),
		OrdenarPor:     q.Get("ordenar_por"),
		Direcao:        q.Get("direcao"),
	}

	if raw := q.Get("inicio"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("inicio deve estar em RFC3339")
		}
		filter.Inicio = &t
	}
	if raw := q.Get("fim"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("fim deve estar em RFC3339")
		}
		filter.Fim = &t
	}
	if raw := q.Get("limite"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, errors.New("limite deve ser um inteiro não negativo")
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, errors.New("offset deve ser um inteiro não negativo")
		}
		filter.Offset = n
	}
	return filter, nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidacao):
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		internalhttp.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	default:
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}
