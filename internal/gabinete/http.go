package gabinete

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gestaogabinete/gabinete/internal/audit"
	internalhttp "github.com/gestaogabinete/gabinete/internal/http"
	httpmiddleware "github.com/gestaogabinete/gabinete/internal/http/middleware"
)

// Handler expõe o cadastro e o ciclo de vida de gabinetes.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/gabinetes", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/export", h.handleExport)
		r.Get("/{id}", h.handleGet)
		r.Patch("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/status", h.handleChangeStatus)

		// credenciais exigem o papel "gabinete" no token
		r.Group(func(r chi.Router) {
			r.Use(httpmiddleware.RequireRoles("gabinete"))
			r.Get("/{id}/credenciais", h.handleGetCredenciais)
			r.Put("/{id}/credenciais", h.handleSetCredenciais)
			r.Post("/{id}/credenciais/senha", h.handleRotateSenha)
		})
	})
}

type gabinetePayload struct {
	Nome       string `json:"nome"`
	Vereador   string `json:"vereador"`
	Municipio  string `json:"municipio"`
	Endereco   string `json:"endereco"`
	Cidade     string `json:"cidade"`
	Estado     string `json:"estado"`
	CEP        string `json:"cep"`
	Telefone   string `json:"telefone"`
	Email      string `json:"email"`
	Site       string `json:"site"`
	Instagram  string `json:"instagram"`
	Facebook   string `json:"facebook"`
	AdminNome  string `json:"admin_nome"`
	AdminEmail string `json:"admin_email"`
	Status     string `json:"status"`
}

type gabinetePatchPayload struct {
	Nome       *string `json:"nome"`
	Vereador   *string `json:"vereador"`
	Municipio  *string `json:"municipio"`
	Endereco   *string `json:"endereco"`
	Cidade     *string `json:"cidade"`
	Estado     *string `json:"estado"`
	CEP        *string `json:"cep"`
	Telefone   *string `json:"telefone"`
	Email      *string `json:"email"`
	Site       *string `json:"site"`
	Instagram  *string `json:"instagram"`
	Facebook   *string `json:"facebook"`
	AdminNome  *string `json:"admin_nome"`
	AdminEmail *string `json:"admin_email"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload gabinetePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	g, err := h.service.Create(r.Context(), CreateInput{
		Nome:       payload.Nome,
		Vereador:   payload.Vereador,
		Municipio:  payload.Municipio,
		Endereco:   payload.Endereco,
		Cidade:     payload.Cidade,
		Estado:     payload.Estado,
		CEP:        payload.CEP,
		Telefone:   payload.Telefone,
		Email:      payload.Email,
		Site:       payload.Site,
		Instagram:  payload.Instagram,
		Facebook:   payload.Facebook,
		AdminNome:  payload.AdminNome,
		AdminEmail: payload.AdminEmail,
		Status:     payload.Status,
	}, httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusCreated, g)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	state, err := viewStateFromQuery(r)
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	gabinetes, err := h.service.List(r.Context())
	if err != nil {
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar gabinetes", nil)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, ListView(gabinetes, state))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	g, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível consultar o gabinete", nil)
		return
	}
	if g == nil {
		internalhttp.WriteError(w, http.StatusNotFound, "NOT_FOUND", ErrNotFound.Error(), nil)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload gabinetePatchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	g, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateInput{
		Nome:       payload.Nome,
		Vereador:   payload.Vereador,
		Municipio:  payload.Municipio,
		Endereco:   payload.Endereco,
		Cidade:     payload.Cidade,
		Estado:     payload.Estado,
		CEP:        payload.CEP,
		Telefone:   payload.Telefone,
		Email:      payload.Email,
		Site:       payload.Site,
		Instagram:  payload.Instagram,
		Facebook:   payload.Facebook,
		AdminNome:  payload.AdminNome,
		AdminEmail: payload.AdminEmail,
	}, httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	confirmado := r.URL.Query().Get("confirmar") == "true"
	err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), confirmado,
		httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, map[string]bool{"removido": true})
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status   string `json:"status"`
		UserName string `json:"user_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	g, err := h.service.ChangeStatus(r.Context(), chi.URLParam(r, "id"), payload.Status,
		httpmiddleware.GetSubject(r.Context()), payload.UserName, audit.FromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) handleGetCredenciais(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCredenciais(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleSetCredenciais(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Senha    string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	c, err := h.service.SetCredenciais(r.Context(), chi.URLParam(r, "id"), CredenciaisInput{
		Username: payload.Username,
		Email:    payload.Email,
		Senha:    payload.Senha,
	}, httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleRotateSenha(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	err := h.service.RotateSenha(r.Context(), chi.URLParam(r, "id"), payload.Senha,
		httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, map[string]bool{"alterada": true})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	state, err := viewStateFromQuery(r)
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	data, err := h.service.ExportCSV(r.Context(), state,
		httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível exportar gabinetes", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="gabinetes.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func viewStateFromQuery(r *http.Request) (ViewState, error) {
	q := r.URL.Query()
	state := NewViewState()

	if termo := q.Get("busca"); termo != "" {
		state = state.WithBusca(termo)
	}
	if status := q.Get("status"); status != "" {
		state = state.WithStatus(status)
	}
	if campo := q.Get("ordenar_por"); campo != "" {
		state.OrdenarPor = campo
	}
	if direcao := q.Get("direcao"); direcao != "" {
		if direcao != DirecaoAsc && direcao != DirecaoDesc {
			return state, errors.New("direcao deve ser asc ou desc")
		}
		state.Direcao = direcao
	}
	if raw := q.Get("tamanho"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return state, errors.New("tamanho deve ser um inteiro")
		}
		state = state.WithTamanho(n)
	}
	if raw := q.Get("pagina"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return state, errors.New("pagina deve ser um inteiro")
		}
		state = state.WithPagina(n)
	}
	return state, nil
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
