package mensagem

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gestaogabinete/gabinete/internal/audit"
	httpmiddleware "github.com/gestaogabinete/gabinete/internal/http/middleware"
)

const maxUploadBytes = 32 << 20

// Handler expõe o mural de mensagens. As rotas e o formato de resposta
// seguem o contrato da interface web existente, sem o envelope padrão.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/messages", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleSend)
		r.Get("/cabinet/{cabinetId}", h.handleListByCabinet)
		r.Post("/attachments", h.handleUploadAttachment)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleListByCabinet(w http.ResponseWriter, r *http.Request) {
	mensagens, err := h.service.ListByGabinete(r.Context(), chi.URLParam(r, "cabinetId"))
	if err != nil {
		writeContractError(w, err)
		return
	}
	writeContractJSON(w, http.StatusOK, mensagens)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeContractError(w, ErrValidacao)
		return
	}

	input := SendInput{
		GabineteID:      r.FormValue("cabinetId"),
		Conteudo:        r.FormValue("content"),
		IsStatusRelated: r.FormValue("isStatusRelated") == "true",
	}
	if raw := r.FormValue("statusChange"); raw != "" {
		var sc StatusChange
		if err := json.Unmarshal([]byte(raw), &sc); err != nil {
			writeContractError(w, ErrValidacao)
			return
		}
		input.StatusChange = &sc
	}

	anexos, err := h.collectAttachments(r)
	if err != nil {
		writeContractError(w, err)
		return
	}
	input.Anexos = anexos

	m, err := h.service.Send(r.Context(), input,
		httpmiddleware.GetSubject(r.Context()),
		r.FormValue("userName"),
		audit.FromRequest(r))
	if err != nil {
		writeContractError(w, err)
		return
	}

	writeContractJSON(w, http.StatusCreated, map[string]any{"message": m})
}

// collectAttachments processa os campos attachment_{n} na ordem do
// índice, preservando a ordem escolhida pelo remetente.
func (h *Handler) collectAttachments(r *http.Request) ([]Anexo, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	names := make([]string, 0, len(r.MultipartForm.File))
	for name := range r.MultipartForm.File {
		if strings.HasPrefix(name, "attachment_") {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return attachmentIndex(names[i]) < attachmentIndex(names[j])
	})

	var anexos []Anexo
	for _, name := range names {
		headers := r.MultipartForm.File[name]
		if len(headers) == 0 {
			continue
		}
		header := headers[0]
		file, err := header.Open()
		if err != nil {
			return nil, ErrValidacao
		}
		body, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, ErrValidacao
		}

		duracao, _ := strconv.ParseFloat(r.FormValue(name+"_duration"), 64)
		anexo, err := h.service.UploadAnexo(r.Context(), header.Filename, header.Header.Get("Content-Type"), body, duracao)
		if err != nil {
			return nil, err
		}
		anexos = append(anexos, *anexo)
	}
	return anexos, nil
}

func attachmentIndex(name string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "attachment_"))
	if err != nil {
		return 0
	}
	return n
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(), chi.URLParam(r, "id"),
		httpmiddleware.GetSubject(r.Context()), audit.FromRequest(r))
	if err != nil {
		writeContractError(w, err)
		return
	}
	writeContractJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "mensagem removida",
	})
}

func (h *Handler) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeContractError(w, ErrValidacao)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeContractError(w, ErrValidacao)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		writeContractError(w, ErrValidacao)
		return
	}

	duracao, _ := strconv.ParseFloat(r.FormValue("duration"), 64)
	anexo, err := h.service.UploadAnexo(r.Context(), header.Filename, header.Header.Get("Content-Type"), body, duracao)
	if err != nil {
		writeContractError(w, err)
		return
	}

	writeContractJSON(w, http.StatusCreated, anexo)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Search:     q.Get("search"),
		GabineteID: q.Get("cabinetId"),
	}
	if raw := q.Get("startDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeContractError(w, ErrValidacao)
			return
		}
		filter.Inicio = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeContractError(w, ErrValidacao)
			return
		}
		filter.Fim = &t
	}
	if raw := q.Get("page"); raw != "" {
		filter.Page, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeContractError(w, err)
		return
	}
	writeContractJSON(w, http.StatusOK, page)
}

func writeContractJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeContractError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidacao):
		writeContractJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": err.Error()})
	case errors.Is(err, ErrNotFound):
		writeContractJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": err.Error()})
	default:
		writeContractJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "erro interno"})
	}
}
