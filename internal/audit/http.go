package audit

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	internalhttp "github.com/gestaogabinete/gabinete/internal/http"
	httpmiddleware "github.com/gestaogabinete/gabinete/internal/http/middleware"
)

// Handler expõe consultas e exportações da trilha.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auditoria", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/export", h.handleExport)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		if errors.Is(err, ErrInvalidAction) || errors.Is(err, ErrInvalidResource) {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível consultar a auditoria", nil)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	format := r.URL.Query().Get("formato")
	if format == "" {
		format = FormatCSV
	}

	data, err := h.service.Export(r.Context(), filter, format)
	if err != nil {
		if errors.Is(err, ErrInvalidFormat) || errors.Is(err, ErrInvalidAction) || errors.Is(err, ErrInvalidResource) {
			internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível exportar a auditoria", nil)
		return
	}

	// a própria exportação também entra na trilha
	h.service.Record(r.Context(), Entry{
		UserID:       httpmiddleware.GetSubject(r.Context()),
		Action:       ActionExport,
		ResourceType: ResourceReport,
		Details:      "exportação de logs de auditoria (" + format + ")",
	}, FromRequest(r))

	switch format {
	case FormatJSON:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="auditoria.json"`)
	default:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="auditoria.csv"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func filterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	filter := Filter{
		UserID:       strings.TrimSpace(q.Get("usuario")),
		Action:       strings.TrimSpace(q.Get("acao")),
		ResourceType: strings.TrimSpace(q.Get("recurso")),
		ResourceID:   strings.TrimSpace(q.Get("recurso_id")),
	}

	if v := q.Get("inicio"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, ErrInvalidFilter
		}
		filter.StartDate = &ts
	}
	if v := q.Get("fim"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, ErrInvalidFilter
		}
		filter.EndDate = &ts
	}
	if v := q.Get("limite"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, ErrInvalidFilter
		}
		filter.Limit = n
	}
	if v := q.Get("pagina_offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, ErrInvalidFilter
		}
		filter.Offset = n
	}

	return filter, nil
}
