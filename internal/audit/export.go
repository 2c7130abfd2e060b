package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Formatos de exportação aceitos.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ErrInvalidFormat indica formato de exportação desconhecido.
var ErrInvalidFormat = errors.New("formato de exportação inválido")

// Export devolve o conjunto filtrado completo (sem paginação) renderizado
// em CSV ou JSON indentado.
func (s *Service) Export(ctx context.Context, filter Filter, format string) ([]byte, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	// exportação ignora a paginação: traz tudo que passou no filtro
	filter.Limit = 0
	filter.Offset = 0

	logs, _, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return renderCSV(logs)
	case FormatJSON:
		return json.MarshalIndent(logs, "", "  ")
	default:
		return nil, ErrInvalidFormat
	}
}

func renderCSV(logs []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"ID", "Usuário", "Ação", "Recurso", "ID do Recurso", "Detalhes", "IP", "User Agent", "Data"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, e := range logs {
		row := []string{
			e.ID.String(),
			e.UserID,
			e.Action,
			e.ResourceType,
			e.ResourceID,
			e.Details,
			e.IPAddress,
			e.UserAgent,
			e.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
