package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// retentionCap limita a coleção às entradas mais recentes após cada insert.
const retentionCap = 1000

// Store abstrai a persistência da trilha, permitindo trocar o Postgres
// por uma implementação em memória em testes.
type Store interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, int, error)
}

// PGStore persiste a trilha em Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore cria o store real.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Insert grava a entrada e aplica a retenção, mantendo apenas as
// retentionCap entradas mais recentes.
func (s *PGStore) Insert(ctx context.Context, entry Entry) error {
	const insert = `
        INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id, details, ip_address, user_agent, created_at)
        VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), $9)
    `
	if _, err := s.pool.Exec(ctx, insert,
		entry.ID,
		entry.UserID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		entry.Details,
		entry.IPAddress,
		entry.UserAgent,
		entry.CreatedAt,
	); err != nil {
		return err
	}

	const trim = `
        DELETE FROM audit_logs
        WHERE id NOT IN (
            SELECT id FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT $1
        )
    `
	_, err := s.pool.Exec(ctx, trim, retentionCap)
	return err
}

// List aplica filtros e devolve a página ordenada da mais recente para a
// mais antiga, junto com o total filtrado antes da paginação.
func (s *PGStore) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	var (
		clauses []string
		args    []any
		idx     = 1
	)

	addClause := func(expr string, value any) {
		clauses = append(clauses, fmt.Sprintf(expr, idx))
		args = append(args, value)
		idx++
	}

	if filter.UserID != "" {
		addClause("user_id = $%d", filter.UserID)
	}
	if filter.Action != "" {
		addClause("action = $%d", strings.ToLower(strings.TrimSpace(filter.Action)))
	}
	if filter.ResourceType != "" {
		addClause("resource_type = $%d", strings.ToLower(strings.TrimSpace(filter.ResourceType)))
	}
	if filter.ResourceID != "" {
		addClause("resource_id = $%d", filter.ResourceID)
	}
	if filter.StartDate != nil {
		addClause("created_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		addClause("created_at <= $%d", *filter.EndDate)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM audit_logs"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, user_id, action, resource_type, COALESCE(resource_id,''), COALESCE(details,''), COALESCE(ip_address,''), COALESCE(user_agent,''), created_at
        FROM audit_logs` + where + " ORDER BY created_at DESC, id DESC"

	// Limit zero significa "sem paginação" (usado pela exportação).
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Details, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return entries, total, nil
}

// MemStore guarda a trilha em memória. Usado em testes e no modo de
// desenvolvimento sem banco.
type MemStore struct {
	mu       sync.Mutex
	entries  []Entry
	failWith error
}

// NewMemStore cria um store vazio em memória.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// FailWith força o próximo Insert a falhar. Útil para exercitar o
// contrato de que falha de auditoria nunca bloqueia a operação primária.
func (s *MemStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Insert anexa a entrada e aplica a retenção.
func (s *MemStore) Insert(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}

	s.entries = append(s.entries, entry)
	if len(s.entries) > retentionCap {
		s.entries = s.entries[len(s.entries)-retentionCap:]
	}
	return nil
}

// List filtra, ordena decrescente por data e pagina.
func (s *MemStore) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var filtered []Entry
	for _, e := range s.entries {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && e.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && e.ResourceID != filter.ResourceID {
			continue
		}
		if filter.StartDate != nil && e.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && e.CreatedAt.After(*filter.EndDate) {
			continue
		}
		filtered = append(filtered, e)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)

	offset := filter.Offset
	if offset > total {
		offset = total
	}
	end := total
	if filter.Limit > 0 && offset+filter.Limit < total {
		end = offset + filter.Limit
	}

	page := make([]Entry, end-offset)
	copy(page, filtered[offset:end])
	return page, total, nil
}

// Len devolve o tamanho atual da coleção (inspeção em testes).
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Oldest devolve a entrada mais antiga ainda retida.
func (s *MemStore) Oldest() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[0], true
}
