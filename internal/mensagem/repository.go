package mensagem

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store abstrai a persistência de mensagens.
type Store interface {
	Insert(ctx context.Context, m Mensagem) error
	Delete(ctx context.Context, id string) error
	// ListByGabinete devolve as mensagens do gabinete em ordem
	// cronológica.
	ListByGabinete(ctx context.Context, gabineteID string) ([]Mensagem, error)
	// List aplica filtros e paginação; devolve o total antes da página.
	List(ctx context.Context, filter ListFilter) ([]Mensagem, int, error)
}

// PGStore persiste mensagens no Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const mensagemColumns = `id, gabinete_id, conteudo, anexos, user_id, user_name, "timestamp", is_status_related, status_change`

func (s *PGStore) Insert(ctx context.Context, m Mensagem) error {
	anexos, err := json.Marshal(m.Anexos)
	if err != nil {
		return fmt.Errorf("serializar anexos: %w", err)
	}
	var statusChange []byte
	if m.StatusChange != nil {
		statusChange, err = json.Marshal(m.StatusChange)
		if err != nil {
			return fmt.Errorf("serializar status_change: %w", err)
		}
	}

	_, err = s.pool.Exec(ctx, `
        INSERT INTO mensagens (`+mensagemColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, m.ID, m.GabineteID, m.Conteudo, anexos, m.UserID, m.UserName, m.Timestamp, m.IsStatusRelated, statusChange)
	if err != nil {
		return fmt.Errorf("inserir mensagem: %w", err)
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM mensagens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remover mensagem: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListByGabinete(ctx context.Context, gabineteID string) ([]Mensagem, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+mensagemColumns+`
          FROM mensagens
         WHERE gabinete_id = $1
         ORDER BY "timestamp" ASC, id ASC
    `, gabineteID)
	if err != nil {
		return nil, fmt.Errorf("listar mensagens: %w", err)
	}
	defer rows.Close()
	return scanMensagens(rows)
}

func (s *PGStore) List(ctx context.Context, filter ListFilter) ([]Mensagem, int, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if filter.Search != "" {
		add(`conteudo ILIKE $%d`, "%"+filter.Search+"%")
	}
	if filter.GabineteID != "" {
		add(`gabinete_id = $%d`, filter.GabineteID)
	}
	if filter.Inicio != nil {
		add(`"timestamp" >= $%d`, *filter.Inicio)
	}
	if filter.Fim != nil {
		add(`"timestamp" <= $%d`, *filter.Fim)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM mensagens`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("contar mensagens: %w", err)
	}

	query := `SELECT ` + mensagemColumns + ` FROM mensagens` + where + ` ORDER BY "timestamp" DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
		offset := (filter.Page - 1) * filter.Limit
		if offset > 0 {
			args = append(args, offset)
			query += fmt.Sprintf(` OFFSET $%d`, len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listar mensagens: %w", err)
	}
	defer rows.Close()

	mensagens, err := scanMensagens(rows)
	if err != nil {
		return nil, 0, err
	}
	return mensagens, total, nil
}

func scanMensagens(rows pgx.Rows) ([]Mensagem, error) {
	mensagens := []Mensagem{}
	for rows.Next() {
		var (
			m            Mensagem
			anexos       []byte
			statusChange []byte
		)
		if err := rows.Scan(&m.ID, &m.GabineteID, &m.Conteudo, &anexos, &m.UserID, &m.UserName, &m.Timestamp, &m.IsStatusRelated, &statusChange); err != nil {
			return nil, fmt.Errorf("ler mensagem: %w", err)
		}
		if len(anexos) > 0 {
			if err := json.Unmarshal(anexos, &m.Anexos); err != nil {
				return nil, fmt.Errorf("decodificar anexos: %w", err)
			}
		}
		if m.Anexos == nil {
			m.Anexos = []Anexo{}
		}
		if len(statusChange) > 0 {
			m.StatusChange = &StatusChange{}
			if err := json.Unmarshal(statusChange, m.StatusChange); err != nil {
				return nil, fmt.Errorf("decodificar status_change: %w", err)
			}
		}
		m.Timestamp = m.Timestamp.UTC()
		mensagens = append(mensagens, m)
	}
	return mensagens, rows.Err()
}

// MemStore guarda mensagens em memória para testes.
type MemStore struct {
	mu        sync.Mutex
	mensagens []Mensagem
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Insert(_ context.Context, m Mensagem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mensagens = append(s.mensagens, m)
	return nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.mensagens {
		if m.ID.String() == id {
			s.mensagens = append(s.mensagens[:i], s.mensagens[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemStore) ListByGabinete(_ context.Context, gabineteID string) ([]Mensagem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Mensagem{}
	for _, m := range s.mensagens {
		if m.GabineteID.String() == gabineteID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemStore) List(_ context.Context, filter ListFilter) ([]Mensagem, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtradas := []Mensagem{}
	for _, m := range s.mensagens {
		if filter.Search != "" && !strings.Contains(strings.ToLower(m.Conteudo), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.GabineteID != "" && m.GabineteID.String() != filter.GabineteID {
			continue
		}
		if filter.Inicio != nil && m.Timestamp.Before(*filter.Inicio) {
			continue
		}
		if filter.Fim != nil && m.Timestamp.After(*filter.Fim) {
			continue
		}
		filtradas = append(filtradas, m)
	}
	sort.SliceStable(filtradas, func(i, j int) bool { return filtradas[j].Timestamp.Before(filtradas[i].Timestamp) })

	total := len(filtradas)
	if filter.Limit > 0 {
		inicio := (filter.Page - 1) * filter.Limit
		if inicio < 0 {
			inicio = 0
		}
		if inicio > total {
			inicio = total
		}
		fim := inicio + filter.Limit
		if fim > total {
			fim = total
		}
		filtradas = filtradas[inicio:fim]
	}
	return filtradas, total, nil
}
