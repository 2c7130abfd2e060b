package gabinete

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store abstrai a persistência de gabinetes e credenciais.
type Store interface {
	Insert(ctx context.Context, g Gabinete) error
	Update(ctx context.Context, g Gabinete) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Gabinete, error)
	List(ctx context.Context) ([]Gabinete, error)

	InsertCredenciais(ctx context.Context, c Credenciais) error
	UpdateCredenciais(ctx context.Context, c Credenciais) error
	GetCredenciaisByGabinete(ctx context.Context, gabineteID string) (*Credenciais, error)
	// GetCredenciaisByLogin busca por username ou e-mail, usado no login.
	GetCredenciaisByLogin(ctx context.Context, login string) (*Credenciais, error)
}

// PGStore persiste gabinetes no Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const gabineteColumns = `id, nome, vereador, municipio, endereco, cidade, estado, cep,
    telefone, email, site, instagram, facebook, admin_nome, admin_email,
    status, criado_em, atualizado_em`

func (s *PGStore) Insert(ctx context.Context, g Gabinete) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO gabinetes (`+gabineteColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
    `, g.ID, g.Nome, g.Vereador, g.Municipio, g.Endereco, g.Cidade, g.Estado, g.CEP,
		g.Telefone, g.Email, g.Site, g.Instagram, g.Facebook, g.AdminNome, g.AdminEmail,
		g.Status, g.CriadoEm, g.AtualizadoEm)
	if err != nil {
		return fmt.Errorf("inserir gabinete: %w", err)
	}
	return nil
}

func (s *PGStore) Update(ctx context.Context, g Gabinete) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE gabinetes
           SET nome = $2, vereador = $3, municipio = $4, endereco = $5,
               cidade = $6, estado = $7, cep = $8, telefone = $9, email = $10,
               site = $11, instagram = $12, facebook = $13, admin_nome = $14,
               admin_email = $15, status = $16, atualizado_em = $17
         WHERE id = $1
    `, g.ID, g.Nome, g.Vereador, g.Municipio, g.Endereco, g.Cidade, g.Estado, g.CEP,
		g.Telefone, g.Email, g.Site, g.Instagram, g.Facebook, g.AdminNome, g.AdminEmail,
		g.Status, g.AtualizadoEm)
	if err != nil {
		return fmt.Errorf("atualizar gabinete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM gabinetes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remover gabinete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) GetByID(ctx context.Context, id string) (*Gabinete, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+gabineteColumns+` FROM gabinetes WHERE id = $1`, id)
	g, err := scanGabinete(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultar gabinete: %w", err)
	}
	return g, nil
}

func (s *PGStore) List(ctx context.Context) ([]Gabinete, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+gabineteColumns+` FROM gabinetes ORDER BY criado_em ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listar gabinetes: %w", err)
	}
	defer rows.Close()

	gabinetes := []Gabinete{}
	for rows.Next() {
		g, err := scanGabinete(rows)
		if err != nil {
			return nil, fmt.Errorf("ler gabinete: %w", err)
		}
		gabinetes = append(gabinetes, *g)
	}
	return gabinetes, rows.Err()
}

func scanGabinete(row pgx.Row) (*Gabinete, error) {
	var g Gabinete
	err := row.Scan(&g.ID, &g.Nome, &g.Vereador, &g.Municipio, &g.Endereco, &g.Cidade,
		&g.Estado, &g.CEP, &g.Telefone, &g.Email, &g.Site, &g.Instagram, &g.Facebook,
		&g.AdminNome, &g.AdminEmail, &g.Status, &g.CriadoEm, &g.AtualizadoEm)
	if err != nil {
		return nil, err
	}
	g.CriadoEm = g.CriadoEm.UTC()
	g.AtualizadoEm = g.AtualizadoEm.UTC()
	return &g, nil
}

const credenciaisColumns = `id, gabinete_id, username, email, senha_hash, last_password_change, is_active, criado_em, atualizado_em`

func (s *PGStore) InsertCredenciais(ctx context.Context, c Credenciais) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO gabinete_credenciais (`+credenciaisColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, c.ID, c.GabineteID, c.Username, c.Email, c.SenhaHash, c.LastPasswordChange, c.IsActive, c.CriadoEm, c.AtualizadoEm)
	if err != nil {
		return fmt.Errorf("inserir credenciais: %w", err)
	}
	return nil
}

func (s *PGStore) UpdateCredenciais(ctx context.Context, c Credenciais) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE gabinete_credenciais
           SET username = $2, email = $3, senha_hash = $4,
               last_password_change = $5, is_active = $6, atualizado_em = $7
         WHERE id = $1
    `, c.ID, c.Username, c.Email, c.SenhaHash, c.LastPasswordChange, c.IsActive, c.AtualizadoEm)
	if err != nil {
		return fmt.Errorf("atualizar credenciais: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) GetCredenciaisByGabinete(ctx context.Context, gabineteID string) (*Credenciais, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT `+credenciaisColumns+` FROM gabinete_credenciais WHERE gabinete_id = $1
    `, gabineteID)
	return scanCredenciais(row)
}

func (s *PGStore) GetCredenciaisByLogin(ctx context.Context, login string) (*Credenciais, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT `+credenciaisColumns+`
          FROM gabinete_credenciais
         WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)
    `, login)
	return scanCredenciais(row)
}

func scanCredenciais(row pgx.Row) (*Credenciais, error) {
	var c Credenciais
	err := row.Scan(&c.ID, &c.GabineteID, &c.Username, &c.Email, &c.SenhaHash, &c.LastPasswordChange, &c.IsActive, &c.CriadoEm, &c.AtualizadoEm)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultar credenciais: %w", err)
	}
	return &c, nil
}

// MemStore guarda gabinetes em memória para testes.
type MemStore struct {
	mu          sync.Mutex
	gabinetes   map[string]Gabinete
	credenciais map[string]Credenciais // por gabinete
}

func NewMemStore() *MemStore {
	return &MemStore{
		gabinetes:   map[string]Gabinete{},
		credenciais: map[string]Credenciais{},
	}
}

func (s *MemStore) Insert(_ context.Context, g Gabinete) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gabinetes[g.ID.String()] = g
	return nil
}

func (s *MemStore) Update(_ context.Context, g Gabinete) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gabinetes[g.ID.String()]; !ok {
		return ErrNotFound
	}
	s.gabinetes[g.ID.String()] = g
	return nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gabinetes[id]; !ok {
		return ErrNotFound
	}
	delete(s.gabinetes, id)
	delete(s.credenciais, id)
	return nil
}

func (s *MemStore) GetByID(_ context.Context, id string) (*Gabinete, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gabinetes[id]
	if !ok {
		return nil, nil
	}
	copia := g
	return &copia, nil
}

func (s *MemStore) List(_ context.Context) ([]Gabinete, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Gabinete, 0, len(s.gabinetes))
	for _, g := range s.gabinetes {
		out = append(out, g)
	}
	return out, nil
}

func (s *MemStore) InsertCredenciais(_ context.Context, c Credenciais) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credenciais[c.GabineteID.String()] = c
	return nil
}

func (s *MemStore) UpdateCredenciais(_ context.Context, c Credenciais) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credenciais[c.GabineteID.String()]; !ok {
		return ErrNotFound
	}
	s.credenciais[c.GabineteID.String()] = c
	return nil
}

func (s *MemStore) GetCredenciaisByGabinete(_ context.Context, gabineteID string) (*Credenciais, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credenciais[gabineteID]
	if !ok {
		return nil, nil
	}
	copia := c
	return &copia, nil
}

func (s *MemStore) GetCredenciaisByLogin(_ context.Context, login string) (*Credenciais, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.credenciais {
		if strings.EqualFold(c.Username, login) || strings.EqualFold(c.Email, login) {
			copia := c
			return &copia, nil
		}
	}
	return nil, nil
}
