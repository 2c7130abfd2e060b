package pessoa

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/gestaogabinete/gabinete/internal/lgpd"
)

// Store abstrai a persistência de pessoas. A implementação real cifra os
// campos sensíveis antes de gravar; testes usam um stub em memória.
type Store interface {
	Insert(ctx context.Context, p Pessoa) error
	Update(ctx context.Context, p Pessoa) error
	// GetByID exclui registros com remoção lógica.
	GetByID(ctx context.Context, id string) (*Pessoa, error)
	// GetAny inclui registros removidos (trilha de remoção lógica).
	GetAny(ctx context.Context, id string) (*Pessoa, error)
	// List devolve todos os registros não removidos.
	List(ctx context.Context) ([]Pessoa, error)
}

// dadosProtegidos agrupa os campos cifrados em repouso num único blob.
type dadosProtegidos struct {
	CPF         string `json:"cpf,omitempty"`
	RG          string `json:"rg,omitempty"`
	WhatsApp    string `json:"whatsapp,omitempty"`
	Endereco    string `json:"endereco,omitempty"`
	Observacoes string `json:"observacoes,omitempty"`
}

// PGStore persiste pessoas em Postgres com os campos sensíveis cifrados.
type PGStore struct {
	pool   *pgxpool.Pool
	cipher *lgpd.Cipher
}

// NewPGStore cria o store real.
func NewPGStore(pool *pgxpool.Pool, cipher *lgpd.Cipher) *PGStore {
	return &PGStore{pool: pool, cipher: cipher}
}

const pessoaColumns = `
    id, nome, COALESCE(email,''), COALESCE(telefone,''), nascimento,
    COALESCE(cidade,''), COALESCE(estado,''), COALESCE(relacionamento,''),
    COALESCE(dados_protegidos,''), interacoes,
    criado_em, atualizado_em, COALESCE(criado_por,''), COALESCE(atualizado_por,''), removido_em`

// Insert grava um novo registro.
func (s *PGStore) Insert(ctx context.Context, p Pessoa) error {
	blob, interacoes, err := s.encode(p)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO pessoas (id, nome, email, telefone, nascimento, cidade, estado, relacionamento,
                             dados_protegidos, interacoes, criado_em, atualizado_em, criado_por, atualizado_por, removido_em)
        VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5, NULLIF($6,''), NULLIF($7,''), NULLIF($8,''),
                $9, $10, $11, $12, NULLIF($13,''), NULLIF($14,''), $15)
    `
	_, err = s.pool.Exec(ctx, query,
		p.ID, p.Nome, p.Email, p.Telefone, p.Nascimento, p.Cidade, p.Estado, p.Relacionamento,
		blob, interacoes, p.CriadoEm, p.AtualizadoEm, p.CriadoPor, p.AtualizadoPor, p.RemovidoEm,
	)
	return err
}

// Update substitui o registro inteiro (inclusive interações embutidas).
func (s *PGStore) Update(ctx context.Context, p Pessoa) error {
	blob, interacoes, err := s.encode(p)
	if err != nil {
		return err
	}

	const query = `
        UPDATE pessoas
        SET nome = $2, email = NULLIF($3,''), telefone = NULLIF($4,''), nascimento = $5,
            cidade = NULLIF($6,''), estado = NULLIF($7,''), relacionamento = NULLIF($8,''),
            dados_protegidos = $9, interacoes = $10, atualizado_em = $11,
            atualizado_por = NULLIF($12,''), removido_em = $13
        WHERE id = $1
    `
	tag, err := s.pool.Exec(ctx, query,
		p.ID, p.Nome, p.Email, p.Telefone, p.Nascimento, p.Cidade, p.Estado, p.Relacionamento,
		blob, interacoes, p.AtualizadoEm, p.AtualizadoPor, p.RemovidoEm,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID busca registro ativo (não removido). Devolve nil sem erro
// quando não existe.
func (s *PGStore) GetByID(ctx context.Context, id string) (*Pessoa, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+pessoaColumns+" FROM pessoas WHERE id = $1 AND removido_em IS NULL", id)
	return s.scan(row)
}

// GetAny busca registro mesmo removido.
func (s *PGStore) GetAny(ctx context.Context, id string) (*Pessoa, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+pessoaColumns+" FROM pessoas WHERE id = $1", id)
	return s.scan(row)
}

// List devolve todos os registros ativos em ordem de cadastro.
func (s *PGStore) List(ctx context.Context) ([]Pessoa, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+pessoaColumns+" FROM pessoas WHERE removido_em IS NULL ORDER BY criado_em ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pessoas []Pessoa
	for rows.Next() {
		p, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		pessoas = append(pessoas, *p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return pessoas, nil
}

func (s *PGStore) encode(p Pessoa) (string, []byte, error) {
	protegido, err := json.Marshal(dadosProtegidos{
		CPF:         p.CPF,
		RG:          p.RG,
		WhatsApp:    p.WhatsApp,
		Endereco:    p.Endereco,
		Observacoes: p.Observacoes,
	})
	if err != nil {
		return "", nil, err
	}

	blob, err := s.cipher.Encrypt(string(protegido))
	if err != nil {
		return "", nil, err
	}

	if p.Interacoes == nil {
		p.Interacoes = []Interacao{}
	}
	interacoes, err := json.Marshal(p.Interacoes)
	if err != nil {
		return "", nil, err
	}

	return blob, interacoes, nil
}

func (s *PGStore) scan(row pgx.Row) (*Pessoa, error) {
	var (
		p          Pessoa
		blob       string
		interacoes []byte
	)
	err := row.Scan(&p.ID, &p.Nome, &p.Email, &p.Telefone, &p.Nascimento,
		&p.Cidade, &p.Estado, &p.Relacionamento,
		&blob, &interacoes,
		&p.CriadoEm, &p.AtualizadoEm, &p.CriadoPor, &p.AtualizadoPor, &p.RemovidoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	// Blob corrompido degrada para campos vazios: a leitura nunca falha
	// por causa da cifragem em repouso.
	if blob != "" {
		if texto, err := s.cipher.Decrypt(blob); err != nil {
			log.Warn().Err(err).Str("pessoa_id", p.ID.String()).Msg("pessoa: blob protegido ilegível, campos sensíveis omitidos")
		} else {
			var protegido dadosProtegidos
			if err := json.Unmarshal([]byte(texto), &protegido); err != nil {
				log.Warn().Err(err).Str("pessoa_id", p.ID.String()).Msg("pessoa: blob protegido malformado")
			} else {
				p.CPF = protegido.CPF
				p.RG = protegido.RG
				p.WhatsApp = protegido.WhatsApp
				p.Endereco = protegido.Endereco
				p.Observacoes = protegido.Observacoes
			}
		}
	}

	if len(interacoes) > 0 {
		if err := json.Unmarshal(interacoes, &p.Interacoes); err != nil {
			return nil, err
		}
	}
	if p.Interacoes == nil {
		p.Interacoes = []Interacao{}
	}

	normalizeTimes(&p)
	return &p, nil
}

// normalizeTimes garante UTC em todos os carimbos lidos do banco.
func normalizeTimes(p *Pessoa) {
	p.CriadoEm = p.CriadoEm.UTC()
	p.AtualizadoEm = p.AtualizadoEm.UTC()
	if p.Nascimento != nil {
		t := p.Nascimento.UTC()
		p.Nascimento = &t
	}
	if p.RemovidoEm != nil {
		t := p.RemovidoEm.UTC()
		p.RemovidoEm = &t
	}
}
