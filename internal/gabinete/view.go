package gabinete

import (
	"sort"
	"strings"
)

// Campos de ordenação da listagem.
const (
	OrdenarNome     = "nome"
	OrdenarVereador = "vereador"
	OrdenarStatus   = "status"
	OrdenarCriadoEm = "criado_em"
)

// Direções de ordenação.
const (
	DirecaoAsc  = "asc"
	DirecaoDesc = "desc"
)

// Densidades de exibição da tabela. Puramente visuais.
const (
	DensidadeCompacta = "compacta"
	DensidadeNormal   = "normal"
	DensidadeEspacosa = "espacosa"
)

// PaddingClass mapeia a densidade em classes fixas de espaçamento
// usadas pela interface. Densidade desconhecida cai no normal.
func PaddingClass(densidade string) string {
	switch densidade {
	case DensidadeCompacta:
		return "py-2 px-3"
	case DensidadeEspacosa:
		return "py-5 px-6"
	default:
		return "py-3 px-4"
	}
}

// Tamanhos de página aceitos na listagem.
var tamanhosPagina = map[int]struct{}{5: {}, 10: {}, 20: {}, 50: {}}

const tamanhoPaginaPadrao = 10

// ViewState descreve filtro, ordenação e paginação da listagem de
// gabinetes. O estado evolui pelos métodos With*, que cuidam de
// reiniciar a página quando o resultado visível muda.
type ViewState struct {
	Busca      string
	Status     string
	OrdenarPor string
	Direcao    string
	Pagina     int
	Tamanho    int
}

// NewViewState devolve o estado inicial da listagem.
func NewViewState() ViewState {
	return ViewState{
		Status:     StatusTodos,
		OrdenarPor: OrdenarNome,
		Direcao:    DirecaoAsc,
		Pagina:     1,
		Tamanho:    tamanhoPaginaPadrao,
	}
}

// WithBusca troca o termo de busca e volta à primeira página.
func (v ViewState) WithBusca(termo string) ViewState {
	v.Busca = termo
	v.Pagina = 1
	return v
}

// WithStatus troca o filtro de status e volta à primeira página.
func (v ViewState) WithStatus(status string) ViewState {
	v.Status = status
	v.Pagina = 1
	return v
}

// WithOrdenacao seleciona o campo de ordenação. Reselecionar o mesmo
// campo inverte a direção; um campo novo volta para ascendente. Em
// ambos os casos a página volta para 1.
func (v ViewState) WithOrdenacao(campo string) ViewState {
	if v.OrdenarPor == campo {
		if v.Direcao == DirecaoAsc {
			v.Direcao = DirecaoDesc
		} else {
			v.Direcao = DirecaoAsc
		}
	} else {
		v.OrdenarPor = campo
		v.Direcao = DirecaoAsc
	}
	v.Pagina = 1
	return v
}

// WithTamanho troca o tamanho de página (valores fora da lista aceita
// caem no padrão) e volta à primeira página.
func (v ViewState) WithTamanho(tamanho int) ViewState {
	if _, ok := tamanhosPagina[tamanho]; !ok {
		tamanho = tamanhoPaginaPadrao
	}
	v.Tamanho = tamanho
	v.Pagina = 1
	return v
}

// WithPagina navega para a página pedida sem mexer nos filtros.
func (v ViewState) WithPagina(pagina int) ViewState {
	if pagina < 1 {
		pagina = 1
	}
	v.Pagina = pagina
	return v
}

// ViewResult é a página corrente da listagem derivada.
type ViewResult struct {
	Itens      []Gabinete `json:"itens"`
	Total      int        `json:"total"`
	Pagina     int        `json:"pagina"`
	TotalPages int        `json:"total_paginas"`
}

// ListView deriva a página visível a partir da coleção completa. A
// derivação é pura: filtra, ordena de forma estável e fatia, sem tocar
// na entrada.
func ListView(gabinetes []Gabinete, state ViewState) ViewResult {
	filtrados := make([]Gabinete, 0, len(gabinetes))
	termo := strings.ToLower(strings.TrimSpace(state.Busca))
	for _, g := range gabinetes {
		if !matchBusca(g, termo) {
			continue
		}
		if state.Status != "" && state.Status != StatusTodos && !strings.EqualFold(g.Status, state.Status) {
			continue
		}
		filtrados = append(filtrados, g)
	}

	sortGabinetes(filtrados, state.OrdenarPor, state.Direcao)

	tamanho := state.Tamanho
	if tamanho <= 0 {
		tamanho = tamanhoPaginaPadrao
	}
	total := len(filtrados)
	totalPages := (total + tamanho - 1) / tamanho

	pagina := state.Pagina
	if pagina < 1 {
		pagina = 1
	}
	inicio := (pagina - 1) * tamanho
	if inicio > total {
		inicio = total
	}
	fim := inicio + tamanho
	if fim > total {
		fim = total
	}

	return ViewResult{
		Itens:      filtrados[inicio:fim],
		Total:      total,
		Pagina:     pagina,
		TotalPages: totalPages,
	}
}

// matchBusca casa o termo contra nome, vereador, município e dados do
// administrador; basta um campo conter o termo.
func matchBusca(g Gabinete, termo string) bool {
	if termo == "" {
		return true
	}
	campos := []string{g.Nome, g.Vereador, g.Municipio, g.AdminNome, g.AdminEmail}
	for _, campo := range campos {
		if strings.Contains(strings.ToLower(campo), termo) {
			return true
		}
	}
	return false
}

func sortGabinetes(gabinetes []Gabinete, campo, direcao string) {
	desc := direcao == DirecaoDesc
	var less func(a, b Gabinete) bool
	switch campo {
	case OrdenarVereador:
		less = func(a, b Gabinete) bool {
			return strings.ToLower(a.Vereador) < strings.ToLower(b.Vereador)
		}
	case OrdenarStatus:
		less = func(a, b Gabinete) bool {
			return strings.ToLower(a.Status) < strings.ToLower(b.Status)
		}
	case OrdenarCriadoEm:
		less = func(a, b Gabinete) bool { return a.CriadoEm.Before(b.CriadoEm) }
	default:
		less = func(a, b Gabinete) bool {
			return strings.ToLower(a.Nome) < strings.ToLower(b.Nome)
		}
	}
	sort.SliceStable(gabinetes, func(i, j int) bool {
		if desc {
			return less(gabinetes[j], gabinetes[i])
		}
		return less(gabinetes[i], gabinetes[j])
	})
}
