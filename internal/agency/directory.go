package agency

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Directory mantém o cadastro de órgãos em memória. A carga acontece uma
// única vez na subida da API; depois disso as consultas são somente leitura.
type Directory struct {
	byID  map[string]Agency
	order []string
}

// NewDirectory monta o diretório a partir da lista informada.
func NewDirectory(agencies []Agency) (*Directory, error) {
	d := &Directory{byID: make(map[string]Agency, len(agencies))}
	for _, a := range agencies {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("órgão %q: %w", a.ID, err)
		}
		if _, exists := d.byID[a.ID]; exists {
			return nil, fmt.Errorf("órgão %q duplicado", a.ID)
		}
		d.byID[a.ID] = a
		d.order = append(d.order, a.ID)
	}
	return d, nil
}

// LoadFile carrega o diretório de um arquivo JSON. Arquivo vazio ("")
// seleciona o cadastro padrão embutido.
func LoadFile(path string) (*Directory, error) {
	if path == "" {
		return NewDirectory(defaultAgencies)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ler diretório: %w", err)
	}

	var agencies []Agency
	if err := json.Unmarshal(raw, &agencies); err != nil {
		return nil, fmt.Errorf("decodificar diretório: %w", err)
	}
	return NewDirectory(agencies)
}

// Get busca um órgão pelo id.
func (d *Directory) Get(id string) (Agency, error) {
	a, ok := d.byID[id]
	if !ok {
		return Agency{}, ErrNotFound
	}
	return a, nil
}

// List devolve todos os órgãos na ordem de cadastro.
func (d *Directory) List() []Agency {
	out := make([]Agency, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	return out
}

// Search filtra por nome, descrição ou serviço (case-insensitive).
func (d *Directory) Search(query string) []Agency {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return d.List()
	}

	var out []Agency
	for _, id := range d.order {
		a := d.byID[id]
		if matches(a, query) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func matches(a Agency, query string) bool {
	if strings.Contains(strings.ToLower(a.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(a.Description), query) {
		return true
	}
	for _, svc := range a.Services {
		if strings.Contains(strings.ToLower(svc), query) {
			return true
		}
	}
	return false
}
