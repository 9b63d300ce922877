package agency

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("agency not found")
)

// Agency representa um órgão de atendimento ao cidadão. Dados de
// referência, imutáveis após a carga do diretório.
type Agency struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	Description string   `json:"description"`
	Services    []string `json:"services"`
	// Janela de funcionamento no formato HH:MM.
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
	// Dias da semana com atendimento (0 = domingo ... 6 = sábado).
	WorkingDays []int `json:"working_days"`
}

// WorksOn indica se o órgão atende no dia da semana informado.
func (a Agency) WorksOn(weekday int) bool {
	for _, d := range a.WorkingDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// Validate garante consistência mínima do cadastro.
func (a Agency) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.New("id obrigatório")
	}
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("nome obrigatório")
	}
	if err := validateClock(a.OpensAt); err != nil {
		return fmt.Errorf("opens_at: %w", err)
	}
	if err := validateClock(a.ClosesAt); err != nil {
		return fmt.Errorf("closes_at: %w", err)
	}
	if len(a.WorkingDays) == 0 {
		return errors.New("working_days obrigatório")
	}
	for _, d := range a.WorkingDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("dia da semana inválido: %d", d)
		}
	}
	return nil
}

func validateClock(value string) error {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return errors.New("esperado formato HH:MM")
	}
	hour, minute := atoi2(parts[0]), atoi2(parts[1])
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return errors.New("horário fora do intervalo")
	}
	return nil
}

func atoi2(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
