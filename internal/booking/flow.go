package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/gestaozabele/agendamento/internal/agency"
)

// Step identifica as etapas do fluxo de reserva.
type Step string

const (
	StepDate    Step = "date"
	StepTime    Step = "time"
	StepInfo    Step = "info"
	StepConfirm Step = "confirm"
)

// Horizon limita quão longe no futuro um atendimento pode ser marcado.
const Horizon = 30 * 24 * time.Hour

// DateLayout é o formato de calendário usado em toda a API.
const DateLayout = "2006-01-02"

// GuardError descreve a guarda violada em uma etapa do fluxo.
type GuardError struct {
	Step   Step
	Reason string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("etapa %s: %s", e.Step, e.Reason)
}

func guard(step Step, reason string) error {
	return &GuardError{Step: step, Reason: reason}
}

// ParseDate valida uma data de calendário no formato da API.
func ParseDate(value string) (time.Time, error) {
	day, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, guard(StepDate, "data inválida")
	}
	return day, nil
}

// SlotOption é a visão do fluxo sobre um horário ofertado.
type SlotOption struct {
	Label     string
	Available bool
}

// Flow é a máquina de estados linear do fluxo de reserva:
// date → time → info → confirm. Cada etapa só é alcançada completando a
// anterior; Back permite retornar uma etapa sem perder as escolhas feitas.
type Flow struct {
	agency agency.Agency
	now    time.Time

	step     Step
	date     string
	timeSlot string
	name     string
	phone    string
	email    string
	reason   string
}

// NewFlow inicia o fluxo na etapa de escolha de data.
func NewFlow(org agency.Agency, now time.Time) *Flow {
	return &Flow{agency: org, now: now, step: StepDate}
}

// Step devolve a etapa corrente.
func (f *Flow) Step() Step { return f.step }

// Date devolve a data escolhida (após SelectDate).
func (f *Flow) Date() string { return f.date }

// TimeSlot devolve o horário escolhido (após SelectTime).
func (f *Flow) TimeSlot() string { return f.timeSlot }

// SelectDate aplica as guardas da etapa de data: não pode estar no passado,
// não pode passar do horizonte de 30 dias e precisa cair em dia de
// atendimento do órgão. Sucesso avança para a escolha de horário.
func (f *Flow) SelectDate(value string) error {
	if f.step != StepDate {
		return guard(f.step, "etapa de data já concluída")
	}

	day, err := ParseDate(value)
	if err != nil {
		return err
	}

	today := time.Date(f.now.Year(), f.now.Month(), f.now.Day(), 0, 0, 0, 0, f.now.Location())
	chosen := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, f.now.Location())

	if chosen.Before(today) {
		return guard(StepDate, "data no passado")
	}
	if chosen.After(today.Add(Horizon)) {
		return guard(StepDate, "data além de 30 dias")
	}
	if !f.agency.WorksOn(int(chosen.Weekday())) {
		return guard(StepDate, "órgão não atende nesse dia")
	}

	f.date = chosen.Format(DateLayout)
	f.step = StepTime
	return nil
}

// SelectTime exige um horário ofertado e disponível para a data escolhida.
func (f *Flow) SelectTime(label string, offered []SlotOption) error {
	if f.step != StepTime {
		return guard(f.step, "escolha a data antes do horário")
	}

	label = strings.TrimSpace(label)
	for _, slot := range offered {
		if slot.Label != label {
			continue
		}
		if !slot.Available {
			return guard(StepTime, "horário indisponível")
		}
		f.timeSlot = label
		f.step = StepInfo
		return nil
	}
	return guard(StepTime, "horário fora do expediente")
}

// FillInfo exige nome, telefone, e-mail e motivo não vazios.
func (f *Flow) FillInfo(name, phone, email, reason string) error {
	if f.step != StepInfo {
		return guard(f.step, "conclua as etapas anteriores")
	}

	fields := []struct{ value, label string }{
		{name, "nome"},
		{phone, "telefone"},
		{email, "e-mail"},
		{reason, "motivo"},
	}
	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return guard(StepInfo, field.label+" obrigatório")
		}
	}

	f.name = strings.TrimSpace(name)
	f.phone = strings.TrimSpace(phone)
	f.email = strings.TrimSpace(email)
	f.reason = strings.TrimSpace(reason)
	f.step = StepConfirm
	return nil
}

// Confirm encerra o fluxo; só é válido com todas as etapas completas.
func (f *Flow) Confirm() error {
	if f.step != StepConfirm {
		return guard(f.step, "fluxo incompleto")
	}
	return nil
}

// Back retorna uma etapa sem descartar as escolhas já feitas. Navegação
// regressiva é sempre permitida, exceto na primeira etapa.
func (f *Flow) Back() {
	switch f.step {
	case StepTime:
		f.step = StepDate
	case StepInfo:
		f.step = StepTime
	case StepConfirm:
		f.step = StepInfo
	}
}
