package agenda

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store é o dono da coleção de agendamentos. A coleção vive em memória,
// guardada por mutex, e cada mutação reescreve o snapshot completo no
// colaborador de persistência. Registros nunca são removidos: cancelamentos
// permanecem na coleção como histórico.
type Store struct {
	mu      sync.Mutex
	items   []Appointment
	persist Persistence
}

// NewStore cria o store vinculado ao colaborador de persistência.
func NewStore(persist Persistence) *Store {
	return &Store{persist: persist}
}

// Load recupera o snapshot salvo. Deve ser chamado uma vez na subida.
func (s *Store) Load(ctx context.Context) error {
	items, err := s.persist.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

// Create registra um novo agendamento com id e QR code recém-gerados,
// status pending e timestamps correntes. Falha com ErrSlotTaken se já
// existir agendamento não cancelado para (órgão, data, horário).
func (s *Store) Create(ctx context.Context, input CreateInput) (Appointment, error) {
	input.TimeSlot = strings.TrimSpace(input.TimeSlot)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slotTakenLocked(input.AgencyID, input.Date, input.TimeSlot) {
		return Appointment{}, ErrSlotTaken
	}

	now := time.Now().UTC()
	appt := Appointment{
		ID:           uuid.New(),
		CitizenID:    input.CitizenID,
		CitizenName:  strings.TrimSpace(input.CitizenName),
		CitizenPhone: strings.TrimSpace(input.CitizenPhone),
		CitizenEmail: strings.TrimSpace(input.CitizenEmail),
		AgencyID:     input.AgencyID,
		AgencyName:   input.AgencyName,
		Date:         input.Date,
		TimeSlot:     input.TimeSlot,
		Reason:       strings.TrimSpace(input.Reason),
		Status:       StatusPending,
		QRCode:       NewQRCode(),
		CheckedIn:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.items = append(s.items, appt)
	if err := s.saveLocked(ctx); err != nil {
		s.items = s.items[:len(s.items)-1]
		return Appointment{}, err
	}
	return appt, nil
}

// UpdateStatus muda o status e o timestamp de atualização. Id desconhecido
// retorna ErrNotFound.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Appointment, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !IsValidStatus(status) {
		return Appointment{}, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Appointment{}, ErrNotFound
	}

	return s.mutateLocked(ctx, idx, func(a *Appointment) {
		a.Status = status
	})
}

// Cancel equivale a UpdateStatus(id, canceled).
func (s *Store) Cancel(ctx context.Context, id uuid.UUID) (Appointment, error) {
	return s.UpdateStatus(ctx, id, StatusCanceled)
}

// Reschedule troca data e horário e devolve o registro para pending,
// independentemente do status anterior. O novo horário também respeita a
// unicidade de (órgão, data, horário) entre não cancelados.
func (s *Store) Reschedule(ctx context.Context, id uuid.UUID, newDate, newSlot string) (Appointment, error) {
	newSlot = strings.TrimSpace(newSlot)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Appointment{}, ErrNotFound
	}

	current := s.items[idx]
	if current.Date != newDate || current.TimeSlot != newSlot {
		if s.slotTakenLocked(current.AgencyID, newDate, newSlot) {
			return Appointment{}, ErrSlotTaken
		}
	}

	return s.mutateLocked(ctx, idx, func(a *Appointment) {
		a.Date = newDate
		a.TimeSlot = newSlot
		a.Status = StatusPending
	})
}

// CheckIn localiza o agendamento pelo QR code (comparação exata) e confirma
// a presença: marca checked_in, registra o horário e força status confirmed.
// A operação é segura contra repetição: a segunda chamada com o mesmo código
// falha com ErrAlreadyCheckedIn sem alterar o registro.
func (s *Store) CheckIn(ctx context.Context, code string) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.items {
		if s.items[i].QRCode == code {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Appointment{}, ErrNotFound
	}

	switch {
	case s.items[idx].CheckedIn:
		return Appointment{}, ErrAlreadyCheckedIn
	case s.items[idx].Status == StatusCanceled:
		return Appointment{}, ErrCanceled
	}

	now := time.Now().UTC()
	return s.mutateLocked(ctx, idx, func(a *Appointment) {
		a.CheckedIn = true
		a.CheckedInAt = &now
		a.Status = StatusConfirmed
	})
}

// Get busca agendamento pelo id.
func (s *Store) Get(id uuid.UUID) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Appointment{}, ErrNotFound
	}
	return s.items[idx], nil
}

// ListByCitizen devolve os agendamentos do cidadão.
func (s *Store) ListByCitizen(citizenID uuid.UUID) []Appointment {
	return s.filter(func(a Appointment) bool { return a.CitizenID == citizenID })
}

// ListByAgency devolve os agendamentos do órgão; date vazio lista todos.
func (s *Store) ListByAgency(agencyID, date string) []Appointment {
	return s.filter(func(a Appointment) bool {
		if a.AgencyID != agencyID {
			return false
		}
		return date == "" || a.Date == date
	})
}

// BookedSlots lista os rótulos de horário ocupados (status != canceled)
// para o órgão e data informados. É a entrada do gerador de horários.
func (s *Store) BookedSlots(agencyID, date string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var slots []string
	for i := range s.items {
		a := &s.items[i]
		if a.AgencyID == agencyID && a.Date == date && a.Status != StatusCanceled {
			slots = append(slots, a.TimeSlot)
		}
	}
	return slots
}

// Statistics computa as contagens por status sobre toda a coleção.
func (s *Store) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Statistics{Total: len(s.items)}
	for i := range s.items {
		switch s.items[i].Status {
		case StatusPending:
			stats.Pending++
		case StatusConfirmed:
			stats.Confirmed++
		case StatusDone:
			stats.Done++
		case StatusCanceled:
			stats.Canceled++
		}
	}
	return stats
}

func (s *Store) filter(keep func(Appointment) bool) []Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Appointment
	for i := range s.items {
		if keep(s.items[i]) {
			out = append(out, s.items[i])
		}
	}
	return out
}

func (s *Store) indexLocked(id uuid.UUID) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) slotTakenLocked(agencyID, date, slot string) bool {
	for i := range s.items {
		a := &s.items[i]
		if a.AgencyID == agencyID && a.Date == date && a.TimeSlot == slot && a.Status != StatusCanceled {
			return true
		}
	}
	return false
}

// mutateLocked aplica a mutação, persiste o snapshot e desfaz em caso de
// falha de persistência.
func (s *Store) mutateLocked(ctx context.Context, idx int, apply func(*Appointment)) (Appointment, error) {
	previous := s.items[idx]

	apply(&s.items[idx])
	s.items[idx].UpdatedAt = time.Now().UTC()

	if err := s.saveLocked(ctx); err != nil {
		s.items[idx] = previous
		return Appointment{}, err
	}
	return s.items[idx], nil
}

func (s *Store) saveLocked(ctx context.Context) error {
	return s.persist.Save(ctx, s.items)
}
