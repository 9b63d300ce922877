package agenda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/agendamento/internal/agency"
	"github.com/gestaozabele/agendamento/internal/booking"
	"github.com/gestaozabele/agendamento/internal/mailer"
)

var (
	ErrForbidden = errors.New("forbidden")
)

const (
	slotCacheTTL = 30 * time.Second
	mailTimeout  = 5 * time.Second
)

// Service concentra as regras de agendamento: geração de horários,
// criação via fluxo de reserva, remarcação, cancelamento, check-in e
// estatísticas administrativas.
type Service struct {
	directory *agency.Directory
	store     *Store
	mailer    mailer.Mailer
	cache     *redis.Client
}

// NewService cria o serviço. cache e mailer podem ser nil.
func NewService(directory *agency.Directory, store *Store, sender mailer.Mailer, cache *redis.Client) *Service {
	return &Service{directory: directory, store: store, mailer: sender, cache: cache}
}

// BookingRequest transporta todas as escolhas do fluxo de reserva.
type BookingRequest struct {
	CitizenID uuid.UUID
	AgencyID  string
	Date      string
	TimeSlot  string
	Name      string
	Phone     string
	Email     string
	Reason    string
}

// AvailableSlots calcula os horários do órgão na data, marcando ocupação a
// partir dos agendamentos não cancelados. Resultado fica em cache por um
// intervalo curto e é invalidado pelas mutações.
func (s *Service) AvailableSlots(ctx context.Context, agencyID, date string) ([]TimeSlot, error) {
	org, err := s.directory.Get(agencyID)
	if err != nil {
		return nil, err
	}
	if _, err := booking.ParseDate(date); err != nil {
		return nil, err
	}

	key := slotCacheKey(agencyID, date)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var slots []TimeSlot
			if json.Unmarshal(raw, &slots) == nil {
				return slots, nil
			}
		}
	}

	slots := GenerateSlots(org.OpensAt, org.ClosesAt, s.store.BookedSlots(agencyID, date))

	if s.cache != nil {
		if payload, err := json.Marshal(slots); err == nil {
			_ = s.cache.Set(ctx, key, payload, slotCacheTTL).Err()
		}
	}

	return slots, nil
}

// Book percorre o fluxo data → horário → dados → confirmação com todas as
// guardas e, ao confirmar, cria o agendamento e dispara a confirmação por
// e-mail (melhor esforço).
func (s *Service) Book(ctx context.Context, req BookingRequest) (Appointment, error) {
	org, err := s.directory.Get(req.AgencyID)
	if err != nil {
		return Appointment{}, err
	}

	flow := booking.NewFlow(org, time.Now())
	if err := flow.SelectDate(req.Date); err != nil {
		return Appointment{}, err
	}

	slots := GenerateSlots(org.OpensAt, org.ClosesAt, s.store.BookedSlots(org.ID, flow.Date()))
	labels := make([]booking.SlotOption, len(slots))
	for i, slot := range slots {
		labels[i] = booking.SlotOption{Label: slot.Time, Available: slot.Available}
	}
	if err := flow.SelectTime(req.TimeSlot, labels); err != nil {
		return Appointment{}, err
	}
	if err := flow.FillInfo(req.Name, req.Phone, req.Email, req.Reason); err != nil {
		return Appointment{}, err
	}
	if err := flow.Confirm(); err != nil {
		return Appointment{}, err
	}

	appt, err := s.store.Create(ctx, CreateInput{
		CitizenID:    req.CitizenID,
		CitizenName:  req.Name,
		CitizenPhone: req.Phone,
		CitizenEmail: req.Email,
		AgencyID:     org.ID,
		AgencyName:   org.Name,
		Date:         flow.Date(),
		TimeSlot:     flow.TimeSlot(),
		Reason:       req.Reason,
	})
	if err != nil {
		return Appointment{}, err
	}

	s.invalidateSlots(ctx, appt.AgencyID, appt.Date)
	s.sendConfirmation(appt)

	return appt, nil
}

// Reschedule valida as guardas de data/horário e remarca, devolvendo o
// agendamento para pending. Somente o dono pode remarcar.
func (s *Service) Reschedule(ctx context.Context, citizenID, id uuid.UUID, newDate, newSlot string) (Appointment, error) {
	current, err := s.store.Get(id)
	if err != nil {
		return Appointment{}, err
	}
	if current.CitizenID != citizenID {
		return Appointment{}, ErrForbidden
	}

	org, err := s.directory.Get(current.AgencyID)
	if err != nil {
		return Appointment{}, err
	}

	flow := booking.NewFlow(org, time.Now())
	if err := flow.SelectDate(newDate); err != nil {
		return Appointment{}, err
	}

	booked := s.store.BookedSlots(org.ID, flow.Date())
	// o horário atual do próprio agendamento não conta como ocupado
	if current.Date == flow.Date() {
		booked = without(booked, current.TimeSlot)
	}
	slots := GenerateSlots(org.OpensAt, org.ClosesAt, booked)
	labels := make([]booking.SlotOption, len(slots))
	for i, slot := range slots {
		labels[i] = booking.SlotOption{Label: slot.Time, Available: slot.Available}
	}
	if err := flow.SelectTime(newSlot, labels); err != nil {
		return Appointment{}, err
	}

	appt, err := s.store.Reschedule(ctx, id, flow.Date(), flow.TimeSlot())
	if err != nil {
		return Appointment{}, err
	}

	s.invalidateSlots(ctx, appt.AgencyID, current.Date)
	s.invalidateSlots(ctx, appt.AgencyID, appt.Date)
	return appt, nil
}

// Cancel cancela o agendamento do cidadão. O registro permanece na coleção.
func (s *Service) Cancel(ctx context.Context, citizenID, id uuid.UUID) (Appointment, error) {
	current, err := s.store.Get(id)
	if err != nil {
		return Appointment{}, err
	}
	if current.CitizenID != citizenID {
		return Appointment{}, ErrForbidden
	}

	appt, err := s.store.Cancel(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	s.invalidateSlots(ctx, appt.AgencyID, appt.Date)
	return appt, nil
}

// CheckIn normaliza o código digitado ou lido no balcão e confirma a
// presença do cidadão.
func (s *Service) CheckIn(ctx context.Context, code string) (Appointment, error) {
	code = NormalizeCode(code)
	if code == "" {
		return Appointment{}, ErrNotFound
	}
	return s.store.CheckIn(ctx, code)
}

// UpdateStatus é a mutação administrativa de status.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Appointment, error) {
	appt, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return Appointment{}, err
	}
	s.invalidateSlots(ctx, appt.AgencyID, appt.Date)
	return appt, nil
}

// Get devolve o agendamento, restrito ao dono.
func (s *Service) Get(citizenID, id uuid.UUID) (Appointment, error) {
	appt, err := s.store.Get(id)
	if err != nil {
		return Appointment{}, err
	}
	if appt.CitizenID != citizenID {
		return Appointment{}, ErrForbidden
	}
	return appt, nil
}

// ListByCitizen lista os agendamentos do cidadão autenticado.
func (s *Service) ListByCitizen(citizenID uuid.UUID) []Appointment {
	return s.store.ListByCitizen(citizenID)
}

// ListByAgency lista os agendamentos do órgão, opcionalmente por data.
func (s *Service) ListByAgency(agencyID, date string) []Appointment {
	return s.store.ListByAgency(agencyID, date)
}

// Statistics agrega contagens por status.
func (s *Service) Statistics() Statistics {
	return s.store.Statistics()
}

func (s *Service) invalidateSlots(ctx context.Context, agencyID, date string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, slotCacheKey(agencyID, date)).Err()
}

// sendConfirmation dispara o e-mail de confirmação sem bloquear a resposta.
// Falha de entrega apenas gera log; o agendamento já está persistido.
func (s *Service) sendConfirmation(appt Appointment) {
	if s.mailer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		err := s.mailer.SendConfirmation(ctx, mailer.Confirmation{
			To:          appt.CitizenEmail,
			CitizenName: appt.CitizenName,
			AgencyName:  appt.AgencyName,
			Date:        appt.Date,
			TimeSlot:    appt.TimeSlot,
			Reason:      appt.Reason,
			QRCode:      appt.QRCode,
		})
		if err != nil {
			log.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("confirmação por e-mail falhou")
		}
	}()
}

func slotCacheKey(agencyID, date string) string {
	return fmt.Sprintf("agendamento:slots:%s:%s", agencyID, date)
}

func without(labels []string, drop string) []string {
	out := labels[:0]
	for _, label := range labels {
		if label != drop {
			out = append(out, label)
		}
	}
	return out
}
