package agenda

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gestaozabele/agendamento/internal/agency"
	"github.com/gestaozabele/agendamento/internal/booking"
	httpmiddleware "github.com/gestaozabele/agendamento/internal/http/middleware"
)

// Handler expõe endpoints REST do agendamento.
type Handler struct {
	service   *Service
	directory *agency.Directory
}

func NewHandler(service *Service, directory *agency.Directory) *Handler {
	return &Handler{service: service, directory: directory}
}

// RegisterPublicRoutes registra consultas abertas de órgãos e horários.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/orgaos", h.listOrgaos)
	r.Get("/orgaos/{orgaoID}", h.getOrgao)
	r.Get("/orgaos/{orgaoID}/horarios", h.listHorarios)
}

// RegisterCidadaoRoutes registra as rotas autenticadas do cidadão.
func (h *Handler) RegisterCidadaoRoutes(r chi.Router) {
	r.Post("/agendamentos", h.createAgendamento)
	r.Get("/agendamentos", h.listAgendamentos)
	r.Get("/agendamentos/{agendamentoID}", h.getAgendamento)
	r.Post("/agendamentos/{agendamentoID}/cancel", h.cancelAgendamento)
	r.Post("/agendamentos/{agendamentoID}/reschedule", h.rescheduleAgendamento)
}

// RegisterBalcaoRoutes registra as rotas de atendimento presencial.
func (h *Handler) RegisterBalcaoRoutes(r chi.Router) {
	r.Post("/checkin", h.checkIn)
	r.Get("/agendamentos", h.listAgendamentosOrgao)
}

// RegisterAdminRoutes registra as rotas administrativas.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/estatisticas", h.getEstatisticas)
	r.Post("/agendamentos/{agendamentoID}/status", h.updateStatus)
}

func (h *Handler) listOrgaos(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var orgaos []agency.Agency
	if query == "" {
		orgaos = h.directory.List()
	} else {
		orgaos = h.directory.Search(query)
	}

	writeJSON(w, http.StatusOK, map[string]any{"orgaos": orgaos})
}

func (h *Handler) getOrgao(w http.ResponseWriter, r *http.Request) {
	orgao, err := h.directory.Get(chi.URLParam(r, "orgaoID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "órgão não encontrado", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orgao": orgao})
}

func (h *Handler) listHorarios(w http.ResponseWriter, r *http.Request) {
	orgaoID := chi.URLParam(r, "orgaoID")
	data := strings.TrimSpace(r.URL.Query().Get("data"))
	if data == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "parâmetro data é obrigatório", nil)
		return
	}

	slots, err := h.service.AvailableSlots(r.Context(), orgaoID, data)
	if err != nil {
		if errors.Is(err, agency.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "órgão não encontrado", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "VALIDATION", "data inválida", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": data, "horarios": slots})
}

func (h *Handler) createAgendamento(w http.ResponseWriter, r *http.Request) {
	citizenID, err := subjectAsUUID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		Orgao    string `json:"orgao"`
		Data     string `json:"data"`
		Horario  string `json:"horario"`
		Nome     string `json:"nome"`
		Telefone string `json:"telefone"`
		Email    string `json:"email"`
		Motivo   string `json:"motivo"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	appt, err := h.service.Book(r.Context(), BookingRequest{
		CitizenID: citizenID,
		AgencyID:  payload.Orgao,
		Date:      payload.Data,
		TimeSlot:  payload.Horario,
		Name:      payload.Nome,
		Phone:     payload.Telefone,
		Email:     payload.Email,
		Reason:    payload.Motivo,
	})
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"agendamento": appt})
}

func (h *Handler) listAgendamentos(w http.ResponseWriter, r *http.Request) {
	citizenID, err := subjectAsUUID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"agendamentos": h.service.ListByCitizen(citizenID),
	})
}

func (h *Handler) getAgendamento(w http.ResponseWriter, r *http.Request) {
	citizenID, err := subjectAsUUID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "agendamentoID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	appt, err := h.service.Get(citizenID, id)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"agendamento": appt})
}

func (h *Handler) cancelAgendamento(w http.ResponseWriter, r *http.Request) {
	citizenID, err := subjectAsUUID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "agendamentoID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	appt, err := h.service.Cancel(r.Context(), citizenID, id)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"agendamento": appt})
}

func (h *Handler) rescheduleAgendamento(w http.ResponseWriter, r *http.Request) {
	citizenID, err := subjectAsUUID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "agendamentoID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	var payload struct {
		Data    string `json:"data"`
		Horario string `json:"horario"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	appt, err := h.service.Reschedule(r.Context(), citizenID, id, payload.Data, payload.Horario)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"agendamento": appt})
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Codigo string `json:"codigo"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	appt, err := h.service.CheckIn(r.Context(), payload.Codigo)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "código não encontrado", nil)
		case errors.Is(err, ErrAlreadyCheckedIn):
			writeError(w, http.StatusConflict, "CONFLICT", "check-in já realizado", nil)
		case errors.Is(err, ErrCanceled):
			writeError(w, http.StatusConflict, "CONFLICT", "agendamento cancelado", nil)
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível registrar check-in", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"agendamento": appt})
}

func (h *Handler) listAgendamentosOrgao(w http.ResponseWriter, r *http.Request) {
	orgaoID := httpmiddleware.GetOrgao(r.Context())
	data := strings.TrimSpace(r.URL.Query().Get("data"))

	writeJSON(w, http.StatusOK, map[string]any{
		"agendamentos": h.service.ListByAgency(orgaoID, data),
	})
}

func (h *Handler) getEstatisticas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"estatisticas": h.service.Statistics(),
	})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "agendamentoID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "identificador inválido", nil)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	appt, err := h.service.UpdateStatus(r.Context(), id, payload.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "VALIDATION", "status inválido", nil)
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "agendamento não encontrado", nil)
		default:
			writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível atualizar status", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"agendamento": appt})
}

func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	var guardErr *booking.GuardError
	switch {
	case errors.As(err, &guardErr):
		writeError(w, http.StatusBadRequest, "VALIDATION", guardErr.Error(), map[string]any{
			"etapa": string(guardErr.Step),
		})
	case errors.Is(err, agency.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "órgão não encontrado", nil)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "agendamento não encontrado", nil)
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
	case errors.Is(err, ErrSlotTaken):
		writeError(w, http.StatusConflict, "CONFLICT", "horário já reservado", nil)
	case errors.Is(err, ErrCanceled):
		writeError(w, http.StatusConflict, "CONFLICT", "agendamento cancelado", nil)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível concluir a operação", nil)
	}
}

func subjectAsUUID(r *http.Request) (uuid.UUID, error) {
	subject := httpmiddleware.GetSubject(r.Context())
	return uuid.Parse(subject)
}

type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any        `json:"data"`
	Error *errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Data: nil,
		Error: &errorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
