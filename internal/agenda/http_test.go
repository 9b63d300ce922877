package agenda

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gestaozabele/agendamento/internal/agency"
	"github.com/gestaozabele/agendamento/internal/booking"
	httpmiddleware "github.com/gestaozabele/agendamento/internal/http/middleware"
)

func testDirectory(t *testing.T) *agency.Directory {
	t.Helper()
	directory, err := agency.NewDirectory([]agency.Agency{{
		ID:          "orgao-teste",
		Name:        "Órgão de Teste",
		Address:     "Rua Principal, 100",
		Phone:       "(89) 3000-0000",
		Email:       "atendimento@teste.gov.br",
		Description: "Atendimento geral",
		Services:    []string{"Protocolo"},
		OpensAt:     "08:00",
		ClosesAt:    "12:00",
		WorkingDays: []int{0, 1, 2, 3, 4, 5, 6},
	}})
	if err != nil {
		t.Fatalf("directory: %v", err)
	}
	return directory
}

func testHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	directory := testDirectory(t)
	store := NewStore(NewMemoryPersistence())
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	service := NewService(directory, store, nil, nil)
	return NewHandler(service, directory), service
}

func nextBookableDate() string {
	return time.Now().AddDate(0, 0, 1).Format(booking.DateLayout)
}

func withCidadao(req *http.Request, citizenID uuid.UUID) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeySubject, citizenID.String())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyRoles, []string{"CIDADAO"})
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyAudience, "cidadao")
	return req.WithContext(ctx)
}

func withBalcao(req *http.Request, orgaoID string) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeySubject, uuid.NewString())
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyRoles, []string{"ATENDENTE"})
	ctx = context.WithValue(ctx, httpmiddleware.ContextKeyAudience, "backoffice")
	ctx = httpmiddleware.SetOrgao(ctx, orgaoID)
	return req.WithContext(ctx)
}

func jsonBody(t *testing.T, body any) *bytes.Buffer {
	t.Helper()
	if body == nil {
		return bytes.NewBuffer(nil)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewBuffer(raw)
}

func TestOrgaosEndpoints(t *testing.T) {
	handler, _ := testHandler(t)

	r := chi.NewRouter()
	handler.RegisterPublicRoutes(r)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"lista", "/orgaos", http.StatusOK},
		{"busca", "/orgaos?q=protocolo", http.StatusOK},
		{"detalhe", "/orgaos/orgao-teste", http.StatusOK},
		{"inexistente", "/orgaos/orgao-nada", http.StatusNotFound},
		{"horarios", "/orgaos/orgao-teste/horarios?data=" + nextBookableDate(), http.StatusOK},
		{"horarios-sem-data", "/orgaos/orgao-teste/horarios", http.StatusBadRequest},
		{"horarios-data-invalida", "/orgaos/orgao-teste/horarios?data=14-09-2026", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHorariosMarcadosAposReserva(t *testing.T) {
	handler, service := testHandler(t)
	citizenID := uuid.New()
	date := nextBookableDate()

	if _, err := service.Book(context.Background(), BookingRequest{
		CitizenID: citizenID,
		AgencyID:  "orgao-teste",
		Date:      date,
		TimeSlot:  "09:00",
		Name:      "Maria Silva",
		Phone:     "(89) 99999-0000",
		Email:     "maria@example.com",
		Reason:    "Protocolo",
	}); err != nil {
		t.Fatalf("book: %v", err)
	}

	r := chi.NewRouter()
	handler.RegisterPublicRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/orgaos/orgao-teste/horarios?data="+date, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			Horarios []TimeSlot `json:"horarios"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}

	found := false
	for _, slot := range envelope.Data.Horarios {
		if slot.Time == "09:00" {
			found = true
			if slot.Available {
				t.Fatal("expected 09:00 to be unavailable")
			}
		}
	}
	if !found {
		t.Fatal("expected 09:00 in the grid")
	}
}

func TestFluxoAgendamentoCidadao(t *testing.T) {
	handler, _ := testHandler(t)
	citizenID := uuid.New()
	date := nextBookableDate()

	r := chi.NewRouter()
	handler.RegisterCidadaoRoutes(r)

	payload := map[string]any{
		"orgao":    "orgao-teste",
		"data":     date,
		"horario":  "09:00",
		"nome":     "Maria Silva",
		"telefone": "(89) 99999-0000",
		"email":    "maria@example.com",
		"motivo":   "Protocolo",
	}

	req := withCidadao(httptest.NewRequest(http.MethodPost, "/agendamentos", jsonBody(t, payload)), citizenID)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data struct {
			Agendamento Appointment `json:"agendamento"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	appt := created.Data.Agendamento
	if appt.Status != StatusPending {
		t.Fatalf("expected pending got %s", appt.Status)
	}

	// mesma vaga duas vezes conflita
	req = withCidadao(httptest.NewRequest(http.MethodPost, "/agendamentos", jsonBody(t, payload)), uuid.New())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for taken slot got %d", rec.Code)
	}

	// listagem devolve o registro do dono
	req = withCidadao(httptest.NewRequest(http.MethodGet, "/agendamentos", nil), citizenID)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	// outro cidadão não enxerga o agendamento
	req = withCidadao(httptest.NewRequest(http.MethodGet, "/agendamentos/"+appt.ID.String(), nil), uuid.New())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}

	// remarcação pelo dono
	req = withCidadao(httptest.NewRequest(http.MethodPost, "/agendamentos/"+appt.ID.String()+"/reschedule",
		jsonBody(t, map[string]any{"data": date, "horario": "10:00"})), citizenID)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	// cancelamento pelo dono
	req = withCidadao(httptest.NewRequest(http.MethodPost, "/agendamentos/"+appt.ID.String()+"/cancel", nil), citizenID)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestAgendamentoDataInvalida(t *testing.T) {
	handler, _ := testHandler(t)

	r := chi.NewRouter()
	handler.RegisterCidadaoRoutes(r)

	payload := map[string]any{
		"orgao":    "orgao-teste",
		"data":     time.Now().AddDate(0, 0, -1).Format(booking.DateLayout),
		"horario":  "09:00",
		"nome":     "Maria Silva",
		"telefone": "(89) 99999-0000",
		"email":    "maria@example.com",
		"motivo":   "Protocolo",
	}

	req := withCidadao(httptest.NewRequest(http.MethodPost, "/agendamentos", jsonBody(t, payload)), uuid.New())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Etapa string `json:"etapa"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Details.Etapa != "date" {
		t.Fatalf("expected date step got %q", envelope.Error.Details.Etapa)
	}
}

func TestAgendamentoHorarioComEspacos(t *testing.T) {
	handler, _ := testHandler(t)
	date := nextBookableDate()

	r := chi.NewRouter()
	handler.RegisterCidadaoRoutes(r)

	payload := map[string]any{
		"orgao":    "orgao-teste",
		"data":     date,
		"horario":  " 09:00 ",
		"nome":     "Maria Silva",
		"telefone": "(89) 99999-0000",
		"email":    "maria@example.com",
		"motivo":   "Protocolo",
	}

	req := withCidadao(httptest.NewRequest(http.MethodPost, "/agendamentos", jsonBody(t, payload)), uuid.New())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data struct {
			Agendamento Appointment `json:"agendamento"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Data.Agendamento.TimeSlot != "09:00" {
		t.Fatalf("expected horario 09:00 got %q", created.Data.Agendamento.TimeSlot)
	}

	// a vaga canônica está ocupada a partir de agora
	payload["horario"] = "09:00"
	req = withCidadao(httptest.NewRequest(http.MethodPost, "/agendamentos", jsonBody(t, payload)), uuid.New())
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for taken slot got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBalcaoCheckIn(t *testing.T) {
	handler, service := testHandler(t)
	date := nextBookableDate()

	appt, err := service.Book(context.Background(), BookingRequest{
		CitizenID: uuid.New(),
		AgencyID:  "orgao-teste",
		Date:      date,
		TimeSlot:  "09:00",
		Name:      "Maria Silva",
		Phone:     "(89) 99999-0000",
		Email:     "maria@example.com",
		Reason:    "Protocolo",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	r := chi.NewRouter()
	handler.RegisterBalcaoRoutes(r)

	// código com espaços e minúsculas é normalizado
	req := withBalcao(httptest.NewRequest(http.MethodPost, "/checkin",
		jsonBody(t, map[string]any{"codigo": "  " + appt.QRCode + "  "})), "orgao-teste")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	// repetição conflita
	req = withBalcao(httptest.NewRequest(http.MethodPost, "/checkin",
		jsonBody(t, map[string]any{"codigo": appt.QRCode})), "orgao-teste")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}

	// código desconhecido
	req = withBalcao(httptest.NewRequest(http.MethodPost, "/checkin",
		jsonBody(t, map[string]any{"codigo": "APT-NADA-0000"})), "orgao-teste")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}

	// fila do dia do órgão
	req = withBalcao(httptest.NewRequest(http.MethodGet, "/agendamentos?data="+date, nil), "orgao-teste")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	handler, service := testHandler(t)
	date := nextBookableDate()

	appt, err := service.Book(context.Background(), BookingRequest{
		CitizenID: uuid.New(),
		AgencyID:  "orgao-teste",
		Date:      date,
		TimeSlot:  "09:00",
		Name:      "Maria Silva",
		Phone:     "(89) 99999-0000",
		Email:     "maria@example.com",
		Reason:    "Protocolo",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	r := chi.NewRouter()
	handler.RegisterAdminRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/agendamentos/"+appt.ID.String()+"/status",
		jsonBody(t, map[string]any{"status": "done"}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/agendamentos/"+uuid.NewString()+"/status",
		jsonBody(t, map[string]any{"status": "done"}))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/agendamentos/"+appt.ID.String()+"/status",
		jsonBody(t, map[string]any{"status": "nada"}))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/estatisticas", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			Estatisticas Statistics `json:"estatisticas"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Estatisticas.Total != 1 || envelope.Data.Estatisticas.Done != 1 {
		t.Fatalf("unexpected stats %+v", envelope.Data.Estatisticas)
	}
}
