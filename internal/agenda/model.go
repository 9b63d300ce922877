package agenda

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("appointment not found")
	ErrAlreadyCheckedIn = errors.New("appointment already checked in")
	ErrCanceled         = errors.New("appointment canceled")
	ErrSlotTaken        = errors.New("slot already booked")
	ErrInvalidStatus    = errors.New("invalid status")
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusDone      = "done"
	StatusCanceled  = "canceled"
)

var validStatuses = map[string]struct{}{
	StatusPending:   {},
	StatusConfirmed: {},
	StatusDone:      {},
	StatusCanceled:  {},
}

// IsValidStatus indica se o status é aceito.
func IsValidStatus(status string) bool {
	_, ok := validStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// Appointment representa um agendamento de atendimento presencial.
// Nome e contato do cidadão e o nome do órgão são desnormalizados no
// registro, preservando o comprovante mesmo que o cadastro mude depois.
type Appointment struct {
	ID           uuid.UUID  `json:"id"`
	CitizenID    uuid.UUID  `json:"citizen_id"`
	CitizenName  string     `json:"citizen_name"`
	CitizenPhone string     `json:"citizen_phone"`
	CitizenEmail string     `json:"citizen_email"`
	AgencyID     string     `json:"agency_id"`
	AgencyName   string     `json:"agency_name"`
	Date         string     `json:"date"`      // calendário, YYYY-MM-DD
	TimeSlot     string     `json:"time_slot"` // rótulo HH:MM
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	QRCode       string     `json:"qr_code"`
	CheckedIn    bool       `json:"checked_in"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateInput encapsula os campos de um novo agendamento.
type CreateInput struct {
	CitizenID    uuid.UUID
	CitizenName  string
	CitizenPhone string
	CitizenEmail string
	AgencyID     string
	AgencyName   string
	Date         string
	TimeSlot     string
	Reason       string
}

// Statistics agrega contagens por status sobre toda a coleção.
type Statistics struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Done      int `json:"done"`
	Canceled  int `json:"canceled"`
}

const qrAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewQRCode gera o código de check-in no formato
// APT-<timestamp base36>-<4 caracteres base36>, sempre maiúsculo.
func NewQRCode() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	suffix := make([]byte, 4)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(qrAlphabet))))
		if err != nil {
			panic(err)
		}
		suffix[i] = qrAlphabet[n.Int64()]
	}

	return "APT-" + ts + "-" + string(suffix)
}

// NormalizeCode padroniza códigos digitados no balcão.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
