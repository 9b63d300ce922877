package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Mailer envia a confirmação de agendamento. A entrega é melhor esforço:
// quem chama não depende do resultado para concluir a operação.
type Mailer interface {
	SendConfirmation(ctx context.Context, msg Confirmation) error
}

// Confirmation carrega os dados renderizados no e-mail.
type Confirmation struct {
	To          string
	CitizenName string
	AgencyName  string
	Date        string
	TimeSlot    string
	Reason      string
	QRCode      string
}

const subject = "Confirmação de agendamento"

var tmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family: sans-serif; background-color: #f5f5f5; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 24px;">
    <h1 style="color: #1e40af; font-size: 20px;">Portal de Agendamento</h1>
    <p>Olá, <strong>{{.CitizenName}}</strong>,</p>
    <p>Seu atendimento foi agendado. Apresente o código abaixo no balcão para fazer o check-in.</p>
    <div style="text-align: center; background: #f8fafc; border-radius: 8px; padding: 20px; margin: 20px 0;">
      <img src="{{.QRImageURL}}" alt="QR Code" width="150" height="150" />
      <p style="font-family: monospace; font-size: 18px; color: #1e40af;">{{.QRCode}}</p>
    </div>
    <table style="width: 100%;">
      <tr><td style="color: #6b7280;">Órgão</td><td>{{.AgencyName}}</td></tr>
      <tr><td style="color: #6b7280;">Data</td><td>{{.Date}}</td></tr>
      <tr><td style="color: #6b7280;">Horário</td><td>{{.TimeSlot}}</td></tr>
      <tr><td style="color: #6b7280;">Motivo</td><td>{{.Reason}}</td></tr>
    </table>
    <p style="color: #6b7280; font-size: 12px;">Chegue com 10 minutos de antecedência. Para remarcar ou cancelar, acesse o portal.</p>
  </div>
</body>
</html>`))

// RenderHTML monta o corpo do e-mail com o QR code embutido.
func RenderHTML(msg Confirmation) (string, error) {
	data := struct {
		Confirmation
		Subject    string
		QRImageURL string
	}{
		Confirmation: msg,
		Subject:      subject,
		QRImageURL:   "https://api.qrserver.com/v1/create-qr-code/?size=150x150&data=" + url.QueryEscape(msg.QRCode),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WebhookMailer entrega o e-mail via endpoint HTTP de um provedor externo.
type WebhookMailer struct {
	endpoint string
	client   *http.Client
}

// NewWebhookMailer cria o remetente; endpoint vazio devolve nil.
func NewWebhookMailer(endpoint string) *WebhookMailer {
	if endpoint == "" {
		return nil
	}
	return &WebhookMailer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (m *WebhookMailer) SendConfirmation(ctx context.Context, msg Confirmation) error {
	if m == nil || m.endpoint == "" {
		return errors.New("mailer não configurado")
	}

	html, err := RenderHTML(msg)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{
		"to":      msg.To,
		"subject": subject,
		"html":    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.New("envio de e-mail falhou")
	}
	return nil
}

// MockMailer não entrega nada: renderiza o corpo, registra em log e guarda
// a última prévia para inspeção. É o padrão quando MAIL_WEBHOOK_URL não é
// configurada.
type MockMailer struct {
	mu   sync.Mutex
	last string
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) SendConfirmation(_ context.Context, msg Confirmation) error {
	html, err := RenderHTML(msg)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.last = html
	m.mu.Unlock()

	log.Info().Str("to", msg.To).Str("qr_code", msg.QRCode).Msg("[mock] confirmação de agendamento")
	return nil
}

// LastPreview devolve o último corpo renderizado.
func (m *MockMailer) LastPreview() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
