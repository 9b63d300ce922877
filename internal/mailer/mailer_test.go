package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func confirmation() Confirmation {
	return Confirmation{
		To:          "maria@example.com",
		CitizenName: "Maria Silva",
		AgencyName:  "Prefeitura Municipal",
		Date:        "2026-09-14",
		TimeSlot:    "09:00",
		Reason:      "Segunda via de documento",
		QRCode:      "APT-ABC123-XY9Z",
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML(confirmation())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"Maria Silva",
		"APT-ABC123-XY9Z",
		"api.qrserver.com/v1/create-qr-code",
		"Prefeitura Municipal",
		"09:00",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}
}

func TestMockMailerGuardaPrevia(t *testing.T) {
	m := NewMockMailer()

	if err := m.SendConfirmation(context.Background(), confirmation()); err != nil {
		t.Fatalf("send: %v", err)
	}

	preview := m.LastPreview()
	if !strings.Contains(preview, "APT-ABC123-XY9Z") {
		t.Fatal("expected preview with QR code")
	}
}

func TestWebhookMailerEntrega(t *testing.T) {
	var received map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewWebhookMailer(srv.URL)
	if err := m.SendConfirmation(context.Background(), confirmation()); err != nil {
		t.Fatalf("send: %v", err)
	}

	if received["to"] != "maria@example.com" {
		t.Fatalf("unexpected recipient %q", received["to"])
	}
	if received["subject"] == "" || !strings.Contains(received["html"], "APT-ABC123-XY9Z") {
		t.Fatal("expected subject and rendered body")
	}
}

func TestWebhookMailerFalhaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewWebhookMailer(srv.URL)
	if err := m.SendConfirmation(context.Background(), confirmation()); err == nil {
		t.Fatal("expected delivery error")
	}
}

func TestNewWebhookMailerSemEndpoint(t *testing.T) {
	if m := NewWebhookMailer(""); m != nil {
		t.Fatal("expected nil mailer without endpoint")
	}
}
