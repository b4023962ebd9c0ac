package notification

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/config"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

func testCandidat() *model.Candidat {
	return &model.Candidat{
		ID:     "candidat-id-1",
		Nom:    "El Amrani",
		Prenom: "Yasmine",
		Email:  "yasmine@example.com",
		Gsm:    "+212612345678",
	}
}

// EmailNotifierがSMTP_HOST未設定時にnilを返すことを検証
func TestNewEmailNotifier_DisabledWithoutHost(t *testing.T) {
	if n := NewEmailNotifier(&config.Config{}); n != nil {
		t.Error("expected nil notifier when SMTP_HOST is empty")
	}
}

// メール本文にコードと宛先が含まれることを検証
func TestEmailNotifier_SendCodeSession_BuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	n := &EmailNotifier{
		host: "smtp.example.com",
		port: "587",
		from: "noreply@example.com",
		sendFunc: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		},
	}

	err := n.SendCodeSession(context.Background(), testCandidat(), "AB12CD34")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q, want %q", gotAddr, "smtp.example.com:587")
	}
	if gotFrom != "noreply@example.com" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "yasmine@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	if !strings.Contains(string(gotMsg), "AB12CD34") {
		t.Error("message should contain the session code")
	}
}

// メール送信失敗時にエラーが伝播されることを検証
func TestEmailNotifier_SendCodeSession_PropagatesError(t *testing.T) {
	n := &EmailNotifier{
		host: "smtp.example.com",
		port: "587",
		from: "noreply@example.com",
		sendFunc: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		},
	}

	if err := n.SendCodeSession(context.Background(), testCandidat(), "AB12CD34"); err == nil {
		t.Fatal("expected error")
	}
}

// SMSNotifierが資格情報未設定時にnilを返すことを検証
func TestNewSMSNotifier_DisabledWithoutCredentials(t *testing.T) {
	if n := NewSMSNotifier(&config.Config{TwilioAccountSID: "AC123"}); n != nil {
		t.Error("expected nil notifier when credentials are incomplete")
	}
}

type fakeSMSSender struct {
	params *twilioapi.CreateMessageParams
	err    error
}

func (f *fakeSMSSender) CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
	f.params = params
	return &twilioapi.ApiV2010Message{}, f.err
}

// SMS本文にコードが含まれGSM番号宛てに送信されることを検証
func TestSMSNotifier_SendCodeSession_BuildsMessage(t *testing.T) {
	sender := &fakeSMSSender{}
	n := &SMSNotifier{sender: sender, from: "+15550001111"}

	err := n.SendCodeSession(context.Background(), testCandidat(), "AB12CD34")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.params == nil {
		t.Fatal("expected CreateMessage to be called")
	}
	if got := *sender.params.To; got != "+212612345678" {
		t.Errorf("to = %q", got)
	}
	if !strings.Contains(*sender.params.Body, "AB12CD34") {
		t.Error("body should contain the session code")
	}
}

// MultiNotifierが失敗チャネルの後も送信を続行することを検証
func TestMultiNotifier_ContinuesAfterFailure(t *testing.T) {
	failing := &fakeNotifier{err: errors.New("boom")}
	ok := &fakeNotifier{}

	m := NewMultiNotifier(failing, ok)
	err := m.SendCodeSession(context.Background(), testCandidat(), "AB12CD34")
	if err == nil {
		t.Fatal("expected error from failing channel")
	}
	if !ok.called {
		t.Error("second channel should still be invoked")
	}
}

// NoopNotifierがエラーを返さないことを検証
func TestNoopNotifier_Succeeds(t *testing.T) {
	if err := (NoopNotifier{}).SendCodeSession(context.Background(), testCandidat(), "AB12CD34"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type fakeNotifier struct {
	called bool
	err    error
}

func (f *fakeNotifier) SendCodeSession(context.Context, *model.Candidat, string) error {
	f.called = true
	return f.err
}
