package services

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestMailer(ratePerMinute int) (*SMTPMailer, *[]capturedMail) {
	mailer := NewSMTPMailer(SMTPConfig{
		Host:          "smtp.example.com",
		Port:          2525,
		From:          "Taskflow <noreply@example.com>",
		RatePerMinute: ratePerMinute,
	})
	var sent []capturedMail
	mailer.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, capturedMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return mailer, &sent
}

func TestSMTPMailer_ComposesInvitation(t *testing.T) {
	mailer, sent := newTestMailer(5)

	err := mailer.SendInvitation(context.Background(), Invitation{
		ToEmail:     "bob@example.com",
		ToName:      "Bob",
		InviterName: "Alice",
		ProjectName: "Apollo",
		Link:        "https://app.example.com/notifications",
	})
	if err != nil {
		t.Fatalf("Failed to send: %v", err)
	}
	if len(*sent) != 1 {
		t.Fatalf("Expected one message, got %d", len(*sent))
	}

	mail := (*sent)[0]
	if mail.addr != "smtp.example.com:2525" {
		t.Errorf("Unexpected address %s", mail.addr)
	}
	if len(mail.to) != 1 || mail.to[0] != "bob@example.com" {
		t.Errorf("Unexpected recipients %v", mail.to)
	}
	for _, want := range []string{"Subject: Alice invited you to Apollo", "bob@example.com", "text/plain", "https://app.example.com/notifications"} {
		if !strings.Contains(mail.msg, want) {
			t.Errorf("Expected %q in message:\n%s", want, mail.msg)
		}
	}
}

func TestSMTPMailer_ThrottlesPerRecipient(t *testing.T) {
	mailer, sent := newTestMailer(1)
	inv := Invitation{ToEmail: "bob@example.com", InviterName: "Alice", ProjectName: "Apollo"}

	if err := mailer.SendInvitation(context.Background(), inv); err != nil {
		t.Fatalf("First send failed: %v", err)
	}
	if err := mailer.SendInvitation(context.Background(), inv); !errors.Is(err, ErrMailThrottled) {
		t.Errorf("Expected ErrMailThrottled, got %v", err)
	}

	inv.ToEmail = "carol@example.com"
	if err := mailer.SendInvitation(context.Background(), inv); err != nil {
		t.Errorf("Other recipients are not throttled: %v", err)
	}
	if len(*sent) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(*sent))
	}
}

func TestSMTPMailer_RejectsMissingRecipient(t *testing.T) {
	mailer, _ := newTestMailer(5)
	if err := mailer.SendInvitation(context.Background(), Invitation{}); err == nil {
		t.Error("Expected error for empty recipient")
	}
}
