package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/config"
	"github.com/habibfrhn/wellness-mobile-app-sub000/internal/queue"
)

type captureSender struct {
	to      string
	subject string
	body    string
}

func (s *captureSender) Send(ctx context.Context, to, subject, body string) error {
	s.to = to
	s.subject = subject
	s.body = body
	return nil
}

func TestCallbackLink(t *testing.T) {
	link := CallbackLink("nocturne", "abc+def")
	if link != "nocturne://auth/callback?code=abc%2Bdef" {
		t.Errorf("link = %q", link)
	}
}

func TestResetLink(t *testing.T) {
	link := ResetLink("nocturne", "deadbeef")
	if link != "nocturne://auth/reset?type=recovery&token_hash=deadbeef" {
		t.Errorf("link = %q", link)
	}
}

func TestProcessorMagicLinkEmail(t *testing.T) {
	sender := &captureSender{}
	p := NewProcessor(sender, nil, config.MailConfig{LinkScheme: "nocturne"}, zerolog.Nop())

	msg := redis.XMessage{Values: map[string]interface{}{
		"type":  queue.TaskEmailMagicLink,
		"email": "user@example.com",
		"code":  "code-123",
	}}

	if err := p.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.to != "user@example.com" {
		t.Errorf("to = %q", sender.to)
	}
	if !strings.Contains(sender.body, "nocturne://auth/callback?code=code-123") {
		t.Errorf("body missing link: %q", sender.body)
	}
}

func TestProcessorRecoveryEmail(t *testing.T) {
	sender := &captureSender{}
	p := NewProcessor(sender, nil, config.MailConfig{LinkScheme: "nocturne"}, zerolog.Nop())

	msg := redis.XMessage{Values: map[string]interface{}{
		"type":       queue.TaskEmailRecovery,
		"email":      "user@example.com",
		"token_hash": "hash-456",
	}}

	if err := p.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(sender.body, "type=recovery") || !strings.Contains(sender.body, "token_hash=hash-456") {
		t.Errorf("body missing recovery params: %q", sender.body)
	}
}

func TestProcessorUnknownTaskIsDropped(t *testing.T) {
	sender := &captureSender{}
	p := NewProcessor(sender, nil, config.MailConfig{LinkScheme: "nocturne"}, zerolog.Nop())

	msg := redis.XMessage{Values: map[string]interface{}{"type": "mystery"}}
	if err := p.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unknown task should not error: %v", err)
	}
	if sender.to != "" {
		t.Error("unknown task should not send mail")
	}
}
