package mailer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestNewMailerDisabledWithoutHost(t *testing.T) {
	t.Setenv("SMTP_HOST", "")
	logger := zerolog.Nop()

	m := NewMailer(&logger)

	assert.False(t, m.Enabled())
	assert.Error(t, m.SendHTML([]string{"a@x.com"}, "hi", "<p>hi</p>", "hi"))
}

func TestNewMailerEnabled(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SMTP_FROM", "noreply@example.com")
	logger := zerolog.Nop()

	m := NewMailer(&logger)

	assert.True(t, m.Enabled())
	assert.Error(t, m.Send(Email{Subject: "no recipients"}))
}

func TestMailerConfigValidate(t *testing.T) {
	assert.Error(t, (&mailerConfig{}).validate())
	assert.Error(t, (&mailerConfig{Host: "smtp"}).validate())
	assert.Error(t, (&mailerConfig{Host: "smtp", Port: 25}).validate())
	require.NoError(t, (&mailerConfig{Host: "smtp", Port: 25, From: "a@x.com"}).validate())
}

func TestSetEmailMessage(t *testing.T) {
	m := &Mailer{config: &mailerConfig{From: "noreply@example.com"}}
	msg := gomail.NewMessage()

	m.setEmailMessage(msg, Email{
		To:       []string{"a@x.com"},
		Bcc:      []string{"audit@example.com"},
		Subject:  "Welcome",
		HTMLBody: "<p>hi</p>",
		Body:     "hi",
	})

	assert.Equal(t, []string{"noreply@example.com"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"a@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"audit@example.com"}, msg.GetHeader("Bcc"))
	assert.Equal(t, []string{"Welcome"}, msg.GetHeader("Subject"))
	assert.Empty(t, msg.GetHeader("Cc"))
}
