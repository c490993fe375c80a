package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutHostLogs(t *testing.T) {
	m, err := New(SMTPConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)
	assert.NoError(t, m.Send(context.Background(), "a@example.com", "hi", "body"))
}

func TestNewSMTP(t *testing.T) {
	m, err := New(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "shop@example.com"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SMTP{}, m)
}
