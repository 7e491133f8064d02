package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestMailer(t *testing.T) {
	ctx := context.Background()

	t.Run("welcome", func(t *testing.T) {
		sender := &recordingSender{}
		require.NoError(t, New(sender).SendWelcome(ctx, "a@b.com", "abc"))

		require.Len(t, sender.sent, 1)
		msg := sender.sent[0]
		assert.Equal(t, "a@b.com", msg.To)
		assert.Equal(t, subjectWelcome, msg.Subject)
		assert.Contains(t, msg.Text, "Hi abc,")
		assert.Contains(t, msg.HTML, "<p>Hi abc,</p>")
	})

	t.Run("reset link in both bodies", func(t *testing.T) {
		sender := &recordingSender{}
		url := "https://vegbazar.store/reset-password/abc123"
		require.NoError(t, New(sender).SendPasswordReset(ctx, "a@b.com", "abc", url))

		msg := sender.sent[0]
		assert.Equal(t, subjectPasswordReset, msg.Subject)
		assert.Contains(t, msg.Text, url)
		assert.Contains(t, msg.HTML, `href="`+url+`"`)
	})

	t.Run("verification", func(t *testing.T) {
		sender := &recordingSender{}
		url := "https://admin.vegbazar.store/verify-email/def456"
		require.NoError(t, New(sender).SendVerification(ctx, "boss@b.com", "boss", url))

		assert.Equal(t, subjectVerification, sender.sent[0].Subject)
		assert.Contains(t, sender.sent[0].Text, url)
	})

	t.Run("html escapes usernames", func(t *testing.T) {
		sender := &recordingSender{}
		require.NoError(t, New(sender).SendWelcome(ctx, "a@b.com", "<script>"))

		assert.NotContains(t, sender.sent[0].HTML, "<script>")
		assert.Contains(t, sender.sent[0].HTML, "&lt;script&gt;")
	})

	t.Run("sender error is returned", func(t *testing.T) {
		sender := &recordingSender{err: errors.New("smtp down")}
		err := New(sender).SendWelcome(ctx, "a@b.com", "abc")
		assert.EqualError(t, err, "smtp down")
	})
}

func TestLogSender(t *testing.T) {
	msg := Message{To: "a@b.com", Subject: "Reset your password", Text: "https://vegbazar.store/reset-password/raw-token"}

	t.Run("body hidden", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		require.NoError(t, NewLogSender(zap.New(core), false).Send(context.Background(), msg))

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "a@b.com", fields["to"])
		assert.Equal(t, "Reset your password", fields["subject"])
		assert.NotContains(t, fields, "text")
	})

	t.Run("body shown", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		require.NoError(t, NewLogSender(zap.New(core), true).Send(context.Background(), msg))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, msg.Text, logs.All()[0].ContextMap()["text"])
	})
}

func TestNewSMTPSender(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "no-reply@vegbazar.store"})
	require.NoError(t, err)
	assert.Equal(t, "no-reply@vegbazar.store", s.from)

	err = s.Send(context.Background(), Message{To: "not an address"})
	assert.Error(t, err)
}
