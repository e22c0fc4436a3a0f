package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/config"
	"github.com/iliyamo/quiz-api/internal/queue"
)

type fakeDialer struct {
	sent []*gomail.Msg
	err  error
}

func (f *fakeDialer) DialAndSendWithContext(_ context.Context, msgs ...*gomail.Msg) error {
	f.sent = append(f.sent, msgs...)
	return f.err
}

func newTestSender(d dialer) *Sender {
	return &Sender{client: d, from: "no-reply@quiz.local", fromName: "Quiz", log: zap.NewNop()}
}

func TestRender(t *testing.T) {
	subject, text, html, err := Render(queue.EmailEvent{Kind: queue.EmailVerify, Name: "<Ana>", Token: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "Verify your email address", subject)
	assert.Contains(t, text, "Hi <Ana>,")
	assert.Contains(t, text, "123456")
	assert.Contains(t, html, "&lt;Ana&gt;")

	_, _, _, err = Render(queue.EmailEvent{Kind: "newsletter"})
	require.Error(t, err)
}

func TestSend(t *testing.T) {
	d := &fakeDialer{}
	s := newTestSender(d)
	ev := queue.EmailEvent{Kind: queue.EmailResetPassword, To: "ana@example.com", Name: "Ana", Token: "tok", RequestedAt: time.Now()}

	require.NoError(t, s.Send(context.Background(), ev))
	require.Len(t, d.sent, 1)

	var buf bytes.Buffer
	_, err := d.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Subject: Reset your password")
	assert.Contains(t, raw, "ana@example.com")
	assert.Contains(t, raw, `"Quiz" <no-reply@quiz.local>`)

	d.err = errors.New("relay down")
	require.ErrorContains(t, s.Send(context.Background(), ev), "relay down")

	ev.To = "not an address"
	require.ErrorContains(t, s.Send(context.Background(), ev), "to address")
}

func TestNewSender(t *testing.T) {
	for _, enc := range []string{"starttls", "ssl", "none"} {
		s, err := NewSender(config.MailConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", Encryption: enc}, zap.NewNop())
		require.NoError(t, err, enc)
		assert.NotNil(t, s.client)
	}
}
