package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/smtp"
	"testing"
	"time"

	"github.com/Geniuskaa/promo_registration/internal/config"
	"github.com/Geniuskaa/promo_registration/pkg/registration"
	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  []byte
}

func newTestSender(t *testing.T, sendErr error) (*Sender, *[]sentMail) {
	t.Helper()
	s, err := NewSender(config.Mail{
		Hostname: "smtp.example.com",
		Port:     "587",
		Username: "promo@example.com",
		Password: "secret",
		NotifyTo: []string{"ops@example.com", "ventas@example.com"},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	sent := &[]sentMail{}
	s.send = func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: msg})
		return sendErr
	}
	s.now = func() time.Time { return time.Date(2024, time.October, 21, 9, 30, 0, 0, time.UTC) }
	return s, sent
}

func testRecord() registration.Record {
	return registration.Record{
		FirstName:    "José",
		LastName:     "García",
		Phone:        "88887777",
		Address:      "Managua",
		DiscountCode: "OMW-1234",
		RegisteredAt: time.Date(2024, time.October, 21, 9, 30, 0, 0, time.UTC),
	}
}

func TestNotifyRegistration(t *testing.T) {
	s, sent := newTestSender(t, nil)

	require.NoError(t, s.NotifyRegistration(context.Background(), testRecord()))
	require.Len(t, *sent, 1)

	got := (*sent)[0]
	assert.Equal(t, "smtp.example.com:587", got.addr)
	assert.Equal(t, "promo@example.com", got.from)
	assert.Equal(t, []string{"ops@example.com", "ventas@example.com"}, got.to)

	mr, err := mail.CreateReader(bytes.NewReader(got.msg))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Nuevo registro: José García (OMW-1234)", subject)

	part, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "OMW-1234")
	assert.Contains(t, string(body), "Managua")
}

func TestNotifyRegistrationSendError(t *testing.T) {
	s, _ := newTestSender(t, errors.New("535 authentication failed"))

	err := s.NotifyRegistration(context.Background(), testRecord())
	assert.Error(t, err)
}

func TestNewSenderRequiresRecipients(t *testing.T) {
	_, err := NewSender(config.Mail{Hostname: "smtp.example.com"}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, errNoRecipients)
}

func TestSendMailHonorsDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	// Accepts the connection but never sends the SMTP greeting.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = io.Copy(io.Discard, conn)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = sendMail(ctx, ln.Addr().String(), nil, "promo@example.com", []string{"ops@example.com"}, []byte("hola"))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNotifyRegistrationCanceled(t *testing.T) {
	s, sent := newTestSender(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.NotifyRegistration(ctx, testRecord()), context.Canceled)
	assert.Empty(t, *sent)
}
