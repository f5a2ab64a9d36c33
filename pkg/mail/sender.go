package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"time"

	"github.com/Geniuskaa/promo_registration/internal/config"
	"github.com/Geniuskaa/promo_registration/pkg/registration"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templates embed.FS

var errNoRecipients = errors.New("no notification recipients")

const dialTimeout = 10 * time.Second

type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender mails the promo operators about every new registration.
type Sender struct {
	addr   string
	from   string
	to     []string
	auth   smtp.Auth
	tmpl   *template.Template
	logger *zap.Logger
	send   sendFunc
	now    func() time.Time
}

func NewSender(conf config.Mail, logger *zap.Logger) (*Sender, error) {
	if len(conf.NotifyTo) == 0 {
		return nil, fmt.Errorf("NewSender failed: %w", errNoRecipients)
	}

	tmpl, err := template.ParseFS(templates, "templates/newRegistration.html")
	if err != nil {
		return nil, fmt.Errorf("NewSender failed: %w", err)
	}

	var auth smtp.Auth
	if conf.Username != "" {
		auth = smtp.PlainAuth("", conf.Username, conf.Password, conf.Hostname)
	}

	return &Sender{
		addr:   net.JoinHostPort(conf.Hostname, conf.Port),
		from:   conf.Username,
		to:     conf.NotifyTo,
		auth:   auth,
		tmpl:   tmpl,
		logger: logger,
		send:   sendMail,
		now:    time.Now,
	}, nil
}

func (s *Sender) NotifyRegistration(ctx context.Context, rec registration.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := s.buildMessage(rec)
	if err != nil {
		return fmt.Errorf("NotifyRegistration failed: %w", err)
	}

	if err := s.send(ctx, s.addr, s.auth, s.from, s.to, msg); err != nil {
		return fmt.Errorf("sendMail failed: %w", err)
	}

	s.logger.Debug("registration notification sent", zap.String("code", rec.DiscountCode),
		zap.Strings("to", s.to))
	return nil
}

func (s *Sender) buildMessage(rec registration.Record) ([]byte, error) {
	var h mail.Header
	h.SetDate(s.now())
	h.SetSubject(fmt.Sprintf("Nuevo registro: %s %s (%s)", rec.FirstName, rec.LastName, rec.DiscountCode))
	h.SetAddressList("From", []*mail.Address{{Address: s.from}})

	to := make([]*mail.Address, 0, len(s.to))
	for _, addr := range s.to {
		to = append(to, &mail.Address{Address: addr})
	}
	h.SetAddressList("To", to)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	buf := new(bytes.Buffer)
	w, err := mail.CreateSingleInlineWriter(buf, h)
	if err != nil {
		return nil, fmt.Errorf("mail.CreateSingleInlineWriter failed: %w", err)
	}

	if err := s.tmpl.Execute(w, rec); err != nil {
		return nil, fmt.Errorf("tmpl.Execute failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// sendMail does what smtp.SendMail does, but the dial and every later
// read or write are bounded by ctx.
func sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("smtp.NewClient failed: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return fmt.Errorf("StartTLS failed: %w", err)
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return fmt.Errorf("Auth failed: %w", err)
			}
		}
	}

	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
