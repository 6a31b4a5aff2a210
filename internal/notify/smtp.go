package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	TLSNone     = "none"
	TLSStartTLS = "starttls"
	TLSImplicit = "smtps"

	defaultSMTPPort    = 25
	defaultDialTimeout = 30 * time.Second
)

// SMTPConfig holds the mail server settings.
type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	TLS        string
	AuthType   string
	SkipVerify bool
	BodyMode   BodyMode
}

// EffectiveTLSMode returns the TLS mode, guessing it from the port when
// unset.
func (c *SMTPConfig) EffectiveTLSMode() string {
	switch mode := strings.ToLower(strings.TrimSpace(c.TLS)); mode {
	case TLSNone, TLSStartTLS, TLSImplicit:
		return mode
	case "":
	default:
		log.Warnf("unknown smtp tls mode %q, guessing from the port", c.TLS)
	}
	switch c.Port {
	case 465:
		return TLSImplicit
	case 587:
		return TLSStartTLS
	}
	return TLSNone
}

func (c *SMTPConfig) addr() string {
	port := c.Port
	if port == 0 {
		port = defaultSMTPPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func (c *SMTPConfig) sender() string {
	if c.From != "" {
		return c.From
	}
	if strings.Contains(c.User, "@") {
		return c.User
	}
	return "e2e-notifier@localhost"
}

// smtpClient is the subset of *smtp.Client used to deliver a message.
type smtpClient interface {
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// SMTPNotifier emails the report through an SMTP relay.
type SMTPNotifier struct {
	cfg  *SMTPConfig
	now  func() time.Time
	dial func(ctx context.Context) (smtpClient, error)
}

func NewSMTPNotifier(cfg *SMTPConfig) *SMTPNotifier {
	n := &SMTPNotifier{cfg: cfg, now: time.Now}
	n.dial = n.dialSMTPClient
	return n
}

func (s *SMTPNotifier) Name() string { return "smtp" }

func (s *SMTPNotifier) Send(ctx context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipient
	}
	if msg.From == "" {
		withSender := *msg
		withSender.From = s.cfg.sender()
		msg = &withSender
	}
	raw, err := Compose(msg, s.cfg.BodyMode, s.now())
	if err != nil {
		return err
	}
	envelopeFrom, err := envelopeAddress(msg.From)
	if err != nil {
		return err
	}

	client, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := s.authenticate(client); err != nil {
		return err
	}
	if err := client.Mail(envelopeFrom); err != nil {
		return errors.Wrap(err, "failed to set sender")
	}
	for _, to := range msg.To {
		rcpt, err := envelopeAddress(to)
		if err != nil {
			return err
		}
		if err := client.Rcpt(rcpt); err != nil {
			return errors.Wrapf(err, "failed to set recipient %s", rcpt)
		}
	}

	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "failed to initiate data transfer")
	}
	if _, err := w.Write(raw); err != nil {
		return errors.Wrap(err, "failed to write message")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "failed to close data transfer")
	}
	if err := client.Quit(); err != nil {
		return errors.Wrap(err, "failed to quit SMTP session")
	}
	log.Debugf("smtp: message accepted by %s for %s", s.cfg.addr(), strings.Join(msg.To, ", "))
	return nil
}

// envelopeAddress strips the display name: "Dev <dev@example.com>" becomes
// "dev@example.com".
func envelopeAddress(addr string) (string, error) {
	a, err := mailAddress(addr)
	if err != nil {
		return "", errors.Wrapf(err, "invalid address %q", addr)
	}
	return a, nil
}

func (s *SMTPNotifier) dialSMTPClient(ctx context.Context) (smtpClient, error) {
	if s.cfg.Host == "" {
		return nil, errors.New("smtp host is not configured")
	}
	addr := s.cfg.addr()
	tlsConfig := &tls.Config{
		ServerName:         s.cfg.Host,
		InsecureSkipVerify: s.cfg.SkipVerify, // #nosec G402
	}
	dialer := &net.Dialer{Timeout: defaultDialTimeout}

	switch mode := s.cfg.EffectiveTLSMode(); mode {
	case TLSImplicit:
		conn, err := (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect via SMTPS")
		}
		client, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "failed to create SMTP client")
		}
		return client, nil
	default:
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect to SMTP server")
		}
		client, err := smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "failed to create SMTP client")
		}
		if mode == TLSStartTLS {
			if err := client.StartTLS(tlsConfig); err != nil {
				client.Close()
				return nil, errors.Wrap(err, "failed to start TLS")
			}
		}
		return client, nil
	}
}

func (s *SMTPNotifier) authenticate(client smtpClient) error {
	if s.cfg.User == "" || s.cfg.Password == "" {
		return nil
	}

	var auth smtp.Auth
	switch authType := strings.ToLower(strings.TrimSpace(s.cfg.AuthType)); authType {
	case "", "plain":
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	case "login":
		auth = &loginAuth{username: s.cfg.User, password: s.cfg.Password}
	default:
		log.Warnf("smtp: unknown auth type %q, using plain", authType)
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	if err := client.Auth(auth); err != nil {
		return errors.Wrap(err, "SMTP authentication failed")
	}
	return nil
}

// loginAuth implements SMTP LOGIN authentication, still required by some
// relays (Office 365, older Exchange).
type loginAuth struct {
	username, password string
}

func (a *loginAuth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", []byte{}, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.TrimSpace(string(fromServer)) {
	case "Username:":
		return []byte(a.username), nil
	case "Password:":
		return []byte(a.password), nil
	}
	return nil, fmt.Errorf("unexpected server challenge: %s", fromServer)
}
