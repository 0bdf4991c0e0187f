package mail

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTP sends mail through an authenticated SMTP submission server.
type SMTP struct {
	addr     string
	host     string
	username string
	password string
	// tlsConfig is used for STARTTLS and for implicit TLS on port 465.
	tlsConfig *tls.Config
	dialer    *net.Dialer
}

func newSMTP(p Provider, cred Credential) *SMTP {
	host, _, _ := net.SplitHostPort(p.Addr)
	return &SMTP{
		addr:      p.Addr,
		host:      host,
		username:  cred.Address,
		password:  cred.Secret,
		tlsConfig: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12},
		dialer:    &net.Dialer{},
	}
}

// Send delivers msg. The whole exchange is bounded by ctx's deadline.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	conn, err := s.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(dl); err != nil {
			return err
		}
	}

	// unblock reads when ctx is cancelled without a deadline
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return s.ctxErr(ctx, err)
	}
	defer c.Close()

	if err := s.exchange(c, msg); err != nil {
		return s.ctxErr(ctx, err)
	}

	return nil
}

func (s *SMTP) dial(ctx context.Context) (net.Conn, error) {
	if strings.HasSuffix(s.addr, ":465") {
		d := &tls.Dialer{NetDialer: s.dialer, Config: s.tlsConfig}
		return d.DialContext(ctx, "tcp", s.addr)
	}
	return s.dialer.DialContext(ctx, "tcp", s.addr)
}

func (s *SMTP) exchange(c *smtp.Client, msg Message) error {
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(s.tlsConfig); err != nil {
			return err
		}
	}

	if ok, _ := c.Extension("AUTH"); ok && s.username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.username, s.password, s.host)); err != nil {
			return err
		}
	}

	if err := c.Mail(msg.From); err != nil {
		return err
	}
	for _, to := range msg.To {
		if err := c.Rcpt(to); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildRaw(msg)); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return c.Quit()
}

// ctxErr prefers the context error over the i/o error it caused.
func (s *SMTP) ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%w: %w", cerr, err)
	}
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}

func buildRaw(msg Message) []byte {
	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", msg.FromName), msg.From)
	}

	body, contentType := buildBody(msg)

	headers := []string{
		"From: " + from,
		"To: " + strings.Join(msg.To, ", "),
		"Subject: " + mime.QEncoding.Encode("UTF-8", msg.Subject),
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: " + contentType,
	}

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}

func buildBody(msg Message) (body string, contentType string) {
	if msg.HTMLBody != "" && msg.TextBody != "" {
		boundary := multipartBoundary()
		var sb strings.Builder
		fmt.Fprintf(&sb, "--%s\r\n", boundary)
		sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		sb.WriteString(msg.TextBody)
		fmt.Fprintf(&sb, "\r\n--%s\r\n", boundary)
		sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		sb.WriteString(msg.HTMLBody)
		fmt.Fprintf(&sb, "\r\n--%s--", boundary)
		return sb.String(), "multipart/alternative; boundary=" + boundary
	}

	if msg.HTMLBody != "" {
		return msg.HTMLBody, "text/html; charset=UTF-8"
	}

	return msg.TextBody, "text/plain; charset=UTF-8"
}

func multipartBoundary() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "otpgate-boundary"
	}
	return "otpgate-" + hex.EncodeToString(b[:])
}
