package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"busline/internal/shared/config"
	"busline/pkg/logger"
)

// EmailService delivers rendered booking emails
type EmailService interface {
	SendNotification(ctx context.Context, notification *EmailNotification) error
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
}

func SMTPConfigFrom(cfg config.EmailConfig) *SMTPConfig {
	return &SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		UseTLS:    true,
	}
}

func validateSMTPConfig(config *SMTPConfig) error {
	if config == nil {
		return fmt.Errorf("SMTP config is nil")
	}
	if config.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if config.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

var htmlTemplates = template.Must(template.New("booking").Funcs(template.FuncMap{"join": joinSeats}).Parse(`
{{define "booking.confirmed"}}<h2>Booking confirmed</h2>
<p>Hi {{.ContactName}},</p>
<p>Your seats {{join .SeatIDs}} on <strong>{{.BusName}}</strong> are confirmed.</p>
<p>Reference: <strong>{{.BookingRef}}</strong><br>Boarding: {{.Boarding}}<br>Dropping: {{.Dropping}}</p>
<p>Total paid: {{.TotalAmount}}</p>{{end}}
{{define "booking.cancelled"}}<h2>Booking cancelled</h2>
<p>Hi {{.ContactName}},</p>
<p>Booking <strong>{{.BookingRef}}</strong> for seats {{join .SeatIDs}} has been cancelled.</p>{{end}}
`))

var textTemplates = texttemplate.Must(texttemplate.New("booking").Funcs(texttemplate.FuncMap{"join": joinSeats}).Parse(`
{{define "booking.confirmed"}}Hi {{.ContactName}},

Your seats {{join .SeatIDs}} on {{.BusName}} are confirmed.
Reference: {{.BookingRef}}
Boarding: {{.Boarding}}
Dropping: {{.Dropping}}
Total paid: {{.TotalAmount}}{{end}}
{{define "booking.cancelled"}}Hi {{.ContactName}},

Booking {{.BookingRef}} for seats {{join .SeatIDs}} has been cancelled.{{end}}
`))

func joinSeats(ids []string) string {
	return strings.Join(ids, ", ")
}

// RenderEmail builds the HTML and plain text bodies for a notification
func RenderEmail(notification *EmailNotification) (string, string, error) {
	name := string(notification.Event.Type)
	if htmlTemplates.Lookup(name) == nil {
		return "", "", fmt.Errorf("no template for event type %q", name)
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&htmlBuf, name, notification.Event); err != nil {
		return "", "", fmt.Errorf("failed to render html body: %w", err)
	}
	if err := textTemplates.ExecuteTemplate(&textBuf, name, notification.Event); err != nil {
		return "", "", fmt.Errorf("failed to render text body: %w", err)
	}
	return strings.TrimSpace(htmlBuf.String()), strings.TrimSpace(textBuf.String()), nil
}

type SMTPEmailService struct {
	config *SMTPConfig
}

func NewSMTPEmailService(config *SMTPConfig) (*SMTPEmailService, error) {
	if err := validateSMTPConfig(config); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}
	return &SMTPEmailService{config: config}, nil
}

func (s *SMTPEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	htmlBody, textBody, err := RenderEmail(notification)
	if err != nil {
		return err
	}

	message := buildMessage(s.config, notification.RecipientEmail, notification.Subject, htmlBody, textBody)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if s.config.UseTLS {
		err = s.sendWithSTARTTLS(addr, auth, notification.RecipientEmail, message)
	} else {
		err = smtp.SendMail(addr, auth, s.config.FromEmail, []string{notification.RecipientEmail}, message)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.GetDefault().InfoContext(ctx, "email sent", "to", notification.RecipientEmail, "type", string(notification.Event.Type))
	return nil
}

func (s *SMTPEmailService) sendWithSTARTTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	if err = client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

func buildMessage(cfg *SMTPConfig, to, subject, htmlBody, textBody string) []byte {
	boundary := "boundary_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", cfg.FromName, cfg.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	if textBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, textBody)
	}
	if htmlBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, htmlBody)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// LogEmailService renders emails and logs them instead of sending
type LogEmailService struct{}

func NewLogEmailService() *LogEmailService {
	return &LogEmailService{}
}

func (LogEmailService) SendNotification(ctx context.Context, notification *EmailNotification) error {
	_, textBody, err := RenderEmail(notification)
	if err != nil {
		return err
	}
	logger.GetDefault().InfoContext(ctx, "email (smtp not configured)",
		"to", notification.RecipientEmail, "subject", notification.Subject, "body", textBody)
	return nil
}

// NewEmailService uses SMTP when a host is configured
func NewEmailService(cfg config.EmailConfig) (EmailService, error) {
	if cfg.SMTPHost == "" {
		return NewLogEmailService(), nil
	}
	return NewSMTPEmailService(SMTPConfigFrom(cfg))
}
