// Package mailer renders and delivers transactional mail over SMTP.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"

	"github.com/princinho/sahoaccounts/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// SMTPMailer sends templated HTML mail. Templates are parsed once at
// construction; Send fails fast and leaves retries to the caller.
type SMTPMailer struct {
	client    *mail.Client
	from      string
	templates *template.Template
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	if cfg.SMTPHost == "" || cfg.MailFrom == "" {
		return nil, fmt.Errorf("mailer: SMTP_HOST and MAIL_FROM must be set")
	}

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.SMTPUser),
		mail.WithPassword(cfg.SMTPPassword),
	)
	if err != nil {
		return nil, fmt.Errorf("mailer: client: %w", err)
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mailer: parse templates: %w", err)
	}

	return &SMTPMailer{
		client:    client,
		from:      cfg.MailFrom,
		templates: templates,
	}, nil
}

// Send renders the named template with data and delivers it as HTML.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, templateName string, data any) error {
	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, templateName+".html", data); err != nil {
		return fmt.Errorf("render %s: %w", templateName, err)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}
