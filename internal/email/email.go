package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inbucket/html2text"
	"github.com/wneessen/go-mail"

	"parkwise/internal/config"
)

// Inline is a file embedded in the message and referenced from the HTML as cid:Name.
type Inline struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message represents an email message
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string // optional, will be auto-generated from HTML if empty
	Inline  []Inline
}

type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	return &SMTPMailer{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
		Timeout:  time.Duration(cfg.Timeout) * time.Second,
	}
}

// Send sends an email message
func (c *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	m, err := c.buildMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	opts := []mail.Option{
		mail.WithPort(c.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if c.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(c.Timeout))
	}
	if c.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(c.Username),
			mail.WithPassword(c.Password),
		)
	}

	client, err := mail.NewClient(c.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, m)
}

func (c *SMTPMailer) buildMessage(msg *Message) (*mail.Msg, error) {
	if err := fillText(msg); err != nil {
		return nil, err
	}

	m := mail.NewMsg()
	if c.FromName != "" {
		if err := m.FromFormat(c.FromName, c.From); err != nil {
			return nil, err
		}
	} else if err := m.From(c.From); err != nil {
		return nil, err
	}
	if err := m.To(msg.To...); err != nil {
		return nil, err
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	for _, inline := range msg.Inline {
		opts := []mail.FileOption{}
		if inline.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(inline.ContentType)))
		}
		if err := m.EmbedReader(inline.Name, bytes.NewReader(inline.Data), opts...); err != nil {
			return nil, fmt.Errorf("failed to embed %s: %w", inline.Name, err)
		}
	}
	return m, nil
}

func fillText(msg *Message) error {
	if msg.Text != "" {
		return nil
	}
	text, err := htmlToText(msg.HTML)
	if err != nil {
		return fmt.Errorf("failed to convert HTML to text: %w", err)
	}
	msg.Text = text
	return nil
}

// htmlToText converts HTML to plain text
func htmlToText(htmlContent string) (string, error) {
	text, err := html2text.FromString(htmlContent, html2text.Options{
		PrettyTables: true,
		OmitLinks:    false,
	})
	if err != nil {
		slog.Error("failed to convert HTML to text", "error", err)
		return "", err

	}
	return text, nil
}

// NewMailer returns the mailer for the configured provider, or nil when
// sending is disabled.
func NewMailer(cfg config.EmailConfig) (Mailer, error) {
	switch cfg.Provider {
	case "smtp":
		if cfg.Host == "" {
			return nil, fmt.Errorf("email.host is required for the smtp provider")
		}
		return NewSMTPMailer(cfg), nil
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("email.sendgrid_api_key is required for the sendgrid provider")
		}
		return NewSendGridMailer(cfg), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
