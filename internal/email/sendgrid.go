package email

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"parkwise/internal/config"
)

// SendGridMailer sends mail through the SendGrid v3 API.
type SendGridMailer struct {
	APIKey   string
	From     string
	FromName string
}

func NewSendGridMailer(cfg config.EmailConfig) *SendGridMailer {
	return &SendGridMailer{
		APIKey:   cfg.SendGridAPIKey,
		From:     cfg.From,
		FromName: cfg.FromName,
	}
}

func (s *SendGridMailer) Send(ctx context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients")
	}
	if err := fillText(msg); err != nil {
		return err
	}

	from := sgmail.NewEmail(s.FromName, s.From)
	to := sgmail.NewEmail("", msg.To[0])
	message := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
	for _, extra := range msg.To[1:] {
		message.Personalizations[0].AddTos(sgmail.NewEmail("", extra))
	}

	for _, inline := range msg.Inline {
		a := sgmail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(inline.Data))
		a.SetType(inline.ContentType)
		a.SetFilename(inline.Name)
		a.SetDisposition("inline")
		a.SetContentID(inline.Name)
		message.AddAttachment(a)
	}

	client := sendgrid.NewSendClient(s.APIKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
