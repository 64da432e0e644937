package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"parkwise/internal/booking"
	"parkwise/internal/config"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var confirmationTmpl = template.Must(template.ParseFS(templatesFS, "templates/confirmation.html.tmpl"))

const qrCodeName = "cancel-qr.png"

// CancelPath is the route that cancels a booking by its token.
const CancelPath = "/api/bookings/cancel/"

// CancelURL builds the self-service cancellation link for a token.
func CancelURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + CancelPath + token
}

// ConfirmationSender mails booking confirmations with a cancellation link
// and the same link as a QR code.
type ConfirmationSender struct {
	mailer   Mailer
	baseURL  string
	siteName string
}

func NewConfirmationSender(mailer Mailer, baseURL string, siteName string) *ConfirmationSender {
	if siteName == "" {
		siteName = "ParkWise"
	}
	return &ConfirmationSender{
		mailer:   mailer,
		baseURL:  baseURL,
		siteName: siteName,
	}
}

func (s *ConfirmationSender) SendBookingConfirmation(ctx context.Context, c booking.Confirmation) error {
	msg, err := s.render(c)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, msg)
}

func (s *ConfirmationSender) render(c booking.Confirmation) (*Message, error) {
	cancelURL := CancelURL(s.baseURL, c.Booking.CancellationToken)

	qr, err := qrcode.Encode(cancelURL, qrcode.Medium, config.QR_IMAGE_SIZE)
	if err != nil {
		return nil, fmt.Errorf("failed to generate cancellation QR code: %w", err)
	}

	var html bytes.Buffer
	err = confirmationTmpl.Execute(&html, map[string]any{
		"SiteName":   s.siteName,
		"Booking":    c.Booking,
		"Slot":       c.Slot,
		"CancelURL":  cancelURL,
		"QRCodeName": qrCodeName,
		"QRCodeSize": config.QR_IMAGE_SIZE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render confirmation: %w", err)
	}

	return &Message{
		To:      []string{c.Booking.Email},
		Subject: "Your Parking Reservation Confirmation",
		HTML:    html.String(),
		Inline: []Inline{{
			Name:        qrCodeName,
			ContentType: "image/png",
			Data:        qr,
		}},
	}, nil
}
