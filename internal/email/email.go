package email

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/wanderio/tourbooking/config"
	"github.com/wanderio/tourbooking/internal/kafka"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Sender turns booking events into plain-text emails and ships them over SMTP.
type Sender struct {
	cfg    config.EmailConfig
	dialer dialer
}

func NewSender(cfg config.EmailConfig) *Sender {
	return &Sender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
	}
}

// NewSenderWithDialer is used by tests to capture outgoing messages.
func NewSenderWithDialer(cfg config.EmailConfig, d dialer) *Sender {
	return &Sender{cfg: cfg, dialer: d}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.ContactEmail == "" {
		return fmt.Errorf("event %s for booking %s has no contact email", event.Type, event.BookingID)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	if s.cfg.ReplyTo != "" {
		m.SetHeader("Reply-To", s.cfg.ReplyTo)
	}
	m.SetHeader("To", event.ContactEmail)
	m.SetHeader("Subject", subjectLine(event))
	m.SetBody("text/plain", s.body(event))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send %s email for booking %s: %w", event.Type, event.BookingID, err)
	}
	return nil
}

func subjectLine(event kafka.BookingEvent) string {
	name := event.SubjectName
	if name == "" {
		name = "your trip"
	}
	switch event.Type {
	case kafka.EventBookingCreated:
		return "We received your booking for " + name
	case kafka.EventBookingConfirmed:
		return "Your booking for " + name + " is confirmed"
	case kafka.EventBookingCancelled:
		return "Your booking for " + name + " was cancelled"
	case kafka.EventBookingCompleted:
		return "How was " + name + "?"
	case kafka.EventPaymentConfirmed:
		return "Payment received for " + name
	case kafka.EventPaymentUpdated:
		return "Payment update for " + name
	default:
		return "Update on your booking for " + name
	}
}

func (s *Sender) body(event kafka.BookingEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", event.ContactName)

	switch event.Type {
	case kafka.EventBookingCreated:
		fmt.Fprintf(&b, "Thanks for booking with us. Your reservation is pending and we will be in touch once it is confirmed.\n")
	case kafka.EventBookingConfirmed:
		fmt.Fprintf(&b, "Good news: your reservation is confirmed. Pack your bags!\n")
	case kafka.EventBookingCancelled:
		fmt.Fprintf(&b, "Your reservation has been cancelled. If this was unexpected, please get in touch.\n")
	case kafka.EventBookingCompleted:
		fmt.Fprintf(&b, "We hope you enjoyed the trip. We would love to hear your feedback.\n")
	case kafka.EventPaymentConfirmed:
		fmt.Fprintf(&b, "We received your payment of %s. Thank you!\n", formatMoney(event.TotalPriceCents, event.Currency))
	case kafka.EventPaymentUpdated:
		fmt.Fprintf(&b, "The payment status of your reservation changed to %s.\n", event.PaymentStatus)
	default:
		fmt.Fprintf(&b, "The status of your reservation changed to %s.\n", event.Status)
	}

	fmt.Fprintf(&b, "\nTravel dates: %s to %s\n", event.StartDate.Format("Jan 2, 2006"), event.EndDate.Format("Jan 2, 2006"))
	fmt.Fprintf(&b, "Total: %s\n", formatMoney(event.TotalPriceCents, event.Currency))
	if s.cfg.BaseURL != "" {
		fmt.Fprintf(&b, "\nView your booking: %s/bookings/%s\n", strings.TrimRight(s.cfg.BaseURL, "/"), event.BookingID)
	}
	return b.String()
}

func formatMoney(cents int64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s %.2f", currency, float64(cents)/100)
}
