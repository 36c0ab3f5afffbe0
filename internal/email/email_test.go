package email

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/wanderio/tourbooking/config"
	"github.com/wanderio/tourbooking/internal/kafka"
)

type captureDialer struct {
	messages []*gomail.Message
	err      error
}

func (d *captureDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, m...)
	return nil
}

func testEvent(eventType string) kafka.BookingEvent {
	return kafka.BookingEvent{
		Type:            eventType,
		BookingID:       "00000000-0000-0000-0000-000000000001",
		SubjectName:     "Kyoto Temples Walk",
		ContactName:     "Ada Lovelace",
		ContactEmail:    "ada@example.com",
		Status:          "CONFIRMED",
		PaymentStatus:   "PENDING",
		TotalPriceCents: 170000,
		Currency:        "USD",
		StartDate:       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
	}
}

func messageBody(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSend_ConfirmedEmail(t *testing.T) {
	dialer := &captureDialer{}
	sender := NewSenderWithDialer(config.EmailConfig{
		From:    "bookings@wander.io",
		ReplyTo: "support@wander.io",
		BaseURL: "https://wander.io/",
	}, dialer)

	err := sender.Send(context.Background(), testEvent(kafka.EventBookingConfirmed))

	require.NoError(t, err)
	require.Len(t, dialer.messages, 1)

	m := dialer.messages[0]
	assert.Equal(t, []string{"ada@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"bookings@wander.io"}, m.GetHeader("From"))
	assert.Equal(t, []string{"support@wander.io"}, m.GetHeader("Reply-To"))
	assert.Equal(t, []string{"Your booking for Kyoto Temples Walk is confirmed"}, m.GetHeader("Subject"))

	body := messageBody(t, m)
	assert.Contains(t, body, "Hi Ada Lovelace,")
	assert.Contains(t, body, "USD 1700.00")
	assert.Contains(t, body, "https://wander.io/bookings/00000000-0000-0000-0000-000000000001")
}

func TestSend_PaymentConfirmedMentionsAmount(t *testing.T) {
	dialer := &captureDialer{}
	sender := NewSenderWithDialer(config.EmailConfig{From: "bookings@wander.io"}, dialer)

	require.NoError(t, sender.Send(context.Background(), testEvent(kafka.EventPaymentConfirmed)))

	require.Len(t, dialer.messages, 1)
	assert.Equal(t, []string{"Payment received for Kyoto Temples Walk"}, dialer.messages[0].GetHeader("Subject"))
	assert.Contains(t, messageBody(t, dialer.messages[0]), "We received your payment of USD 1700.00")
}

func TestSend_PaymentUpdatedMentionsNewStatus(t *testing.T) {
	dialer := &captureDialer{}
	sender := NewSenderWithDialer(config.EmailConfig{From: "bookings@wander.io"}, dialer)

	event := testEvent(kafka.EventPaymentUpdated)
	event.PaymentStatus = "FAILED"

	require.NoError(t, sender.Send(context.Background(), event))

	require.Len(t, dialer.messages, 1)
	assert.Equal(t, []string{"Payment update for Kyoto Temples Walk"}, dialer.messages[0].GetHeader("Subject"))
	assert.Contains(t, messageBody(t, dialer.messages[0]), "payment status of your reservation changed to FAILED")
}

func TestSend_MissingContactEmail(t *testing.T) {
	dialer := &captureDialer{}
	sender := NewSenderWithDialer(config.EmailConfig{From: "bookings@wander.io"}, dialer)

	event := testEvent(kafka.EventBookingCreated)
	event.ContactEmail = ""

	err := sender.Send(context.Background(), event)
	require.Error(t, err)
	assert.Empty(t, dialer.messages)
}

func TestSend_DialerFailureWrapped(t *testing.T) {
	dialer := &captureDialer{err: errors.New("connection refused")}
	sender := NewSenderWithDialer(config.EmailConfig{From: "bookings@wander.io"}, dialer)

	err := sender.Send(context.Background(), testEvent(kafka.EventBookingCreated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
