// Package notify hands OTP and password-reset messages to the downstream
// delivery service over a topic-based bus. Delivery itself (SMTP, SMS) is
// not done here.
package notify

import (
	"context"
	"errors"
	"time"
)

// Subjects published to.
const (
	SubjectEmailOTP        = "notification.email.otp"
	SubjectSMSOTP          = "notification.sms.otp"
	SubjectPasswordReset   = "notification.email.password_reset"
	SubjectPasswordChanged = "notification.email.password_changed"
)

// Channel is the delivery medium of a message.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Template names understood by the delivery service.
const (
	TemplateOTP             = "otp"
	TemplatePasswordReset   = "password_reset"
	TemplatePasswordChanged = "password_changed"
)

// ErrPublish wraps every bus failure.
var ErrPublish = errors.New("notification publish failed")

// Message is the JSON payload of every subject.
type Message struct {
	Recipient  string    `json:"recipient"`
	Channel    Channel   `json:"channel"`
	Template   string    `json:"template"`
	Code       string    `json:"code,omitempty"`
	ResetToken string    `json:"reset_token,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

// Publisher is the Notification Publisher. Each call is one awaited
// dispatch; a nil error means the bus accepted the message.
type Publisher interface {
	SendEmailOTP(ctx context.Context, recipient, code string) error
	SendSMSOTP(ctx context.Context, recipient, code string) error
	SendPasswordResetEmail(ctx context.Context, recipient, resetToken string) error
	SendPasswordChangedConfirmation(ctx context.Context, recipient string) error
}

// Discard accepts and drops every message.
type Discard struct{}

func (Discard) SendEmailOTP(context.Context, string, string) error { return nil }

func (Discard) SendSMSOTP(context.Context, string, string) error { return nil }

func (Discard) SendPasswordResetEmail(context.Context, string, string) error { return nil }

func (Discard) SendPasswordChangedConfirmation(context.Context, string) error { return nil }
