package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

var _ Conn = (*nats.Conn)(nil)

// NATSPublisher publishes [Message] payloads and flushes before returning,
// so a nil error means the server received the message.
type NATSPublisher struct {
	conn Conn
	now  func() time.Time
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn, now: time.Now}
}

func (p *NATSPublisher) SendEmailOTP(ctx context.Context, recipient, code string) error {
	return p.publish(ctx, SubjectEmailOTP, Message{
		Recipient: recipient,
		Channel:   ChannelEmail,
		Template:  TemplateOTP,
		Code:      code,
	})
}

func (p *NATSPublisher) SendSMSOTP(ctx context.Context, recipient, code string) error {
	return p.publish(ctx, SubjectSMSOTP, Message{
		Recipient: recipient,
		Channel:   ChannelSMS,
		Template:  TemplateOTP,
		Code:      code,
	})
}

func (p *NATSPublisher) SendPasswordResetEmail(ctx context.Context, recipient, resetToken string) error {
	return p.publish(ctx, SubjectPasswordReset, Message{
		Recipient:  recipient,
		Channel:    ChannelEmail,
		Template:   TemplatePasswordReset,
		ResetToken: resetToken,
	})
}

func (p *NATSPublisher) SendPasswordChangedConfirmation(ctx context.Context, recipient string) error {
	return p.publish(ctx, SubjectPasswordChanged, Message{
		Recipient: recipient,
		Channel:   ChannelEmail,
		Template:  TemplatePasswordChanged,
	})
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, msg Message) error {
	msg.SentAt = p.now().UTC()
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrPublish, subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPublish, subject, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("%w: flush %s: %v", ErrPublish, subject, err)
	}
	return nil
}
