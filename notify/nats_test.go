package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs       []published
	publishErr error
	flushErr   error
	flushes    int
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.msgs = append(c.msgs, published{subject: subject, data: data})
	return nil
}

func (c *fakeConn) FlushWithContext(context.Context) error {
	c.flushes++
	return c.flushErr
}

func TestNATSPublisherSubjectsAndPayloads(t *testing.T) {
	conn := &fakeConn{}
	p := NewNATSPublisher(conn)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return at }
	ctx := context.Background()

	if err := p.SendEmailOTP(ctx, "a@b.com", "123456"); err != nil {
		t.Fatalf("email otp: %v", err)
	}
	if err := p.SendSMSOTP(ctx, "+15550001111", "654321"); err != nil {
		t.Fatalf("sms otp: %v", err)
	}
	if err := p.SendPasswordResetEmail(ctx, "a@b.com", "raw-token"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := p.SendPasswordChangedConfirmation(ctx, "a@b.com"); err != nil {
		t.Fatalf("changed: %v", err)
	}

	want := []string{SubjectEmailOTP, SubjectSMSOTP, SubjectPasswordReset, SubjectPasswordChanged}
	if len(conn.msgs) != len(want) || conn.flushes != len(want) {
		t.Fatalf("got %d messages and %d flushes", len(conn.msgs), conn.flushes)
	}
	for i, subject := range want {
		if conn.msgs[i].subject != subject {
			t.Fatalf("message %d subject = %q, want %q", i, conn.msgs[i].subject, subject)
		}
	}

	var sms Message
	if err := json.Unmarshal(conn.msgs[1].data, &sms); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sms.Channel != ChannelSMS || sms.Code != "654321" || sms.Recipient != "+15550001111" || !sms.SentAt.Equal(at) {
		t.Fatalf("unexpected sms payload %+v", sms)
	}

	var reset Message
	_ = json.Unmarshal(conn.msgs[2].data, &reset)
	if reset.ResetToken != "raw-token" || reset.Code != "" || reset.Template != TemplatePasswordReset {
		t.Fatalf("unexpected reset payload %+v", reset)
	}
}

func TestNATSPublisherWrapsFailures(t *testing.T) {
	ctx := context.Background()

	p := NewNATSPublisher(&fakeConn{publishErr: errors.New("nats: connection closed")})
	if err := p.SendEmailOTP(ctx, "a@b.com", "1"); !errors.Is(err, ErrPublish) {
		t.Fatalf("expected ErrPublish on publish, got %v", err)
	}

	p = NewNATSPublisher(&fakeConn{flushErr: context.DeadlineExceeded})
	if err := p.SendPasswordResetEmail(ctx, "a@b.com", "t"); !errors.Is(err, ErrPublish) {
		t.Fatalf("expected ErrPublish on flush, got %v", err)
	}
}
