package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tutoring-controlplane/pkg/config"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Event subjects, published under the configured prefix.
const (
	SubjectFeedbackCreated = "feedback.created"
	SubjectStudentInvited  = "student.invited"
)

// FeedbackCreatedEvent is published after a lesson feedback record is persisted.
type FeedbackCreatedEvent struct {
	TenantID   string    `json:"tenant_id"`
	StudentID  string    `json:"student_id"`
	LessonDate string    `json:"lesson_date"`
	SequenceID string    `json:"sequence_id"`
	Translated bool      `json:"translated"`
	Timestamp  time.Time `json:"timestamp"`
}

// StudentInvitedEvent is published when a new invite code is issued.
type StudentInvitedEvent struct {
	TenantID          string    `json:"tenant_id"`
	ExternalStudentID string    `json:"external_student_id"`
	InviteCode        string    `json:"invite_code"`
	ExpiresAt         time.Time `json:"expires_at"`
	Timestamp         time.Time `json:"timestamp"`
}

// Notifier delivers domain events to the notification collaborator. Delivery
// is best effort: callers log failures and move on, a lost notification never
// fails the surrounding operation.
type Notifier interface {
	Publish(ctx context.Context, subject string, event any) error
}

var Module = fx.Module("notify",
	fx.Provide(New),
)

func New(lc fx.Lifecycle, cfg *config.Config) Notifier {
	if cfg.Nats.Addr == "" {
		zap.L().Warn("[NATS] no address configured, notifications disabled")
		return noopNotifier{}
	}

	conn, err := nats.Connect(cfg.Nats.Addr,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		zap.L().Warn("[NATS] connect failed, notifications disabled", zap.Error(err))
		return noopNotifier{}
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})

	zap.L().Info("[NATS] Connected", zap.String("addr", cfg.Nats.Addr))
	return &natsNotifier{conn: conn, prefix: cfg.Nats.SubjectPrefix}
}

type natsNotifier struct {
	conn   *nats.Conn
	prefix string
}

func (n *natsNotifier) Publish(_ context.Context, subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	full := subject
	if n.prefix != "" {
		full = fmt.Sprintf("%s.%s", n.prefix, subject)
	}

	if err := n.conn.Publish(full, payload); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, string, any) error { return nil }
