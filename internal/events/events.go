// Package events публикует доменные события конкурса во внешнюю шину.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Типы событий
const (
	TypeContestJoined       = "contest.joined"
	TypeContestStatus       = "contest.status_changed"
	TypeSubmissionCompleted = "submission.completed"
	TypePrizesDistributed   = "prizes.distributed"
)

// Event - доменное событие
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	ContestID  uint        `json:"contest_id"`
	UserID     uint        `json:"user_id,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
}

// New создает событие с новым идентификатором
func New(eventType string, contestID, userID uint, at time.Time, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: at,
		ContestID:  contestID,
		UserID:     userID,
		Payload:    payload,
	}
}

// Publisher публикует события
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NoopPublisher используется, когда шина событий не настроена
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }
func (NoopPublisher) Close()                                         {}

// NatsPublisher публикует события в NATS в subject "<prefix>.<type>"
type NatsPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

// NewNatsPublisher подключается к NATS
func NewNatsPublisher(url, prefix string, logger *zap.Logger) (*NatsPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("NatsPublisher")
	conn, err := nats.Connect(url,
		nats.Name("contest-participation-system"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NatsPublisher{conn: conn, prefix: prefix, logger: log}, nil
}

// Subject возвращает subject для типа события
func Subject(prefix, eventType string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// Publish сериализует событие в JSON и публикует его
func (p *NatsPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	msg := &nats.Msg{
		Subject: Subject(p.prefix, event.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}
	return nil
}

// Close дожидается отправки буфера и закрывает соединение
func (p *NatsPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("nats drain failed", zap.Error(err))
		p.conn.Close()
	}
}
