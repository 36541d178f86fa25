package notify

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/clock"
	"github.com/Astemirdum/lending-service/pkg/circuit_breaker"
	"github.com/Astemirdum/lending-service/pkg/kafka"
)

// Enqueuer publishes due reminders for the mailer. The breaker stops hammering
// an unavailable broker; callers see circuit_breaker.ErrOpenCB meanwhile.
type Enqueuer struct {
	log      *zap.Logger
	producer sarama.SyncProducer
	cb       circuit_breaker.CircuitBreaker
	clock    clock.Clock
	topic    string
}

func NewEnqueuer(producer sarama.SyncProducer, cb circuit_breaker.CircuitBreaker, clk clock.Clock, log *zap.Logger) *Enqueuer {
	return &Enqueuer{
		log:      log.Named("notify"),
		producer: producer,
		cb:       cb,
		clock:    clk,
		topic:    kafka.DueReminderTopic,
	}
}

func (q *Enqueuer) NotifyDue(ctx context.Context, userEmail, bookTitle string, dueDate time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := kafka.Message(q.topic, userEmail, kafka.EventDueReminder{
		UserEmail: userEmail,
		BookTitle: bookTitle,
		DueDate:   dueDate,
		SentAt:    q.clock.Now(),
	})
	if err != nil {
		return err
	}

	return q.cb.Call(func() error {
		partition, offset, err := q.producer.SendMessage(msg)
		if err != nil {
			return err
		}
		q.log.Debug("reminder enqueued",
			zap.String("to", userEmail), zap.Int32("partition", partition), zap.Int64("offset", offset))
		return nil
	})
}

// Logger only records reminders; used when no broker is configured.
type Logger struct {
	log *zap.Logger
}

func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log.Named("notify")}
}

func (l *Logger) NotifyDue(_ context.Context, userEmail, bookTitle string, dueDate time.Time) error {
	l.log.Info("book due tomorrow",
		zap.String("to", userEmail), zap.String("title", bookTitle), zap.Time("due", dueDate))
	return nil
}
