package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/pkg/kafka"
	"github.com/Astemirdum/lending-service/pkg/retry"
)

const (
	defaultSettleAttempts  = 5
	defaultSettleBaseDelay = 200 * time.Millisecond
)

type settleFine func(ctx context.Context, st model.FineSettlement) error

// Consumer applies payment processor results from the fines topic.
type Consumer struct {
	settleFineHandler settleFine
	log               *zap.Logger
	ready             chan struct{}
	readyOnce         sync.Once

	settleAttempts  int
	settleBaseDelay time.Duration
}

type ConsumerOption func(*Consumer)

// WithSettleRetry bounds the in-place retries of a failing settlement.
func WithSettleRetry(attempts int, baseDelay time.Duration) ConsumerOption {
	return func(c *Consumer) {
		c.settleAttempts = attempts
		c.settleBaseDelay = baseDelay
	}
}

func NewConsumer(settle settleFine, log *zap.Logger, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		settleFineHandler: settle,
		log:               log.Named("consumer"),
		ready:             make(chan struct{}),
		settleAttempts:    defaultSettleAttempts,
		settleBaseDelay:   defaultSettleBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ready is closed once the first session is set up.
func (consumer *Consumer) Ready() <-chan struct{} {
	return consumer.ready
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	consumer.readyOnce.Do(func() { close(consumer.ready) })
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			if err := consumer.handle(session.Context(), message); err != nil {
				if session.Context().Err() != nil {
					return nil
				}
				// marking a later offset would commit past this one; end the
				// session so the group resumes from the last committed offset
				return fmt.Errorf("offset %d: %w", message.Offset, err)
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// handle returns an error only when the message must be delivered again.
// Malformed events and business outcomes are logged and count as done.
func (consumer *Consumer) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var ev kafka.EventFinePayment
	if err := kafka.Decode(message.Value, &ev); err != nil {
		consumer.log.Error("kafka.Decode", zap.Error(err), zap.ByteString("value", message.Value))
		return nil
	}
	fineUid, err := uuid.Parse(ev.FineUid)
	if err != nil {
		consumer.log.Error("bad fineUid", zap.String("fineUid", ev.FineUid))
		return nil
	}
	st := model.FineSettlement{
		FineUid:       fineUid,
		UserID:        ev.UserID,
		Status:        model.FineStatus(ev.Status),
		PaymentMethod: model.PaymentMethod(ev.PaymentMethod),
	}
	if st.Status == model.FineStatusPaid && !st.PaymentMethod.Valid() {
		consumer.log.Error("bad payment method", zap.String("method", ev.PaymentMethod))
		return nil
	}

	err = retry.Do(ctx,
		func(ctx context.Context) error {
			return consumer.settleFineHandler(ctx, st)
		},
		retry.WithMaxAttempts(consumer.settleAttempts),
		retry.WithBaseDelay(consumer.settleBaseDelay),
		retry.WithRetryIf(func(err error) bool {
			return !done(err)
		}),
		retry.WithOnRetry(func(attempt int, err error) {
			consumer.log.Warn("settle fine failed, retrying",
				zap.Stringer("fine", fineUid), zap.Int("attempt", attempt), zap.Error(err))
		}),
	)
	switch {
	case err == nil:
	case done(err):
		consumer.log.Warn("payment event skipped", zap.Stringer("fine", fineUid), zap.Error(err))
	default:
		consumer.log.Error("consumer.settleFineHandler", zap.Stringer("fine", fineUid), zap.Error(err))
		return err
	}

	consumer.log.Debug("Message claimed:", zap.String("value", string(message.Value)), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
	return nil
}

// done reports settlement outcomes that a redelivery would not change.
func done(err error) bool {
	return errs.IsBusiness(err) || errors.Is(err, errs.ErrInvalidStatus)
}
