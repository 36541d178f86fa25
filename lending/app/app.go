package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/config"
	"github.com/Astemirdum/lending-service/lending/internal/clock"
	"github.com/Astemirdum/lending-service/lending/internal/handler"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/lending/internal/notify"
	"github.com/Astemirdum/lending-service/lending/internal/reminder"
	"github.com/Astemirdum/lending-service/lending/internal/repository"
	"github.com/Astemirdum/lending-service/lending/internal/server"
	"github.com/Astemirdum/lending-service/lending/internal/service"
	"github.com/Astemirdum/lending-service/lending/migrations"
	"github.com/Astemirdum/lending-service/pkg/circuit_breaker"
	"github.com/Astemirdum/lending-service/pkg/kafka"
	"github.com/Astemirdum/lending-service/pkg/logger"
	"github.com/Astemirdum/lending-service/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "lending")
	defer log.Sync() //nolint:errcheck

	loc, err := time.LoadLocation(cfg.Reminder.Timezone)
	if err != nil {
		return fmt.Errorf("reminder timezone %v", err)
	}
	clk := clock.Real{Location: loc}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	defer db.Close()
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo %v", err)
	}

	var (
		notifier service.Notifier = notify.NewLogger(log)
		producer sarama.SyncProducer
		group    sarama.ConsumerGroup
	)
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka.NewProducer %v", err)
		}
		defer producer.Close()
		notifier = notify.NewEnqueuer(producer, circuit_breaker.New(100, 30*time.Second, 0.2, 2), clk, log)
	}

	svc := service.NewService(repo, notifier, clk, service.Config{
		Policy: model.Policy{
			MaxActiveBorrows: cfg.Policy.MaxActiveBorrows,
			BorrowDuration:   cfg.Policy.BorrowDuration,
			FinePerDay:       cfg.Policy.FinePerDay,
		},
		TxAttempts:     cfg.Policy.TxAttempts,
		RetryBaseDelay: cfg.Policy.RetryBaseDelay,
	}, log)

	if cfg.Kafka.Enabled {
		group, err = kafka.NewConsumer(cfg.Kafka, kafka.LendingConsumerGroup)
		if err != nil {
			return fmt.Errorf("kafka.NewConsumer %v", err)
		}
		defer group.Close()
		go kafka.Consume(ctx, group, handler.NewConsumer(svc.SettleFine, log), log, kafka.FinePaymentTopic)
	}

	if cfg.Reminder.Enabled {
		go reminder.NewScheduler(svc, clk, cfg.Reminder.Hour, log).Run(ctx)
	}

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))
	cancel()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
	return nil
}
