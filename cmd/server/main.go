package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"consentledger/internal/audit"
	"consentledger/internal/consent"
	"consentledger/internal/notify"
	"consentledger/internal/patient"
	"consentledger/internal/platform/config"
	"consentledger/internal/platform/httpserver"
	"consentledger/internal/platform/kafka/producer"
	"consentledger/internal/platform/logger"
	"consentledger/internal/platform/metrics"
	platformredis "consentledger/internal/platform/redis"
	httptransport "consentledger/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	var db *sql.DB
	if cfg.PostgresURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return err
		}
		log.Info("postgres connected")
	}

	rdb, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("redis connected")
	}

	var kafkaProducer *producer.Producer
	if cfg.KafkaBrokers != "" {
		kafkaProducer, err = producer.New(producer.Config{Brokers: cfg.KafkaBrokers, Retries: 3}, log)
		if err != nil {
			return err
		}
		defer kafkaProducer.Close()
		log.Info("kafka producer ready", slog.String("brokers", cfg.KafkaBrokers))
	}

	var consentStore consent.Store
	switch {
	case db != nil:
		consentStore = consent.NewPostgres(db)
	case rdb != nil:
		consentStore = consent.NewRedis(rdb.Client)
	default:
		consentStore = consent.NewInMemoryStore()
	}

	var auditStore audit.Store
	var patientStore patient.Store
	if db != nil {
		auditStore = audit.NewPostgres(db)
		patientStore = patient.NewPostgres(db)
	} else {
		auditStore = audit.NewInMemoryStore()
		patientStore = patient.NewInMemoryStore()
	}

	var ledgerOpts []audit.LedgerOption
	if kafkaProducer != nil {
		ledgerOpts = append(ledgerOpts, audit.WithMirror(audit.NewKafkaMirror(kafkaProducer, cfg.AuditMirrorTopic)))
	}

	authority := consent.NewAuthority(consentStore, log, m)
	ledger := audit.NewLedger(auditStore, log, m, ledgerOpts...)

	var notifier patient.Notifier
	if kafkaProducer != nil {
		notifier = notify.NewKafkaNotifier(kafkaProducer, cfg.NotificationTopic, log)
	} else {
		notifier = notify.NewLogNotifier(log)
	}
	directory := patient.NewDirectory(patientStore, authority, ledger, notifier, log)

	handler := httptransport.NewHandler(authority, ledger, directory, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
