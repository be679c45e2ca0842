package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"adresolver/internal/directory"
	"adresolver/internal/directory/ldap"
	domainmetrics "adresolver/internal/domains/metrics"
	domainservice "adresolver/internal/domains/service"
	domainstore "adresolver/internal/domains/store"
	"adresolver/internal/platform/config"
	"adresolver/internal/platform/httpserver"
	"adresolver/internal/platform/logger"
	platformredis "adresolver/internal/platform/redis"
	principalmetrics "adresolver/internal/principals/metrics"
	principalservice "adresolver/internal/principals/service"
	principalstore "adresolver/internal/principals/store"
	httptransport "adresolver/internal/transport/http"
	audit "adresolver/pkg/platform/audit"
	"adresolver/pkg/platform/audit/publisher"
	auditmemory "adresolver/pkg/platform/audit/store/memory"
	auditworker "adresolver/pkg/platform/audit/worker"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	querier := ldap.New(cfg.Directory.URL, cfg.Directory.BindDN,
		ldap.WithLogger(log),
		ldap.WithCredential(directory.Credential(cfg.Directory.Credential)),
	)

	// Audit pipeline: resolvers publish to a channel; either Kafka or the
	// in-process worker drains it.
	auditStore := auditmemory.New()
	outbox := make(chan audit.Event, 256)
	var auditor interface {
		Emit(ctx context.Context, event audit.Event) error
	} = publisher.NewChannel(outbox)

	worker := auditworker.NewWorker(auditStore, outbox)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("audit worker stopped", "error", err.Error())
		}
	}()

	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := publisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := kafka.Flush(flushCtx); err != nil {
				log.Warn("audit flush incomplete", "error", err.Error())
			}
			kafka.Close()
		}()
		auditor = kafka
		log.Info("audit events publishing to kafka", "topic", cfg.Kafka.Topic)
	}

	domainRegistry := domainstore.NewInMemory()
	domainSvc, err := domainservice.New(domainRegistry, querier,
		domainservice.WithLogger(log),
		domainservice.WithMetrics(domainmetrics.New()),
		domainservice.WithAuditPublisher(auditor),
		domainservice.WithDefaultDomain(cfg.DefaultDomain),
	)
	if err != nil {
		return err
	}

	// The principal registry is process-local unless Redis is configured,
	// in which case resolutions are shared across replicas.
	var principalRegistry principalservice.Registry = principalstore.NewInMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		principalRegistry = principalstore.NewRedis(redisClient.Client)
		log.Info("principal registry backed by redis")
	}

	principalSvc, err := principalservice.New(principalRegistry, querier, domainSvc, domainRegistry,
		principalservice.WithLogger(log),
		principalservice.WithMetrics(principalmetrics.New()),
		principalservice.WithAuditPublisher(auditor),
	)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(log, auditStore,
		httptransport.NewDomainsHandler(domainSvc, log),
		httptransport.NewPrincipalsHandler(principalSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("adresolver listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
