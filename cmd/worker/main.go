package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/varnwear/storefront/internal/mailer"
	"github.com/varnwear/storefront/internal/messaging"
	"github.com/varnwear/storefront/internal/telemetry"
	"github.com/varnwear/storefront/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "notification-worker", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	emailServiceURL := os.Getenv("EMAIL_SERVICE_URL")
	if emailServiceURL == "" {
		logger.Error("EMAIL_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	brokers := strings.Split(kafkaBrokers, ",")

	createdConsumer := messaging.NewConsumer(brokers, messaging.TopicOrderCreated, "notification-worker")
	defer func() { _ = createdConsumer.Close() }()

	cancelledConsumer := messaging.NewConsumer(brokers, messaging.TopicOrderCancelled, "notification-worker")
	defer func() { _ = cancelledConsumer.Close() }()

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	mail := mailer.NewClient(emailServiceURL, httpClient)
	handler := worker.NewNotificationHandler(mail, logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting notification worker", "brokers", brokers)

	errs := make(chan error, 2)
	go func() {
		errs <- createdConsumer.Consume(ctx, handler.HandleCreated)
	}()
	go func() {
		errs <- cancelledConsumer.Consume(ctx, handler.HandleCancelled)
	}()

	if err := <-errs; err != nil {
		if ctx.Err() == context.Canceled {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
