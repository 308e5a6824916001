package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dongwon38/print-agent/internal/dal/api"
	"github.com/Dongwon38/print-agent/internal/dal/interfaces/ieventpublisher"
	"github.com/Dongwon38/print-agent/internal/dal/interfaces/iprintjobrepo"
	"github.com/Dongwon38/print-agent/internal/dal/interfaces/itokenstore"
	"github.com/Dongwon38/print-agent/internal/dal/postgres"
	"github.com/Dongwon38/print-agent/internal/dal/printer/escpos"
	"github.com/Dongwon38/print-agent/internal/dal/rabbitmq"
	eventrepo "github.com/Dongwon38/print-agent/internal/dal/repositories/event/rabbitmq"
	printjobrepo "github.com/Dongwon38/print-agent/internal/dal/repositories/printjob/postgres"
	tokenfile "github.com/Dongwon38/print-agent/internal/dal/repositories/token/file"
	tokenpg "github.com/Dongwon38/print-agent/internal/dal/repositories/token/postgres"
	"github.com/Dongwon38/print-agent/internal/otel"
	"github.com/Dongwon38/print-agent/internal/receipt"
	"github.com/Dongwon38/print-agent/internal/service/services/authsvc"
	"github.com/Dongwon38/print-agent/internal/service/services/printsvc"
	grpctransport "github.com/Dongwon38/print-agent/internal/transport/grpc"
	httptransport "github.com/Dongwon38/print-agent/internal/transport/http"
	"github.com/Dongwon38/print-agent/internal/worker/poller"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// App represents the application.
type App struct {
	worker         *poller.Worker
	httpTransport  *httptransport.HTTPTransport
	grpcTransport  *grpctransport.GRPCTransport
	postgresClient *postgres.Client
	rabbitMqClient *rabbitmq.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()

	var postgresClient *postgres.Client
	if viper.GetBool("postgres.enabled") {
		postgresClient = postgres.MustNewClient()
	}

	var rabbitMqClient *rabbitmq.Client
	if viper.GetBool("rabbitmq.enabled") {
		rabbitMqClient = rabbitmq.MustNewClient()
	}

	apiClient := api.MustNewClient()

	authSvc := authsvc.MustNewAuthService(
		authsvc.WithOrderAPI(apiClient),
		authsvc.WithTokenStore(mustNewTokenStore(postgresClient)),
	)

	var journal iprintjobrepo.IPrintJobRepository
	if postgresClient != nil {
		journal = printjobrepo.NewPrintJobRepository(postgresClient)
	}

	var events ieventpublisher.IEventPublisher
	if rabbitMqClient != nil {
		events = eventrepo.MustNewEventPublisher(rabbitMqClient)
	}

	printSvc := printsvc.MustNewPrintService(
		printsvc.WithComposer(receipt.MustNewComposer()),
		printsvc.WithPrinter(escpos.MustNewSession()),
		printsvc.WithOrderAPI(apiClient),
		printsvc.WithJournal(journal),
		printsvc.WithEventPublisher(events),
	)

	grpcTransport := grpctransport.NewGRPCTransport()
	worker := poller.NewWorker(printSvc, authSvc,
		poller.WithEventPublisher(events),
		poller.WithStateListener(grpcTransport.SetPollerState),
	)

	httpTransport := httptransport.NewHTTPTransport(worker, printSvc)
	httpTransport.RegisterRoutes()

	return &App{
		worker:         worker,
		httpTransport:  httpTransport,
		grpcTransport:  grpcTransport,
		postgresClient: postgresClient,
		rabbitMqClient: rabbitMqClient,
		otelController: otelController,
	}
}

func mustNewTokenStore(postgresClient *postgres.Client) itokenstore.ITokenStore {
	switch driver := viper.GetString("token_store.driver"); driver {
	case "", "file":
		return tokenfile.NewTokenRepository()
	case "postgres":
		if postgresClient == nil {
			panic("token_store.driver is postgres but postgres.enabled is false")
		}

		return tokenpg.NewTokenRepository(postgresClient)
	default:
		panic("unknown token_store.driver " + driver)
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.worker.Run(gctx)

		return nil
	})

	g.Go(func() error {
		if err := a.httpTransport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)

			return err
		}

		return nil
	})

	g.Go(func() error {
		if err := a.grpcTransport.Run(); err != nil {
			slog.Error("gRPC server error", "error", err)

			return err
		}

		return nil
	})

	select {
	case <-stop:
		slog.Info("Shutdown signal received")
	case <-gctx.Done():
		slog.Error("Component failed, shutting down")
	}
	cancel()

	a.gracefulShutdown()

	if err := g.Wait(); err != nil {
		slog.Error("Application stopped with error", "error", err)
	}
}

// gracefulShutdown shuts components down sequentially: poller, HTTP, gRPC,
// RabbitMQ, PostgreSQL and OpenTelemetry.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.worker.Shutdown()
	slog.Info("Poller stopped gracefully")

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.grpcTransport.Shutdown(ctx); err != nil {
		slog.Error("gRPC server shutdown error", "error", err)
	} else {
		slog.Info("gRPC server stopped gracefully")
	}

	if a.rabbitMqClient != nil {
		if err := a.rabbitMqClient.Close(); err != nil {
			slog.Error("RabbitMQ connection close error", "error", err)
		} else {
			slog.Info("RabbitMQ connection closed gracefully")
		}
	}

	if a.postgresClient != nil {
		a.postgresClient.Close()
		slog.Info("Database connection closed gracefully")
	}

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
