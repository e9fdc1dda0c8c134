package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/config"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/handler"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/model"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/repository"
	"github.com/vasapolrittideah/task-tracker-api/services/task-api/internal/usecase"
	"github.com/vasapolrittideah/task-tracker-api/shared/auth"
	"github.com/vasapolrittideah/task-tracker-api/shared/logger"
	"github.com/vasapolrittideah/task-tracker-api/shared/mailer"
	"github.com/vasapolrittideah/task-tracker-api/shared/utilities"
)

const serviceName = "task-api"

type stores struct {
	users      repository.Store[*model.User]
	tasks      repository.Store[*model.Task]
	disconnect func(ctx context.Context) error
}

func main() {
	log := logger.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	taskAPICfg := config.NewTaskAPIConfig(log)

	s := newStores(ctx, log, taskAPICfg)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), taskAPICfg.ShutdownTimeout)
		defer cancel()
		if err := s.disconnect(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from database")
		}
	}()

	notifier := usecase.NewNoopNotifier()
	if m := mailer.NewMailer(log); m.Enabled() {
		notifier = usecase.NewMailNotifier(m)
	}

	jwtAuth := auth.NewJWTAuthenticator(serviceName, taskAPICfg.Token.Issuer)

	userUsecase := usecase.NewDocumentUsecase(usecase.Model[*model.User]{Name: "user", New: model.NewUser}, s.users)
	taskUsecase := usecase.NewDocumentUsecase(usecase.Model[*model.Task]{Name: "task", New: model.NewTask}, s.tasks)
	authUsecase := usecase.NewAuthUsecase(s.users, jwtAuth, taskAPICfg)
	accountUsecase := usecase.NewAccountUsecase(userUsecase, taskUsecase, authUsecase, notifier, log)

	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", taskAPICfg.Port),
		Handler: handler.NewRouter(handler.RouterDeps{
			Logger:         log,
			AuthUsecase:    authUsecase,
			AccountUsecase: accountUsecase,
			TaskUsecase:    taskUsecase,
			Pinger:         s.users,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcServer, healthServer := startHealthServer(log, taskAPICfg.GRPCHealthPort)

	go func() {
		log.Info().Int("port", taskAPICfg.Port).Str("db_driver", taskAPICfg.DB.Driver).Msg("task API is listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down task API")

	if healthServer != nil {
		healthServer.Shutdown()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), taskAPICfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down HTTP server gracefully")
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	log.Info().Msg("task API stopped")
}

func newStores(ctx context.Context, log *zerolog.Logger, cfg *config.TaskAPIConfig) stores {
	if cfg.DB.Driver == config.DBDriverMemory {
		log.Warn().Msg("using the in-memory store, data will not survive a restart")

		return stores{
			users:      repository.NewMemoryStore(repository.UserCollection, model.NewUser),
			tasks:      repository.NewMemoryStore(repository.TaskCollection, model.NewTask),
			disconnect: func(context.Context) error { return nil },
		}
	}

	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.DB.Host).
		SetConnectTimeout(cfg.DB.ConnectTimeout).
		SetServerSelectionTimeout(cfg.DB.ConnectTimeout))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}

	db := client.Database(cfg.DB.Name)
	users := repository.NewMongoStore(ctx, log, db, repository.UserCollection, model.NewUser)
	if err := users.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("host", cfg.DB.Host).Msg("failed to reach MongoDB")
	}

	log.Info().Str("database", cfg.DB.Name).Msg("connected to MongoDB")

	return stores{
		users:      users,
		tasks:      repository.NewMongoStore(ctx, log, db, repository.TaskCollection, model.NewTask),
		disconnect: client.Disconnect,
	}
}

// startHealthServer serves the standard gRPC health service when port is set.
func startHealthServer(log *zerolog.Logger, port int) (*grpc.Server, *health.Server) {
	if port <= 0 {
		return nil, nil
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		log.Fatal().Err(err).Int("port", port).Msg("failed to listen for gRPC health checks")
	}

	grpcServer := grpc.NewServer()
	healthServer := utilities.RegisterHealthServer(grpcServer, serviceName)

	go func() {
		log.Info().Int("port", port).Msg("gRPC health server is listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Error().Err(err).Msg("gRPC health server stopped")
		}
	}()

	return grpcServer, healthServer
}
