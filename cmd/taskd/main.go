package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskd/internal/identity"
	"taskd/internal/project"
	"taskd/internal/server"
	"taskd/internal/service"
	"taskd/internal/storage/mongodb"
	"taskd/internal/util"
)

func main() {
	addrFlag := flag.String("addr", util.EnvOrDefault("TASKD_ADDR", ":8080"), "HTTP listen address")
	mongoURIFlag := flag.String("mongo-uri", util.EnvOrDefault("TASKD_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	mongoDBFlag := flag.String("mongo-db", util.EnvOrDefault("TASKD_MONGO_DB", "taskd"), "MongoDB database name")
	userServiceFlag := flag.String("user-service", util.EnvOrDefault("TASKD_USER_SERVICE_URL", "http://localhost:8081/users"), "Base URL of the user service")
	orgFlag := flag.String("org", util.EnvOrDefault("TASKD_ORG_ID", "default"), "Organization id stamped onto tasks")
	maxSubtasksFlag := flag.Int64("max-subtasks", util.EnvInt64OrDefault("TASKD_MAX_SUBTASKS", 100), "Maximum subtasks returned per listing")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := mongodb.Open(connectCtx, *mongoURIFlag, *mongoDBFlag, logger)
	cancelConnect()
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	projects := project.NewResolver(store.ProjectsCollection(), logger)
	users := identity.NewResolver(*userServiceFlag, nil)

	svc := service.New(store, projects, users, service.Config{
		OrgID:       *orgFlag,
		MaxSubtasks: *maxSubtasksFlag,
	}, logger)

	srv := server.New(svc, users, logger)

	httpServer := &http.Server{
		Addr:    *addrFlag,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr), slog.String("org", *orgFlag))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
