package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "schoolleave/api/swagger" // swagger docs
	"schoolleave/internal/auth"
	"schoolleave/internal/config"
	"schoolleave/internal/database"
	"schoolleave/internal/directory"
	"schoolleave/internal/handler"
	"schoolleave/internal/logger"
	"schoolleave/internal/metrics"
	"schoolleave/internal/notify"
	"schoolleave/internal/repository"
	"schoolleave/internal/scope"
	"schoolleave/internal/service"
	"schoolleave/internal/session"
	"schoolleave/internal/websocket"
)

// @title           School Leave API
// @version         1.0
// @description     Leave requests, approvals and role-scoped records for students, teachers and admins.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load("configs/.env")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.SetupDefault(os.Stdout, cfg.GinMode)
	if envErr != nil {
		log.Info("No configs/.env file found or error loading it")
	}
	gin.SetMode(cfg.GinMode)

	listScope, err := scope.ParseTeacherScope(cfg.TeacherListScope, false)
	if err != nil {
		return err
	}
	queueScope, err := scope.ParseTeacherScope(cfg.TeacherQueueScope, true)
	if err != nil {
		return err
	}

	db, err := database.NewConnection(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	log.Info("database connected", "driver", cfg.DBDriver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SeedAdminID != "" {
		if err := database.SeedAdmin(ctx, db, cfg.SeedAdminID, cfg.SeedAdminPassword); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(cfg.CORSAllowedOrigins)
	go wsHub.Run()

	var dir directory.Directory = directory.NewLocal(db)
	if cfg.DirectoryURL != "" {
		dir = directory.NewRemote(cfg.DirectoryURL, cfg.DirectoryTimeout)
		log.Info("verifying credentials against remote directory", "url", cfg.DirectoryURL)
	}
	sessions := session.NewManager([]byte(cfg.JWTSecret), cfg.SessionTTL, cfg.SessionCapacity)

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	verifier := auth.NewVerifier(dir, rec, log)
	authService := service.NewAuthService(verifier, sessions, userRepo)
	leaveService := service.NewLeaveService(leaveRepo, auditRepo, txManager, service.LeavePolicies{
		List:  scope.Policy{Teacher: listScope},
		Queue: scope.Policy{Teacher: queueScope},
	}, wsHub, rec)
	userService := service.NewUserService(userRepo, auditRepo, txManager, cfg.UploadDir)
	auditService := service.NewAuditService(auditRepo)

	watcher := notify.NewWatcher(leaveService, wsHub, rec, cfg.PollInterval, log)
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	router := handler.NewRouter(handler.Dependencies{
		Auth:           authService,
		Leave:          leaveService,
		Users:          userService,
		Audit:          auditService,
		Sessions:       sessions,
		Metrics:        rec,
		Hub:            wsHub,
		Gatherer:       reg,
		Logger:         log,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		UploadDir:      cfg.UploadDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("Received shutdown signal, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server shutdown completed successfully")
	return nil
}
