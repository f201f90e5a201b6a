package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amirk1998/recipe-box/internal/audit"
	"github.com/amirk1998/recipe-box/internal/backup"
	"github.com/amirk1998/recipe-box/internal/config"
	"github.com/amirk1998/recipe-box/internal/database"
	"github.com/amirk1998/recipe-box/internal/httpapi"
	"github.com/amirk1998/recipe-box/internal/ratelimit"
	"github.com/amirk1998/recipe-box/internal/repository"
	"github.com/amirk1998/recipe-box/internal/security"
	"github.com/amirk1998/recipe-box/internal/service"
)

type application struct {
	config      *config.Config
	db          *sql.DB
	handlers    *httpapi.Handlers
	auditLogger *audit.Logger
	monitor     *audit.Monitor
	backupMgr   *backup.Manager
	rateLimiter *ratelimit.RateLimiter
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gin.SetMode(cfg.GinMode)

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background workers
	go app.backupMgr.StartAutomatedBackups(ctx, cfg.BackupInterval)
	go app.rateLimiter.StartCleanupWorker(ctx, 1*time.Hour)
	go app.runSecurityMonitoring(ctx)

	router := httpapi.NewRouter(cfg, app.handlers, app.rateLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting API server on %s (mode: %s)", srv.Addr, cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// initializeApplication sets up all application components
func initializeApplication(cfg *config.Config) (*application, error) {
	keys := security.NewKeyManager(cfg.DBEncryptionKey, cfg.AppEncryptionKey, cfg.BackupEncryptionKey)

	// Connect to encrypted database
	db, err := database.Connect(database.Config{
		Path:          cfg.DBPath,
		EncryptionKey: keys.DBKey(),
		MaxOpenConns:  25,
		MaxIdleConns:  5,
		MaxLifetime:   1 * time.Hour,
		MaxIdleTime:   10 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	// Initialize audit logger
	auditLogger, err := audit.NewLogger(db, cfg.AuditLogPath, cfg.AuditAsyncMode)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit logger: %w", err)
	}

	encryptor, err := security.NewFieldEncryptor(keys.AppKey())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize field encryptor: %w", err)
	}

	backupMgr, err := backup.NewManager(db, cfg.BackupDir, keys.BackupKey(), cfg.BackupRetentionDays)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize backup manager: %w", err)
	}

	rateLimiter := ratelimit.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	userRepo := repository.NewUserRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	txManager := database.NewTransactionManager(db)

	authService := service.NewAuthService(userRepo, rateLimiter, auditLogger)
	recipeService := service.NewRecipeService(recipeRepo, userRepo, txManager, encryptor, rateLimiter, auditLogger)

	return &application{
		config:      cfg,
		db:          db,
		handlers:    httpapi.NewHandlers(authService, recipeService),
		auditLogger: auditLogger,
		monitor:     audit.NewMonitor(auditLogger),
		backupMgr:   backupMgr,
		rateLimiter: rateLimiter,
	}, nil
}

// runSecurityMonitoring periodically scans the audit trail
func (app *application) runSecurityMonitoring(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.monitor.DetectSuspiciousActivity(); err != nil {
				log.Printf("Security monitoring error: %v", err)
			}
		}
	}
}

func (app *application) cleanup() {
	if err := app.auditLogger.Close(); err != nil {
		log.Printf("Failed to close audit logger: %v", err)
	}
	if err := app.db.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}
