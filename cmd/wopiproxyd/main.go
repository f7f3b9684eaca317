package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "wopiproxy/docs"

	"wopiproxy/config"
	"wopiproxy/internal/callback"
	"wopiproxy/internal/handler"
	"wopiproxy/internal/repository"
	"wopiproxy/internal/security"
	"wopiproxy/internal/service"
	"wopiproxy/internal/storage"
)

// @title WOPI Proxy
// @version 1.0
// @description Multi-tenant WOPI proxy: session lifecycle management, lock arbitration, and storage-backed file serving.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

func main() {
	configPath := os.Getenv("WOPI_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	db, err := config.NewDatabaseConnection(cfg.Database)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer db.Close()

	redisClient, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("connecting to redis: %v", err)
	}
	defer redisClient.Close()

	server, router := config.SetupServer(cfg.Server)

	registryTTL := 60 * time.Second
	if d, parseErr := time.ParseDuration(cfg.Registry.TTL); parseErr == nil && d > 0 {
		registryTTL = d
	}

	tenantRepo := repository.NewTenantRepository(db)
	storageRepo := repository.NewStorageRepository(db)
	tenants := repository.NewCachedTenantRegistry(tenantRepo, redisClient, registryTTL)
	storages := repository.NewCachedStorageRegistry(storageRepo, redisClient, registryTTL)
	sessions := repository.NewSessionRepository(db)
	auditLog := repository.NewAuditRepository(db)

	tokens := security.NewJWTTokenService(cfg.Token)

	dispatcher := callback.NewDispatcher(cfg.Callback)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	tokenTTL := time.Hour
	if d, parseErr := time.ParseDuration(cfg.Token.TTL); parseErr == nil && d > 0 {
		tokenTTL = d
	}

	sessionManager := service.NewSessionManager(
		tenants, storages, sessions, tokens, auditLog, dispatcher,
		tokenTTL, cfg.Proxy.BaseURL, cfg.Pool.BaseURL,
	)

	nodes := storage.NewResolver()

	wopiHandler := handler.NewWOPIHandler(sessionManager, storages, nodes)
	managementHandler := handler.NewManagementHandler(sessionManager, tenants)
	adminHandler := handler.NewAdminHandler(tenants, storages, sessions, cfg.Admin.Token)

	wopiHandler.Mount(router)
	managementHandler.Mount(router)
	adminHandler.Mount(router)
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	go runCleanupLoop(context.Background(), sessionManager)

	runServer(server, cfg.Server)
}

func runCleanupLoop(ctx context.Context, sessions *service.SessionManager) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, lockReleased, err := sessions.Cleanup(ctx, false)
			if err != nil {
				log.Printf("session cleanup failed: %v", err)
				continue
			}
			if expired > 0 {
				log.Printf("cleanup removed %d expired sessions, released %d locks", expired, lockReleased)
			}
		}
	}
}

func runServer(server *http.Server, cfg config.ServerConfig) {
	go func() {
		log.Printf("wopiproxyd listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
