package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/radityapura/medigate/internal/db"
	"github.com/radityapura/medigate/internal/gateway/config"
	"github.com/radityapura/medigate/internal/gateway/directory"
	"github.com/radityapura/medigate/internal/gateway/host"
	"github.com/radityapura/medigate/internal/gateway/middleware"
	"github.com/radityapura/medigate/internal/gateway/session"
	"github.com/radityapura/medigate/pkg/logger"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Medigate gateway",
	Long:  `Start the gateway that classifies tenant hostnames, rewrites microsite paths, and proxies to the page renderer.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runServer()
	},
}

func runServer() error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	if err := logger.Setup(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	}); err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}

	logger.InfoEvent().
		Str("version", version).
		Str("build_time", buildTime).
		Str("git_commit", gitCommit).
		Str("primary_domain", cfg.Routing.PrimaryDomain).
		Bool("subdomain_routing", cfg.Routing.EnableSubdomainRouting).
		Msg("Starting Medigate gateway")

	if cfg.Routing.PrimaryDomain == "" {
		logger.Warn("No primary domain configured, tenant routing disabled")
	}

	// Connect to the directory database
	database, err := db.Connect(db.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.InfoEvent().
		Str("driver", cfg.Database.Driver).
		Msg("Connected to directory database")

	// Directory lookups, optionally cached
	dir := buildDirectory(database, cfg)
	resolver := directory.NewResolver(dir, cfg.Routing.LookupTimeoutDuration())

	// Downstream page renderer
	rendererURL, err := url.Parse(cfg.Server.RendererURL)
	if err != nil {
		return fmt.Errorf("invalid renderer URL %q: %w", cfg.Server.RendererURL, err)
	}

	renderer := httputil.NewSingleHostReverseProxy(rendererURL)
	renderer.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.ErrorEvent().
			Err(err).
			Str("path", r.URL.Path).
			Msg("Renderer unreachable")
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
	}

	// Session bootstrap endpoint, rate limited per client IP
	bootstrapper := session.NewBootstrapper(
		cfg.Auth.JWTSecret,
		cfg.Routing.PrimaryDomain,
		cfg.Auth.CookieName,
		cfg.Auth.CookieSecure,
	)
	limiter := middleware.NewRateLimiter(rate.Limit(1), 5)

	mux := http.NewServeMux()
	mux.Handle("/session/bootstrap", limiter.Limit(bootstrapper.Handler()))
	mux.Handle("/", renderer)

	rewriter := middleware.NewRewriter(middleware.RewriterConfig{
		Host: host.Options{
			PrimaryDomain:           cfg.Routing.PrimaryDomain,
			SubdomainRoutingEnabled: cfg.Routing.EnableSubdomainRouting,
			AllowLocalSubdomains:    cfg.Routing.AllowLocalSubdomains,
			PlatformSuffixes:        cfg.Routing.PlatformSuffixes,
		},
		Resolver:       resolver,
		BypassPrefixes: cfg.Routing.BypassPathPrefixes,
		AdminPrefix:    cfg.Routing.AdminPathPrefix,
	}, mux)

	gatewayServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      middleware.HTTPLogger(rewriter),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Ops listener: metrics and health
	opsMux := http.NewServeMux()
	opsMux.Handle("/metrics", promhttp.Handler())
	opsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := database.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	opsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.OpsPort),
		Handler: opsMux,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.InfoEvent().
			Int("port", cfg.Server.HTTPPort).
			Str("renderer", cfg.Server.RendererURL).
			Msg("Gateway listening")
		if err := gatewayServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("gateway server: %w", err)
		}
	}()

	go func() {
		logger.InfoEvent().
			Int("port", cfg.Server.OpsPort).
			Msg("Ops listener started")
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("ops server: %w", err)
		}
	}()

	// Wait for shutdown signal or server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoEvent().
			Str("signal", sig.String()).
			Msg("Shutting down")
	case err := <-errCh:
		logger.ErrorEvent().Err(err).Msg("Server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := gatewayServer.Shutdown(shutdownCtx); err != nil {
		logger.WarnEvent().Err(err).Msg("Gateway shutdown incomplete")
	}
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.WarnEvent().Err(err).Msg("Ops shutdown incomplete")
	}

	logger.Info("Goodbye")
	return nil
}

// buildDirectory wires the lookup cache in front of the store when
// configured. A failing Redis never blocks startup: the gateway degrades to
// the in-memory store.
func buildDirectory(database *gorm.DB, cfg *config.Config) directory.Directory {
	var dir directory.Directory = directory.NewGormDirectory(database)

	switch strings.ToLower(cfg.Cache.Driver) {
	case "none", "":
		return dir

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.WarnEvent().
				Err(err).
				Str("addr", cfg.Cache.RedisAddr).
				Msg("Redis unavailable, falling back to in-memory lookup cache")
			return directory.NewCachedDirectory(dir, directory.NewMemoryStore(), cfg.Cache.TTLDuration())
		}

		logger.InfoEvent().
			Str("addr", cfg.Cache.RedisAddr).
			Msg("Directory lookup cache on Redis")
		return directory.NewCachedDirectory(dir, directory.NewRedisStore(client), cfg.Cache.TTLDuration())

	default: // memory
		return directory.NewCachedDirectory(dir, directory.NewMemoryStore(), cfg.Cache.TTLDuration())
	}
}
