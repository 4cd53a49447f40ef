package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kingxl111/search-engine/internal/cache"
	"github.com/kingxl111/search-engine/internal/handler"
	"github.com/kingxl111/search-engine/internal/index"
	"github.com/kingxl111/search-engine/internal/search"
	"github.com/kingxl111/search-engine/internal/tokenizer"
	"github.com/kingxl111/search-engine/pkg/config"
	"github.com/kingxl111/search-engine/pkg/health"
	"github.com/kingxl111/search-engine/pkg/logger"
	"github.com/kingxl111/search-engine/pkg/metrics"
	"github.com/kingxl111/search-engine/pkg/middleware"
	pkgredis "github.com/kingxl111/search-engine/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "index", cfg.Index.Path)

	m := metrics.New()

	ix, err := index.LoadFromFile(cfg.Index.Path)
	if err != nil {
		slog.Error("failed to load index", "path", cfg.Index.Path, "error", err)
		os.Exit(1)
	}
	if cfg.Index.ValidateAfter {
		if err := ix.Validate(); err != nil {
			slog.Error("index failed validation", "error", err)
			os.Exit(1)
		}
	}
	stats := ix.Stats()
	slog.Info("index loaded",
		"documents", stats.DocumentCount,
		"terms", stats.TermCount,
		"postings", stats.TotalPostings,
	)

	tok, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		slog.Error("failed to create tokenizer", "error", err)
		os.Exit(1)
	}

	engine := search.NewEngine(ix, tok, cfg.Search, search.WithMetrics(m))
	engine.ReplaceIndex(ix) // publishes index gauges

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Search.CacheEnabled {
		redisClient, err = pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if engine.Stats().Index.DocumentCount > 0 {
			return health.Up(fmt.Sprintf("%d documents", engine.Stats().Index.DocumentCount))
		}
		return health.Down("index empty")
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.Up("")
	})

	h := handler.New(engine, queryCache)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Metrics(m)(chain)
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.RequestID(chain)

	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
