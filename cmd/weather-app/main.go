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

	"weather-app/internal/cache"
	"weather-app/internal/config"
	"weather-app/internal/httpapi"
	"weather-app/internal/observability"
	"weather-app/internal/owm"
	"weather-app/internal/realtime"
	"weather-app/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

const serviceName = "weather-app"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel, cfg.LogFormat)

	shutdownOtel, promHandler, tracer, err := observability.Setup(serviceName, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up observability", "error", err)
		os.Exit(1)
	}
	defer shutdownOtel()

	var (
		snapshotCache cache.Cache
		memCache      *cache.Memory
	)
	switch {
	case cfg.CacheTTL <= 0:
	case cfg.RedisAddr != "":
		rdb := setupRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		defer rdb.Close()
		snapshotCache = cache.NewRedis(rdb, cfg.CacheTTL)
	default:
		memCache = cache.New(cfg.CacheTTL)
		snapshotCache = memCache
	}

	owmClient := owm.New(cfg.OpenWeatherAPIKey, owm.Options{
		BaseURL: cfg.OpenWeatherURL,
		Timeout: cfg.HTTPTimeout,
		Limit:   cfg.SuggestionLimit,
		Cache:   snapshotCache,
	})

	hub := realtime.NewHub()
	store := session.NewStore(owmClient, session.Options{
		Debounce:     cfg.Debounce,
		FetchTimeout: cfg.HTTPTimeout,
		OnChange:     httpapi.Publisher(hub),
	}, cfg.SessionIdleTTL)
	srv := httpapi.NewServer(store, hub, cfg.HTTPTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runJanitor(ctx, store, hub, memCache, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(observability.Middleware(tracer, serviceName))
	r.Use(httpapi.CORS(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promHandler)
	srv.RegisterRoutes(r)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Searches wait on the provider, so leave room past HTTPTimeout.
		WriteTimeout: cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("weather-app started", "port", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	slog.Info("shutting down")
	cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogging(level, format string) {
	lvl := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func setupRedisClient(addr, password string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if pong, err := client.Ping(context.Background()).Result(); err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	} else {
		slog.Info("connected to redis", "pong", pong)
	}
	return client
}

// runJanitor evicts idle sessions along with their sockets and sweeps the
// in-process cache. A session with an open socket is never idle.
func runJanitor(ctx context.Context, store *session.Store, hub *realtime.Hub, mem *cache.Memory, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			inUse := func(id string) bool { return hub.Subscribers(id) > 0 }
			for _, id := range store.Evict(inUse) {
				hub.Close(id)
			}
			if mem != nil {
				if n := mem.Sweep(); n > 0 {
					slog.Debug("swept cache", "expired", n)
				}
			}
			observability.ActiveSessions.Set(float64(store.Len()))
		}
	}
}
