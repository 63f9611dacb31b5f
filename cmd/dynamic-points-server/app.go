package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/dewolfe001/dynamic-points/adapters/attrmap"
	"github.com/dewolfe001/dynamic-points/adapters/jsonfile"
	mem "github.com/dewolfe001/dynamic-points/adapters/memory"
	redisAdapter "github.com/dewolfe001/dynamic-points/adapters/redis"
	sqlxAdapter "github.com/dewolfe001/dynamic-points/adapters/sqlx"
	"github.com/dewolfe001/dynamic-points/analytics"
	"github.com/dewolfe001/dynamic-points/api/httpapi"
	"github.com/dewolfe001/dynamic-points/config"
	"github.com/dewolfe001/dynamic-points/core"
	"github.com/dewolfe001/dynamic-points/engine"
	"github.com/dewolfe001/dynamic-points/integrations/webhook"
	"github.com/dewolfe001/dynamic-points/leaderboard"
	"github.com/dewolfe001/dynamic-points/points"
	"github.com/dewolfe001/dynamic-points/realtime"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Hub     *realtime.Hub
	Service *engine.AwardService
	Tracker *leaderboard.Tracker
	Metrics *analytics.RuleMetrics
	Handler http.Handler
	Server  *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Environment == config.EnvProduction {
		if err := cfg.LoadSecretsFromEnv(ctx); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideStorage(ctx context.Context, cfg *config.Config) (engine.MetaStore, error) {
	return setupStorage(ctx, cfg)
}

func provideResolver(cfg *config.Config) (*attrmap.Resolver, error) {
	return setupResolver(cfg)
}

func provideTracker() *leaderboard.Tracker {
	return leaderboard.NewTracker(leaderboard.NewSkipList())
}

func provideMetrics() *analytics.RuleMetrics {
	return analytics.NewRuleMetrics()
}

func provideService(
	cfg *config.Config,
	hub *realtime.Hub,
	storage engine.MetaStore,
	resolver *attrmap.Resolver,
	tracker *leaderboard.Tracker,
	metrics *analytics.RuleMetrics,
) *engine.AwardService {
	svc := points.New(
		points.WithRealtime(hub),
		points.WithMetaStore(storage),
		points.WithResolver(resolver),
		points.WithDispatchMode(engine.DispatchAsync),
	)

	hooks := []analytics.Hook{tracker, metrics}
	if len(cfg.Webhooks) > 0 {
		hooks = append(hooks, webhook.New(cfg.Webhooks))
	}
	bridge := analytics.NewBridge(hooks...)
	subscribeAll(svc, bridge.OnEvent)
	return svc
}

func provideHandler(svc *engine.AwardService, hub *realtime.Hub, tracker *leaderboard.Tracker, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, hub, tracker, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// subscribeAll routes every domain event type to one handler.
func subscribeAll(svc *engine.AwardService, fn func(core.Event)) {
	for _, typ := range []core.EventType{
		core.EventAwardComputed,
		core.EventSettingsSaved,
		core.EventSettingsRejected,
		core.EventSettingsDeleted,
	} {
		svc.Subscribe(typ, func(_ context.Context, e core.Event) { fn(e) })
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(ctx context.Context, cfg *config.Config) (engine.MetaStore, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	case "sql":
		return sqlxAdapter.New(cfg.Storage.SQL)
	case "file":
		return jsonfile.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}

// setupResolver builds the attribute hierarchy from configuration.
func setupResolver(cfg *config.Config) (*attrmap.Resolver, error) {
	resolver := attrmap.New()
	for path, typ := range cfg.Attributes {
		dt := core.DataType(typ)
		switch dt {
		case core.DataTypeInteger, core.DataTypeDecimal, core.DataTypeText, core.DataTypeBool:
		default:
			return nil, fmt.Errorf("attribute %s: unknown data type %q", path, typ)
		}
		resolver.Define(dt, strings.Split(path, ".")...)
	}
	return resolver, nil
}
