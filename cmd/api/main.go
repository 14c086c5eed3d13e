package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ticket-checkout/internal/checkout"
	"github.com/noah-isme/ticket-checkout/internal/config"
	"github.com/noah-isme/ticket-checkout/internal/fee"
	"github.com/noah-isme/ticket-checkout/internal/health"
	"github.com/noah-isme/ticket-checkout/internal/obs"
	"github.com/noah-isme/ticket-checkout/internal/pricing"
	"github.com/noah-isme/ticket-checkout/internal/ratelimit"
	"github.com/noah-isme/ticket-checkout/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	tracingEnabled := cfg.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "checkout-pricing",
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	calc, err := fee.NewCalculator(cfg.Fees)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise fee calculator")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse redis url")
		}
		redisClient = redis.NewClient(redisOpts)
		if tracingEnabled {
			if err := redisotel.InstrumentTracing(redisClient); err != nil {
				logger.Error().Err(err).Msg("instrument redis tracing")
			}
		}
		if cfg.MetricsEnabled {
			if err := redisotel.InstrumentMetrics(redisClient); err != nil {
				logger.Error().Err(err).Msg("instrument redis metrics")
			}
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	r := newRouter(routerDeps{
		cfg:            cfg,
		logger:         logger,
		fees:           calc,
		redis:          redisClient,
		tracingEnabled: tracingEnabled,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Str("currency", cfg.CurrencyCode).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

type routerDeps struct {
	cfg            *config.Config
	logger         zerolog.Logger
	fees           *fee.Calculator
	redis          *redis.Client
	tracingEnabled bool
}

func newRouter(d routerDeps) http.Handler {
	cfg := d.cfg

	var (
		httpMetrics  *obs.HTTPMetrics
		quoteMetrics *obs.QuoteMetrics
	)
	if cfg.MetricsEnabled {
		buckets := obs.ParseBuckets(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, buckets, nil)
		quoteMetrics = obs.MustRegisterQuoteMetrics(cfg.MetricsNamespace, nil)
	}

	svc := &checkout.Service{
		Engine:   pricing.NewEngine(d.fees),
		Currency: cfg.CurrencyCode,
		Logger:   d.logger,
		Metrics:  quoteMetrics,
		Now:      time.Now,
	}
	checkoutHandler := checkout.NewHandler(svc)

	var limiter interface {
		ratelimit.Limiter
		health.Checker
	}
	if d.redis != nil {
		limiter = ratelimit.NewFailover(
			ratelimit.RedisLimiter{Client: d.redis, Prefix: "rl:quote:"},
			ratelimit.NewMemoryLimiter("rl:quote:"),
			3, 30*time.Second, d.logger,
		)
	} else {
		limiter = ratelimit.NewMemoryLimiter("rl:quote:")
	}
	quoteLimit := ratelimit.Handler{
		Limiter: limiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP(""),
			Window: time.Minute,
			Max:    cfg.QuoteRatePerMinute,
		},
		OnError: func(err error) {
			d.logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.tracingEnabled {
		r.Use(obs.Tracing)
	}
	r.Use(httpMetrics.Middleware)
	r.Use(obs.RequestLogger{Logger: d.logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	headers := security.Headers{Enable: true}
	if cfg.AppEnv == "production" {
		headers.HSTS = 365 * 24 * time.Hour
	}
	r.Use(headers.Middleware)

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checks: map[string]health.Checker{
			"fees": health.CheckFunc(func(context.Context) error {
				return d.fees.Schedule().Validate()
			}),
			"ratelimit": limiter,
		},
		Timeout: 300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1/checkout", func(c chi.Router) {
		c.Use(security.Headers{Enable: true, NoStore: true}.Middleware)
		c.Get("/fee", checkoutHandler.Fee)
		c.Group(func(g chi.Router) {
			g.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
			g.Use(quoteLimit.Middleware)
			g.Post("/quote", checkoutHandler.Quote)
			g.Post("/preview", checkoutHandler.Preview)
		})
	})
	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
