// Package storyarcservice boots the biography service: storage, AI gateway,
// job workers, HTTP surface, and health checking.
package storyarcservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/storyarc/storyarc/internal/api"
	"github.com/storyarc/storyarc/internal/api/recovery"
	"github.com/storyarc/storyarc/internal/config"
	"github.com/storyarc/storyarc/internal/enrich"
	"github.com/storyarc/storyarc/internal/eventstore"
	"github.com/storyarc/storyarc/internal/factory"
	"github.com/storyarc/storyarc/internal/gateway"
	"github.com/storyarc/storyarc/internal/health"
	"github.com/storyarc/storyarc/internal/jobqueue"
	"github.com/storyarc/storyarc/internal/llm"
	"github.com/storyarc/storyarc/internal/logger"
	"github.com/storyarc/storyarc/internal/narrative"
	"github.com/storyarc/storyarc/internal/pipeline"
	"github.com/storyarc/storyarc/internal/segment"
	"github.com/storyarc/storyarc/internal/services"
	"github.com/storyarc/storyarc/internal/timeline"
)

// Run starts the biography service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("storyarc")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("llm_base_url", cfg.LLMBaseURL).
		Str("llm_model", cfg.LLMModel).
		Int("worker_concurrency", cfg.WorkerConcurrency).
		Msg("Biography service starting")

	ctx, stop := newServerContext()
	defer stop()

	st, provider, gw, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	queue := buildQueue(cfg, st, gw, log)
	defer queue.Stop()

	router := buildRouter(st, queue, log)

	svcHealth := startHealthCheckers(ctx, cfg, log, st, provider)

	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs the store, AI backend and gateway, enforcing
// fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (eventstore.Store, llm.Provider, *gateway.Gateway, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Event store unavailable")
		return nil, nil, nil, err
	}

	provider := factory.NewProvider(ctx, cfg, log)

	cache, err := factory.NewCache(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("AI cache unavailable")
		return nil, nil, nil, err
	}

	gw := gateway.New(provider, cache, gateway.Config{
		Model:       cfg.LLMModel,
		EmbedModel:  cfg.EmbedModel,
		Temperature: cfg.LLMTemperature,
		CacheTTL:    cfg.CacheTTL,
		BatchSize:   cfg.BatchSize,
		BatchDelay:  cfg.BatchDelay,
	}, log)

	return st, provider, gw, nil
}

// buildQueue assembles the generation pipeline and its worker pool.
func buildQueue(cfg *config.Config, st eventstore.Store, gw *gateway.Gateway, log zerolog.Logger) *jobqueue.Queue {
	constructor := timeline.NewConstructor(st.Events(), log)
	categorizer := enrich.NewCategorizer(gw, log)
	sentiment := enrich.NewSentimentAnalyzer(gw, log)
	narrator := narrative.NewGenerator(gw, log)
	segmenter := segment.NewEngine(narrator, log)

	pipe := pipeline.New(st, constructor, categorizer, sentiment, segmenter, narrator, log)

	return jobqueue.New(jobqueue.Config{
		Workers:     cfg.WorkerConcurrency,
		QueueSize:   cfg.JobQueueSize,
		MaxAttempts: cfg.JobMaxAttempts,
		BaseBackoff: cfg.JobBaseBackoff,
	}, pipe, log)
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(st eventstore.Store, queue *jobqueue.Queue, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware(log))

	bioSvc := services.NewBiographyService(st, queue)
	bio := api.NewBiographyHandler(bioSvc)
	root.HandleFunc("/api/biographies", bio.SubmitBiography).Methods("POST")
	root.HandleFunc("/api/jobs/{jobId}", bio.GetJob).Methods("GET")
	root.HandleFunc("/api/users/{userId}/biographies", bio.ListBiographies).Methods("GET")
	root.HandleFunc("/api/users/{userId}/biographies/{biographyId}", bio.GetBiography).Methods("GET")

	moodSvc := services.NewMoodService(st)
	mood := api.NewMoodHandler(moodSvc)
	root.HandleFunc("/api/users/{userId}/mood", mood.GetMoodTimeline).Methods("GET")

	healthHandler := api.NewHealthHandler()
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	root.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return root
}

// startHealthCheckers starts component checkers and the service-level
// aggregator, then binds the health endpoint to it.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st eventstore.Store, provider llm.Provider) *health.ServiceHealthChecker {
	var checkers []health.HealthChecker
	probeTimeout := 2 * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := eventstore.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)
	checkers = append(checkers, storeChecker)

	providerChecker := llm.NewProviderHealthChecker(provider, cfg.EmbedModel, log, probeTimeout)
	go providerChecker.Start(ctx, interval)
	checkers = append(checkers, providerChecker)

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in
// seconds, interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup
// window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Health checkers start unhealthy and need time for their first probe.
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a context cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
