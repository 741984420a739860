// Package main is the entry point for the lead engine API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lumoscale/lead-engine/internal/channel"
	"github.com/lumoscale/lead-engine/internal/config"
	"github.com/lumoscale/lead-engine/internal/events"
	"github.com/lumoscale/lead-engine/internal/followup"
	"github.com/lumoscale/lead-engine/internal/handler"
	"github.com/lumoscale/lead-engine/internal/llm"
	"github.com/lumoscale/lead-engine/internal/middleware"
	"github.com/lumoscale/lead-engine/internal/pipeline"
	"github.com/lumoscale/lead-engine/internal/session"
	"github.com/lumoscale/lead-engine/internal/store"
	"github.com/lumoscale/lead-engine/internal/tenant"
	"github.com/lumoscale/lead-engine/internal/voice"
	"github.com/lumoscale/lead-engine/pkg/logger"
	"github.com/lumoscale/lead-engine/pkg/tracing"
)

func main() {
	// Local development only; the file is absent in deployed environments.
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting lead engine")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "lead-engine", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Durable store
	redisStore, err := store.NewRedisStore(cfg.RedisURL, log)
	if err != nil {
		log.Error("failed to connect to redis", zap.Error(err))
		os.Exit(1)
	}
	defer redisStore.Close()

	tenants := tenant.NewRedisProvider(redisStore.Client(), log)
	sessions := session.NewMemory()

	// Event stream; the engine runs without it.
	var publisher events.Publisher = events.NopPublisher{}
	var eventsClient *events.Client
	if cfg.NATSURL != "" {
		eventsClient, err = events.Connect(ctx, events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("event stream unavailable, continuing without it", zap.Error(err))
		} else {
			defer eventsClient.Close()
			streamPublisher := events.NewStreamPublisher(eventsClient)
			if err := streamPublisher.EnsureStream(ctx); err != nil {
				log.Warn("event stream setup failed, continuing without it", zap.Error(err))
			} else {
				publisher = streamPublisher
			}
		}
	}

	// Reply generator
	provider := llm.Provider(cfg.DefaultLLM)
	apiKey := cfg.OpenAIAPIKey
	if provider == llm.ProviderAnthropic {
		apiKey = cfg.AnthropicAPIKey
	}
	llmClient, err := llm.NewClient(provider, apiKey)
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}

	// Outbound channels
	graph := channel.NewGraphMessenger(cfg.ChannelBaseURL, cfg.ChannelToken, log)
	messengerFor := func(tc *tenant.Config) channel.Messenger {
		if tc != nil && tc.AccessToken != "" {
			return graph.WithToken(tc.AccessToken)
		}
		return graph
	}
	twilio := channel.NewTwilioChannel(cfg.SMSBaseURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFromNumber, cfg.CallTriggerURL, log)

	// Turn pipeline
	contextStage := pipeline.NewContextStage(redisStore, log)
	replyStage := pipeline.NewReplyStage(llmClient, sessions, log)
	actionStage := pipeline.NewActionStage(redisStore, pipeline.MessengerFunc(messengerFor), true, log)
	summarizer := pipeline.NewSummarizer(redisStore, llmClient, true, log)
	turnPipeline := pipeline.New(redisStore, tenants, contextStage, replyStage, actionStage, summarizer, publisher, log)

	// Followup loop
	policy := followup.Policy{
		FirstAfter:  cfg.FirstFollowupAfter,
		SecondAfter: cfg.SecondFollowupAfter,
		Max:         cfg.MaxFollowups,
	}
	followupScheduler := followup.NewScheduler(
		followup.NewScanner(redisStore, policy, log),
		followup.NewGenerator(llmClient, tenants, log),
		followup.NewDispatcher(redisStore, tenants, followup.MessengerFunc(messengerFor), publisher, log),
		tenants,
		cfg.FollowupCheckInterval,
		log,
	)

	// Voice followup loop
	voiceQueue := voice.NewRedisQueue(redisStore.Client(), log)
	voiceScheduler := voice.NewScheduler(voiceQueue, voice.Tiers{
		WarmDelay: cfg.VoiceDelayWarm,
		ColdDelay: cfg.VoiceDelayCold,
	}, log)
	voicePoller := voice.NewPoller(voiceQueue, twilio, cfg.BookingLink, cfg.VoicePollInterval, log)

	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		followupScheduler.Run(ctx)
	}()
	go func() {
		defer loops.Done()
		voicePoller.Run(ctx)
	}()

	// Handlers
	healthHandler := handler.NewHealthHandler(redisStore.Client(), eventsClient)
	webhookHandler := handler.NewWebhookHandler(turnPipeline, redisStore, tenants, pipeline.MessengerFunc(messengerFor), log)
	leadHandler := handler.NewLeadHandler(redisStore, log)
	voiceHandler := handler.NewVoiceHandler(voiceScheduler, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/webhook", func(r chi.Router) {
			r.Post("/message", webhookHandler.Message)
			r.Post("/booking", webhookHandler.Booking)
		})

		r.Get("/conversations", leadHandler.ListConversations)

		r.Route("/leads/{customerID}", func(r chi.Router) {
			r.Get("/", leadHandler.Get)
			r.With(middleware.RequireScope("leads:write")).Post("/block", leadHandler.Block)
			r.With(middleware.RequireScope("leads:write")).Post("/unblock", leadHandler.Unblock)
		})

		r.Post("/voice/qualify", voiceHandler.Qualify)
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// Background loops observe the same cancellation; wait for them to finish
	// their current sweep before exit.
	loops.Wait()
	log.Info("stopped")
}
