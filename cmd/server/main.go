package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/recruiter-chat/internal/ai"
	"github.com/suPer8Hu/recruiter-chat/internal/analytics"
	"github.com/suPer8Hu/recruiter-chat/internal/chat"
	"github.com/suPer8Hu/recruiter-chat/internal/config"
	"github.com/suPer8Hu/recruiter-chat/internal/db"
	"github.com/suPer8Hu/recruiter-chat/internal/history"
	"github.com/suPer8Hu/recruiter-chat/internal/httpapi"
	"github.com/suPer8Hu/recruiter-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/recruiter-chat/internal/knowledge"
	"github.com/suPer8Hu/recruiter-chat/internal/logger"
	"github.com/suPer8Hu/recruiter-chat/internal/store/rabbitmq"
	"github.com/suPer8Hu/recruiter-chat/internal/store/redisstore"
	"github.com/suPer8Hu/recruiter-chat/internal/telemetry"
	"github.com/suPer8Hu/recruiter-chat/internal/token"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		if cfg.AdminJWTSecret() == "" {
			logger.L.Fatalw("JWT_SECRET must be set to a private value in production")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb := db.Connect(cfg.DBDSN)
	if err := db.Migrate(gdb); err != nil {
		logger.L.Fatalw("automigrate failed", "err", err)
	}

	metrics, err := telemetry.New()
	if err != nil {
		logger.L.Fatalw("register metrics failed", "err", err)
	}

	// analytics sink
	store := analytics.NewStore(gdb)
	var events analytics.Recorder = store
	switch cfg.AnalyticsSink {
	case "rabbitmq":
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			logger.L.Fatalw("rabbit connect failed", "err", err)
		}
		defer pub.Close()
		events = pub
	default:
		// the worker owns retention when events go through the queue
		retention := analytics.NewRetention(store, cfg.AnalyticsRetentionDays)
		if err := retention.Start(); err != nil {
			logger.L.Fatalw("start retention job failed", "err", err)
		}
		defer retention.Stop()
	}

	// history cache
	var cache history.Cache
	switch cfg.HistoryBackend {
	case "redis":
		rdb, err := redisstore.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.L.Fatalw("redis connect failed", "err", err)
		}
		defer rdb.Close()
		cache = history.NewRedisCache(rdb, cfg.HistoryTTL)
	default:
		cache = history.NewMemoryCache()
	}

	provider, err := ai.DefaultRegistry(cfg).Get(ctx, cfg.AIProvider, "")
	if err != nil {
		logger.L.Fatalw("init ai provider failed", "provider", cfg.AIProvider, "err", err)
	}

	kb := knowledge.NewService(knowledge.NewRepo(gdb), nil)
	prompt := knowledge.NewPromptBuilder(kb, cfg.CandidateName, cfg.KnowledgeBaseContent, cfg.KnowledgeBaseFile)
	kb.SetPrompt(prompt)

	tokenRepo := token.NewRepo(gdb)
	validator := token.NewValidator(tokenRepo, events, metrics, cfg.CandidateName)
	gateway := chat.NewGateway(provider, prompt, ai.Options{
		MaxTokens:   cfg.CompletionMaxTokens,
		Temperature: cfg.CompletionTemperature,
	}, metrics)
	chatSvc := chat.NewService(chat.NewRepo(gdb), validator, gateway, cache, metrics)

	h := handlers.NewHandler(cfg, chatSvc, token.NewService(tokenRepo, cfg.AppURL), kb, store, events)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(cfg, h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.L.Infow("server starting", "addr", cfg.HTTPAddr, "provider", provider.Name(),
			"history", cfg.HistoryBackend, "analytics", cfg.AnalyticsSink)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Fatalw("listen failed", "err", err)
		}
	}()

	<-ctx.Done()
	logger.L.Infow("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Errorw("server forced to shutdown", "err", err)
	}
	logger.L.Infow("server exited")
}
