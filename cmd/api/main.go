package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"time"

	"career-guide/internal/config"
	"career-guide/internal/db"
	apihttp "career-guide/internal/http"
	"career-guide/internal/llm"
	"career-guide/internal/quiz"
	"career-guide/internal/repository"
	"career-guide/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	bank, err := loadBank(cfg.QuestionBankPath)
	if err != nil {
		logger.Fatal("question bank", zap.Error(err))
	}
	selector := quiz.NewSelector(bank, rand.New(rand.NewSource(time.Now().UnixNano())))

	llmClient, closeLLM := newLLMClient(ctx, cfg, logger)
	defer closeLLM()

	settings := service.LLMSettings{Timeout: cfg.LLMTimeout, Temperature: cfg.LLMTemperature}
	generator := service.NewMCQGenerator(llmClient, settings, logger)
	synthesizer := service.NewRecommendationSynthesizer(llmClient, settings, logger)

	var (
		sessions = service.NewMemorySessionStore(cfg.SessionTTL)
		limiter  = service.NewMemoryRateLimiter(cfg.RateLimitPerMinute)
	)
	redisClient, err := db.NewRedis(ctx, cfg)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory sessions", zap.Error(err))
	} else if redisClient != nil {
		defer redisClient.Close()
		sessions = service.NewRedisSessionStore(redisClient, cfg.SessionTTL)
		limiter = service.NewRedisRateLimiter(redisClient, time.Minute, cfg.RateLimitPerMinute)
	}

	var results repository.ResultRepository
	switch cfg.ResultStore {
	case config.ResultStorePostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		repo := repository.NewPgResultRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatal("ensure schema", zap.Error(err))
		}
		results = repo
	case config.ResultStoreMongo:
		client, database, err := db.NewMongo(ctx, cfg)
		if err != nil {
			logger.Fatal("mongo connect", zap.Error(err))
		}
		defer client.Disconnect(context.Background())
		repo := repository.NewMongoResultRepository(database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Fatal("ensure indexes", zap.Error(err))
		}
		results = repo
	default:
		logger.Warn("result store disabled, quiz results will not be persisted")
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, 24*time.Hour)
	if !jwtSvc.Enabled() {
		logger.Warn("jwt secret not configured")
	}

	quizSvc := service.NewQuizService(selector, generator, synthesizer, sessions, results, service.QuizSettings{
		QuestionCount: cfg.QuizQuestionCount,
		MCQCount:      cfg.QuizMCQCount,
		Refine:        cfg.QuizRefine,
		SessionTTL:    cfg.SessionTTL,
	}, logger)

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Logger:      logger,
		Quiz:        apihttp.NewQuizHandler(logger, quizSvc),
		JWT:         jwtSvc,
		RateLimiter: limiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("result_store", cfg.ResultStore),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

func loadBank(path string) (*quiz.Bank, error) {
	if path == "" {
		return quiz.DefaultBank()
	}
	return quiz.LoadBankFile(path)
}

// newLLMClient arma el cliente de texto segun el proveedor. Sin API key el servicio
// sigue arriba y las rutas que dependen del modelo responden 503.
func newLLMClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.LLMClient, func()) {
	noop := func() {}
	if cfg.LLMAPIKey == "" {
		logger.Warn("llm api key not configured, text completion disabled")
		return llm.NewDisabledClient("LLM_API_KEY not set"), noop
	}

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout, zap.NewStdLog(logger)), noop
	default:
		client, err := llm.NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTemperature)
		if err != nil {
			logger.Warn("gemini client init failed", zap.Error(err))
			return llm.NewDisabledClient(err.Error()), noop
		}
		return client, func() { _ = client.Close() }
	}
}
