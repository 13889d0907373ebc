package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string   `env:"HTTP_PORT" envDefault:"8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5173"`

	ResultStore string `env:"RESULT_STORE" envDefault:"none"`
	DatabaseURL string `env:"DATABASE_URL"`
	MongoURI    string `env:"MONGO_URI"`
	MongoDB     string `env:"MONGO_DB" envDefault:"career_guide"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LLMProvider    string        `env:"LLM_PROVIDER" envDefault:"gemini"`
	LLMAPIKey      string        `env:"LLM_API_KEY"`
	LLMBaseURL     string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel       string        `env:"LLM_MODEL" envDefault:"gemini-2.0-flash"`
	LLMTemperature float32       `env:"LLM_TEMPERATURE" envDefault:"0.4"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	QuestionBankPath  string        `env:"QUESTION_BANK_PATH"`
	QuizQuestionCount int           `env:"QUIZ_QUESTION_COUNT" envDefault:"6"`
	QuizMCQCount      int           `env:"QUIZ_MCQ_COUNT" envDefault:"5"`
	QuizRefine        bool          `env:"QUIZ_REFINE" envDefault:"true"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	JWTSecret          string `env:"JWT_SECRET"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
}

const (
	ResultStoreNone     = "none"
	ResultStorePostgres = "postgres"
	ResultStoreMongo    = "mongo"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar.
func (c *Config) Validate() error {
	c.ResultStore = strings.ToLower(strings.TrimSpace(c.ResultStore))
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))

	switch c.ResultStore {
	case ResultStoreNone:
	case ResultStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when RESULT_STORE=%s", c.ResultStore)
		}
	case ResultStoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when RESULT_STORE=%s", c.ResultStore)
		}
	default:
		return fmt.Errorf("unknown RESULT_STORE %q", c.ResultStore)
	}

	switch c.LLMProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.QuizQuestionCount < 0 {
		return fmt.Errorf("QUIZ_QUESTION_COUNT must be >= 0")
	}
	if c.QuizMCQCount < 1 || c.QuizMCQCount > 10 {
		return fmt.Errorf("QUIZ_MCQ_COUNT must be between 1 and 10")
	}
	return nil
}
