package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"career-guide/internal/domain"
	"career-guide/internal/llm"
)

// ErrServiceUnavailable se devuelve cuando el servicio de texto falla o no esta configurado.
var ErrServiceUnavailable = errors.New("text completion service unavailable")

// DefaultMCQCount es la cantidad de preguntas de refinamiento por defecto.
const DefaultMCQCount = 5

// MaxMCQCount acota lo que se le pide al modelo.
const MaxMCQCount = 10

// LLMSettings agrupa los parametros de cada llamada al modelo.
type LLMSettings struct {
	Timeout     time.Duration
	Temperature float32
}

func (s LLMSettings) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

func (s LLMSettings) options() []llm.Option {
	return []llm.Option{llm.WithTemperature(s.Temperature)}
}

// complete hace una sola llamada al modelo, sin reintentos.
func complete(ctx context.Context, client llm.LLMClient, settings LLMSettings, prompt string) (string, error) {
	if client == nil {
		return "", fmt.Errorf("%w: %w", ErrServiceUnavailable, llm.ErrNotConfigured)
	}
	callCtx, cancel := settings.withTimeout(ctx)
	defer cancel()

	text, err := client.Generate(callCtx, prompt, settings.options()...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return text, nil
}

// MCQGenerator pide al modelo preguntas de opcion multiple condicionadas al historial.
type MCQGenerator struct {
	llmClient llm.LLMClient
	settings  LLMSettings
	logger    *zap.Logger
}

func NewMCQGenerator(llmClient llm.LLMClient, settings LLMSettings, logger *zap.Logger) *MCQGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MCQGenerator{
		llmClient: llmClient,
		settings:  settings,
		logger:    logger,
	}
}

type mcqPayload struct {
	Questions *[]domain.MCQ `json:"questions"`
}

func (p mcqPayload) present() bool {
	return p.Questions != nil
}

// Generate devuelve hasta n MCQs. Una respuesta que no se puede parsear produce una lista
// vacia sin error; solo una falla del servicio devuelve ErrServiceUnavailable.
func (g *MCQGenerator) Generate(ctx context.Context, history []domain.QAEntry, n int) ([]domain.MCQ, error) {
	if n <= 0 {
		n = DefaultMCQCount
	}
	if n > MaxMCQCount {
		n = MaxMCQCount
	}

	raw, err := complete(ctx, g.llmClient, g.settings, buildMCQPrompt(history, n))
	if err != nil {
		return nil, err
	}

	decoded := DecodeStructured[mcqPayload](raw)
	if !decoded.OK() {
		g.logger.Warn("could not parse mcq response", zap.String("raw", truncate(raw, 500)))
		return []domain.MCQ{}, nil
	}

	items := *decoded.Value.Questions
	mcqs := make([]domain.MCQ, 0, len(items))
	for _, q := range items {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" || !q.Options.Complete() {
			continue
		}
		mcqs = append(mcqs, q)
		if len(mcqs) == n {
			break
		}
	}
	if dropped := len(items) - len(mcqs); dropped > 0 {
		g.logger.Debug("discarded mcq items", zap.Int("dropped", dropped))
	}
	return mcqs, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
