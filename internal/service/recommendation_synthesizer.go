package service

import (
	"context"

	"go.uber.org/zap"

	"career-guide/internal/domain"
	"career-guide/internal/llm"
)

// RecommendationSynthesizer pide al modelo 2-3 carreras a partir del historial y los puntajes.
type RecommendationSynthesizer struct {
	llmClient llm.LLMClient
	settings  LLMSettings
	logger    *zap.Logger
}

func NewRecommendationSynthesizer(llmClient llm.LLMClient, settings LLMSettings, logger *zap.Logger) *RecommendationSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationSynthesizer{
		llmClient: llmClient,
		settings:  settings,
		logger:    logger,
	}
}

type recommendationPayload struct {
	Recommendations *[]domain.Recommendation `json:"recommendations"`
}

func (p recommendationPayload) present() bool {
	return p.Recommendations != nil
}

// Synthesize always returns a usable outcome. A service failure yields a RecommendationUnavailable
// outcome together with an error wrapping ErrServiceUnavailable; an unparseable reply yields
// RecommendationUnparseable with the raw text and a nil error.
func (s *RecommendationSynthesizer) Synthesize(ctx context.Context, history []domain.QAEntry, scores domain.TraitScores) (domain.RecommendationOutcome, error) {
	raw, err := complete(ctx, s.llmClient, s.settings, buildRecommendationPrompt(history, scores))
	if err != nil {
		return domain.RecommendationOutcome{
			Status:          domain.RecommendationUnavailable,
			Recommendations: []domain.Recommendation{},
			Error:           err.Error(),
		}, err
	}

	decoded := DecodeStructured[recommendationPayload](raw)
	if !decoded.OK() {
		s.logger.Warn("could not parse recommendation response", zap.String("raw", truncate(raw, 500)))
		return domain.RecommendationOutcome{
			Status:          domain.RecommendationUnparseable,
			Recommendations: []domain.Recommendation{},
			RawResponse:     raw,
		}, nil
	}

	recs := *decoded.Value.Recommendations
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return domain.RecommendationOutcome{
		Status:          domain.RecommendationParsed,
		Recommendations: recs,
		RawResponse:     raw,
	}, nil
}
