package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"career-guide/internal/domain"
	"career-guide/internal/quiz"
)

// Respondent es quien contesta la sesion: una terminal, un formulario o un test.
type Respondent interface {
	PresentQuestion(ctx context.Context, trait domain.Trait, text string) (domain.Rating, error)
	PresentMCQ(ctx context.Context, index, total int, mcq domain.MCQ) (string, error)
}

// Step describe lo que la sesion espera a continuacion.
type Step struct {
	SessionID      string             `json:"session_id"`
	Stage          quiz.Stage         `json:"stage"`
	Question       *quiz.Prompt       `json:"question,omitempty"`
	QuestionNumber int                `json:"question_number,omitempty"`
	QuestionTotal  int                `json:"question_total,omitempty"`
	MCQ            *domain.MCQ        `json:"mcq,omitempty"`
	MCQNumber      int                `json:"mcq_number,omitempty"`
	MCQTotal       int                `json:"mcq_total,omitempty"`
	Result         *domain.QuizResult `json:"result,omitempty"`
}

func (s Step) Done() bool {
	return s.Result != nil
}

// Orchestrator lleva una sesion por sus etapas. Es el unico componente que decide el orden;
// las fallas del modelo degradan la etapa y nunca cortan la sesion.
type Orchestrator struct {
	selector    *quiz.Selector
	generator   *MCQGenerator
	synthesizer *RecommendationSynthesizer
	mcqCount    int
	logger      *zap.Logger
	newID       func() string
}

func NewOrchestrator(selector *quiz.Selector, generator *MCQGenerator, synthesizer *RecommendationSynthesizer, mcqCount int, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mcqCount <= 0 {
		mcqCount = DefaultMCQCount
	}
	return &Orchestrator{
		selector:    selector,
		generator:   generator,
		synthesizer: synthesizer,
		mcqCount:    mcqCount,
		logger:      logger,
		newID:       uuid.NewString,
	}
}

// Advance ejecuta las etapas automaticas hasta que la sesion necesite al respondente o termine.
func (o *Orchestrator) Advance(ctx context.Context, s *quiz.Session) (Step, error) {
	for {
		switch s.Stage {
		case quiz.StageStart, quiz.StageAskingFixed:
			s.Begin()
			if s.Stage != quiz.StageAskingFixed {
				continue
			}
			if _, err := s.Next(o.selector); err != nil {
				return Step{}, fmt.Errorf("select question: %w", err)
			}
			return o.Current(s), nil

		case quiz.StageRefining:
			if s.NeedsMCQs() {
				if err := s.SetMCQs(o.refinementQuestions(ctx, s)); err != nil {
					return Step{}, err
				}
				continue
			}
			return o.Current(s), nil

		case quiz.StageScoring:
			if _, err := s.Score(); err != nil {
				return Step{}, err
			}

		case quiz.StageSynthesizing:
			outcome := o.recommend(ctx, s)
			if _, err := s.Complete(o.newID(), outcome); err != nil {
				return Step{}, err
			}
			o.logger.Info("quiz session completed",
				zap.String("session_id", s.ID),
				zap.String("recommendation_status", string(outcome.Status)),
			)
			return o.Current(s), nil

		case quiz.StageDone:
			return o.Current(s), nil

		default:
			return Step{}, fmt.Errorf("%w: unknown stage %q", quiz.ErrWrongStage, s.Stage)
		}
	}
}

func (o *Orchestrator) refinementQuestions(ctx context.Context, s *quiz.Session) []domain.MCQ {
	if o.generator == nil {
		return nil
	}
	mcqs, err := o.generator.Generate(ctx, s.History, o.mcqCount)
	if err != nil {
		o.logger.Warn("refinement stage skipped", zap.String("session_id", s.ID), zap.Error(err))
		return nil
	}
	if len(mcqs) == 0 {
		o.logger.Warn("refinement stage produced no questions", zap.String("session_id", s.ID))
	}
	return mcqs
}

func (o *Orchestrator) recommend(ctx context.Context, s *quiz.Session) domain.RecommendationOutcome {
	if o.synthesizer == nil {
		return domain.RecommendationOutcome{
			Status:          domain.RecommendationUnavailable,
			Recommendations: []domain.Recommendation{},
			Error:           ErrServiceUnavailable.Error(),
		}
	}
	outcome, err := o.synthesizer.Synthesize(ctx, s.History, s.Normalized)
	switch {
	case err != nil:
		o.logger.Warn("recommendations unavailable", zap.String("session_id", s.ID), zap.Error(err))
	case !outcome.Parsed():
		o.logger.Warn("recommendations unparseable", zap.String("session_id", s.ID))
	}
	return outcome
}

// Current describe el estado de la sesion sin avanzarla.
func (o *Orchestrator) Current(s *quiz.Session) Step {
	step := Step{SessionID: s.ID, Stage: s.Stage}
	switch s.Stage {
	case quiz.StageAskingFixed:
		if s.Pending != nil {
			p := *s.Pending
			step.Question = &p
			step.QuestionNumber = s.Answered + 1
			step.QuestionTotal = s.Quota
		}
	case quiz.StageRefining:
		if mcq, ok := s.CurrentMCQ(); ok {
			step.MCQ = &mcq
			step.MCQNumber = s.MCQCursor + 1
			step.MCQTotal = len(s.MCQs)
		}
	case quiz.StageDone:
		step.Result = s.Result
	}
	return step
}

// Answer registra un rating y avanza.
func (o *Orchestrator) Answer(ctx context.Context, s *quiz.Session, rating domain.Rating) (Step, error) {
	if err := s.Rate(rating); err != nil {
		return Step{}, err
	}
	return o.Advance(ctx, s)
}

// AnswerMCQ registra la letra elegida y avanza.
func (o *Orchestrator) AnswerMCQ(ctx context.Context, s *quiz.Session, choice string) (Step, error) {
	if err := s.Choose(strings.ToUpper(strings.TrimSpace(choice))); err != nil {
		return Step{}, err
	}
	return o.Advance(ctx, s)
}

// Run lleva la sesion completa contra un Respondent. Solo falla por errores del respondente
// o de configuracion; las fallas del modelo quedan marcadas en el resultado.
func (o *Orchestrator) Run(ctx context.Context, s *quiz.Session, r Respondent) (domain.QuizResult, error) {
	step, err := o.Advance(ctx, s)
	for err == nil && !step.Done() {
		switch {
		case step.Question != nil:
			var rating domain.Rating
			rating, err = r.PresentQuestion(ctx, step.Question.Trait, step.Question.Question)
			if err != nil {
				return domain.QuizResult{}, fmt.Errorf("present question: %w", err)
			}
			step, err = o.Answer(ctx, s, rating)

		case step.MCQ != nil:
			var choice string
			choice, err = r.PresentMCQ(ctx, step.MCQNumber, step.MCQTotal, *step.MCQ)
			if err != nil {
				return domain.QuizResult{}, fmt.Errorf("present mcq: %w", err)
			}
			step, err = o.AnswerMCQ(ctx, s, choice)

		default:
			return domain.QuizResult{}, fmt.Errorf("%w: session stalled in %s", quiz.ErrWrongStage, step.Stage)
		}
	}
	if err != nil {
		return domain.QuizResult{}, err
	}
	return *step.Result, nil
}
