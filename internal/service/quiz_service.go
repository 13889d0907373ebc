package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"career-guide/internal/domain"
	"career-guide/internal/quiz"
	"career-guide/internal/repository"
)

var (
	ErrResultNotFound = errors.New("quiz result not found")
	ErrInvalidInput   = errors.New("invalid input")
)

// QuizSettings son los parametros de una sesion interactiva.
type QuizSettings struct {
	QuestionCount int
	MCQCount      int
	Refine        bool
	SessionTTL    time.Duration
}

// ScoreReport agrupa los puntajes calculados para un historial.
type ScoreReport struct {
	RawScores        domain.TraitScores  `json:"raw_scores"`
	AnsweredCounts   domain.TraitCounts  `json:"answered_counts"`
	NormalizedScores domain.TraitScores  `json:"normalized_scores"`
	TopTraits        []domain.TraitScore `json:"top_traits"`
}

// QuizService es la fachada que usan los handlers.
type QuizService struct {
	selector     *quiz.Selector
	generator    *MCQGenerator
	synthesizer  *RecommendationSynthesizer
	orchestrator *Orchestrator
	sessions     SessionStore
	results      repository.ResultRepository
	settings     QuizSettings
	logger       *zap.Logger
	now          func() time.Time

	locks sync.Map
}

// sessionLock serializa los updates de una sesion; lastUsed permite barrer locks de sesiones
// abandonadas que ya expiraron en el store.
type sessionLock struct {
	mu       sync.Mutex
	lastUsed atomic.Int64
}

func NewQuizService(
	selector *quiz.Selector,
	generator *MCQGenerator,
	synthesizer *RecommendationSynthesizer,
	sessions SessionStore,
	results repository.ResultRepository,
	settings QuizSettings,
	logger *zap.Logger,
) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessions == nil {
		sessions = NewMemorySessionStore(time.Hour)
	}
	if settings.MCQCount <= 0 {
		settings.MCQCount = DefaultMCQCount
	}
	if settings.SessionTTL <= 0 {
		settings.SessionTTL = time.Hour
	}
	return &QuizService{
		selector:     selector,
		generator:    generator,
		synthesizer:  synthesizer,
		orchestrator: NewOrchestrator(selector, generator, synthesizer, settings.MCQCount, logger),
		sessions:     sessions,
		results:      results,
		settings:     settings,
		logger:       logger,
		now:          time.Now,
	}
}

// Orchestrator expone el orquestador para respondentes locales (CLI).
func (s *QuizService) Orchestrator() *Orchestrator {
	return s.orchestrator
}

// Questions devuelve una copia del banco completo.
func (s *QuizService) Questions() map[domain.Trait][]string {
	return s.selector.Bank().All()
}

func (s *QuizService) NextQuestion(asked quiz.AskedSet) (quiz.Prompt, error) {
	if asked == nil {
		asked = quiz.NewAskedSet()
	}
	return s.selector.Select(asked)
}

// CalculateScores puntua las respuestas RIASEC; las entradas MCQ no suman.
func (s *QuizService) CalculateScores(entries []domain.QAEntry) (ScoreReport, error) {
	sc, err := quiz.ScoreEntries(entries)
	if err != nil {
		return ScoreReport{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	normalized := sc.Normalized()
	return ScoreReport{
		RawScores:        sc.Raw,
		AnsweredCounts:   sc.Counts,
		NormalizedScores: normalized,
		TopTraits:        quiz.TopTraits(normalized, quiz.TopTraitCount),
	}, nil
}

func (s *QuizService) GenerateMCQs(ctx context.Context, history []domain.QAEntry, n int) ([]domain.MCQ, error) {
	if s.generator == nil {
		return nil, ErrServiceUnavailable
	}
	return s.generator.Generate(ctx, history, n)
}

// Recommend sintetiza recomendaciones. Los traits que faltan en scores (o todos, si viene vacio)
// se completan con los puntajes calculados desde el historial.
func (s *QuizService) Recommend(ctx context.Context, history []domain.QAEntry, scores domain.TraitScores) (domain.RecommendationOutcome, domain.TraitScores, error) {
	if len(scores) < len(domain.AllTraits) {
		report, err := s.CalculateScores(history)
		if err != nil {
			return domain.RecommendationOutcome{}, nil, err
		}
		merged := make(domain.TraitScores, len(domain.AllTraits))
		for _, t := range domain.AllTraits {
			if v, ok := scores[t]; ok {
				merged[t] = v
				continue
			}
			merged[t] = report.NormalizedScores[t]
		}
		scores = merged
	}
	if s.synthesizer == nil {
		return domain.RecommendationOutcome{}, scores, ErrServiceUnavailable
	}
	outcome, err := s.synthesizer.Synthesize(ctx, history, scores)
	return outcome, scores, err
}

// Submit puntua un quiz completo enviado de una vez, pide recomendaciones y guarda el resultado.
// Una falla del modelo queda marcada en el resultado y no corta el submit.
func (s *QuizService) Submit(ctx context.Context, userID string, answers, mcqAnswers []domain.QAEntry) (domain.QuizResult, error) {
	report, err := s.CalculateScores(answers)
	if err != nil {
		return domain.QuizResult{}, err
	}

	history := make([]domain.QAEntry, 0, len(answers)+len(mcqAnswers))
	history = append(history, answers...)
	history = append(history, mcqAnswers...)

	var outcome domain.RecommendationOutcome
	if s.synthesizer == nil {
		outcome = domain.RecommendationOutcome{
			Status:          domain.RecommendationUnavailable,
			Recommendations: []domain.Recommendation{},
			Error:           ErrServiceUnavailable.Error(),
		}
	} else {
		outcome, err = s.synthesizer.Synthesize(ctx, history, report.NormalizedScores)
		if err != nil {
			s.logger.Warn("recommendations unavailable on submit", zap.Error(err))
		}
	}

	result := domain.QuizResult{
		ID:               uuid.NewString(),
		UserID:           strings.TrimSpace(userID),
		RawScores:        report.RawScores,
		AnsweredCounts:   report.AnsweredCounts,
		NormalizedScores: report.NormalizedScores,
		TopTraits:        report.TopTraits,
		Recommendation:   outcome,
		History:          history,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.persist(ctx, result); err != nil {
		return domain.QuizResult{}, err
	}
	return result, nil
}

func (s *QuizService) persist(ctx context.Context, result domain.QuizResult) error {
	if s.results == nil {
		return nil
	}
	if err := s.results.Create(ctx, result); err != nil {
		return fmt.Errorf("persist quiz result: %w", err)
	}
	s.logger.Info("quiz result stored", zap.String("result_id", result.ID), zap.String("user_id", result.UserID))
	return nil
}

// StartSession crea una sesion interactiva y devuelve la primera pregunta.
func (s *QuizService) StartSession(ctx context.Context, userID string, refine *bool) (Step, error) {
	refineRound := s.settings.Refine
	if refine != nil {
		refineRound = *refine
	}
	s.sweepLocks()

	session := quiz.NewSession(uuid.NewString(), s.settings.QuestionCount, refineRound)
	session.UserID = strings.TrimSpace(userID)

	step, err := s.orchestrator.Advance(ctx, session)
	if err != nil {
		return Step{}, err
	}
	if err := s.afterStep(ctx, session, step, false); err != nil {
		return Step{}, err
	}
	s.logger.Info("quiz session started", zap.String("session_id", session.ID), zap.Bool("refine", refineRound))
	return step, nil
}

func (s *QuizService) AnswerSession(ctx context.Context, id string, rating domain.Rating) (Step, error) {
	return s.updateSession(ctx, id, func(session *quiz.Session) (Step, error) {
		return s.orchestrator.Answer(ctx, session, rating)
	})
}

func (s *QuizService) AnswerSessionMCQ(ctx context.Context, id, choice string) (Step, error) {
	return s.updateSession(ctx, id, func(session *quiz.Session) (Step, error) {
		return s.orchestrator.AnswerMCQ(ctx, session, choice)
	})
}

// GetSession describe el estado actual sin avanzar la sesion.
func (s *QuizService) GetSession(ctx context.Context, id string) (Step, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return Step{}, err
	}
	return s.orchestrator.Current(session), nil
}

// updateSession serializa las operaciones sobre una misma sesion dentro del proceso.
func (s *QuizService) updateSession(ctx context.Context, id string, fn func(*quiz.Session) (Step, error)) (Step, error) {
	v, _ := s.locks.LoadOrStore(id, &sessionLock{})
	lock := v.(*sessionLock)
	lock.mu.Lock()
	defer lock.mu.Unlock()
	lock.lastUsed.Store(s.now().UnixNano())

	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			s.locks.Delete(id)
		}
		return Step{}, err
	}
	wasDone := session.Stage == quiz.StageDone

	step, err := fn(session)
	if err != nil {
		return Step{}, err
	}
	if err := s.afterStep(ctx, session, step, wasDone); err != nil {
		return Step{}, err
	}
	if step.Done() {
		s.locks.Delete(id)
	}
	return step, nil
}

// sweepLocks descarta locks sin uso por mas de un TTL de sesion; un lock tomado se deja.
func (s *QuizService) sweepLocks() {
	cutoff := s.now().Add(-s.settings.SessionTTL).UnixNano()
	s.locks.Range(func(key, value any) bool {
		lock := value.(*sessionLock)
		if lock.lastUsed.Load() < cutoff && lock.mu.TryLock() {
			s.locks.Delete(key)
			lock.mu.Unlock()
		}
		return true
	})
}

func (s *QuizService) afterStep(ctx context.Context, session *quiz.Session, step Step, wasDone bool) error {
	if step.Done() && !wasDone {
		if err := s.persist(ctx, *step.Result); err != nil {
			return err
		}
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *QuizService) GetResult(ctx context.Context, id string) (domain.QuizResult, error) {
	if s.results == nil {
		return domain.QuizResult{}, ErrResultNotFound
	}
	result, err := s.results.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.QuizResult{}, ErrResultNotFound
	}
	return result, err
}

func (s *QuizService) ListResults(ctx context.Context, userID string, limit int) ([]domain.QuizResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}
	if s.results == nil {
		return []domain.QuizResult{}, nil
	}
	return s.results.ListByUser(ctx, userID, limit)
}
