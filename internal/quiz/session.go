package quiz

import (
	"errors"
	"fmt"
	"time"

	"career-guide/internal/domain"
)

// Stage es el estado de una sesion.
type Stage string

const (
	StageStart        Stage = "start"
	StageAskingFixed  Stage = "asking_fixed"
	StageRefining     Stage = "refining"
	StageScoring      Stage = "scoring"
	StageSynthesizing Stage = "synthesizing"
	StageDone         Stage = "done"
)

// TopTraitCount es la cantidad de traits que expone un resultado.
const TopTraitCount = 3

var (
	ErrWrongStage        = errors.New("operation not allowed in current stage")
	ErrNoPendingQuestion = errors.New("no pending question")
)

// Session holds all per-respondent state: asked set, scorecard, history and refinement
// questions. It is single-writer and serializable so it can be kept in a session store.
type Session struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id,omitempty"`
	Stage     Stage            `json:"stage"`
	Quota     int              `json:"quota"`
	Refine    bool             `json:"refine"`
	Answered  int              `json:"answered"`
	Asked     AskedSet         `json:"asked"`
	Scores    *Scorecard       `json:"scores"`
	History   []domain.QAEntry `json:"qa_history"`
	Pending   *Prompt          `json:"pending,omitempty"`
	MCQs      []domain.MCQ     `json:"mcqs,omitempty"`
	MCQLoaded bool             `json:"mcq_loaded"`
	MCQCursor int              `json:"mcq_cursor"`

	Normalized domain.TraitScores `json:"normalized_scores,omitempty"`
	Result     *domain.QuizResult `json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(id string, quota int, refine bool) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Stage:     StageStart,
		Quota:     quota,
		Refine:    refine,
		Asked:     NewAskedSet(),
		Scores:    NewScorecard(),
		History:   []domain.QAEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) stageError(op string) error {
	return fmt.Errorf("%w: %s during %s", ErrWrongStage, op, s.Stage)
}

// Begin sale de StageStart. Con cuota cero pasa directo a refinamiento o scoring.
func (s *Session) Begin() {
	if s.Stage != StageStart {
		return
	}
	s.Stage = StageAskingFixed
	if s.Answered >= s.Quota {
		s.finishFixed()
	}
	s.touch()
}

// Next devuelve la pregunta pendiente o elige una nueva.
func (s *Session) Next(sel *Selector) (Prompt, error) {
	s.Begin()
	if s.Stage != StageAskingFixed {
		return Prompt{}, s.stageError("next question")
	}
	if s.Pending != nil {
		return *s.Pending, nil
	}
	p, err := sel.Select(s.Asked)
	if err != nil {
		return Prompt{}, err
	}
	s.Pending = &p
	s.touch()
	return p, nil
}

// Rate registra la respuesta a la pregunta pendiente.
func (s *Session) Rate(rating domain.Rating) error {
	if s.Stage != StageAskingFixed {
		return s.stageError("rate")
	}
	if s.Pending == nil {
		return ErrNoPendingQuestion
	}
	p := *s.Pending
	if err := s.Scores.Record(p.Trait, rating); err != nil {
		return err
	}
	s.Asked.Add(p.Trait, p.Question)
	s.History = append(s.History, domain.QAEntry{Trait: p.Trait, Question: p.Question, Rating: rating})
	s.Pending = nil
	s.Answered++
	if s.Answered >= s.Quota {
		s.finishFixed()
	}
	s.touch()
	return nil
}

func (s *Session) finishFixed() {
	if s.Refine {
		s.Stage = StageRefining
		return
	}
	s.Stage = StageScoring
}

// NeedsMCQs reports whether the refinement round is waiting for its questions.
func (s *Session) NeedsMCQs() bool {
	return s.Stage == StageRefining && !s.MCQLoaded
}

// SetMCQs carga las preguntas de refinamiento; una lista vacia salta a scoring.
func (s *Session) SetMCQs(mcqs []domain.MCQ) error {
	if !s.NeedsMCQs() {
		return s.stageError("set mcqs")
	}
	s.MCQs = mcqs
	s.MCQLoaded = true
	s.MCQCursor = 0
	if len(mcqs) == 0 {
		s.Stage = StageScoring
	}
	s.touch()
	return nil
}

// CurrentMCQ devuelve la MCQ que espera respuesta.
func (s *Session) CurrentMCQ() (domain.MCQ, bool) {
	if s.Stage != StageRefining || !s.MCQLoaded || s.MCQCursor >= len(s.MCQs) {
		return domain.MCQ{}, false
	}
	return s.MCQs[s.MCQCursor], true
}

func (s *Session) Choose(choice string) error {
	mcq, ok := s.CurrentMCQ()
	if !ok {
		return s.stageError("choose")
	}
	if !domain.ValidChoice(choice) {
		return fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}
	s.History = append(s.History, domain.QAEntry{Trait: domain.TraitMCQ, Question: mcq.Question, Choice: choice})
	s.MCQCursor++
	if s.MCQCursor >= len(s.MCQs) {
		s.Stage = StageScoring
	}
	s.touch()
	return nil
}

// Score normaliza y pasa a la etapa de sintesis.
func (s *Session) Score() (domain.TraitScores, error) {
	if s.Stage != StageScoring {
		return nil, s.stageError("score")
	}
	s.Normalized = s.Scores.Normalized()
	s.Stage = StageSynthesizing
	s.touch()
	return s.Normalized, nil
}

// Complete attaches the recommendation outcome and builds the final result.
func (s *Session) Complete(resultID string, outcome domain.RecommendationOutcome) (domain.QuizResult, error) {
	if s.Stage != StageSynthesizing {
		return domain.QuizResult{}, s.stageError("complete")
	}
	history := make([]domain.QAEntry, len(s.History))
	copy(history, s.History)

	result := domain.QuizResult{
		ID:               resultID,
		SessionID:        s.ID,
		UserID:           s.UserID,
		RawScores:        copyScores(s.Scores.Raw),
		AnsweredCounts:   copyCounts(s.Scores.Counts),
		NormalizedScores: copyScores(s.Normalized),
		TopTraits:        TopTraits(s.Normalized, TopTraitCount),
		Recommendation:   outcome,
		History:          history,
		CreatedAt:        time.Now().UTC(),
	}
	s.Result = &result
	s.Stage = StageDone
	s.touch()
	return result, nil
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

func copyScores(in domain.TraitScores) domain.TraitScores {
	out := make(domain.TraitScores, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyCounts(in domain.TraitCounts) domain.TraitCounts {
	out := make(domain.TraitCounts, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
