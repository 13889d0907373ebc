package quiz

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"career-guide/internal/domain"
)

var (
	ErrInvalidTrait  = errors.New("invalid trait")
	ErrInvalidRating = errors.New("invalid rating")
	ErrInvalidChoice = errors.New("invalid choice")
)

// NeutralScore se asigna a traits sin respuestas.
const NeutralScore = 0.5

// Scorecard acumula sumas crudas y conteos por trait dentro de una sesion.
type Scorecard struct {
	Raw    domain.TraitScores `json:"raw"`
	Counts domain.TraitCounts `json:"counts"`
}

func NewScorecard() *Scorecard {
	sc := &Scorecard{
		Raw:    make(domain.TraitScores, len(domain.AllTraits)),
		Counts: make(domain.TraitCounts, len(domain.AllTraits)),
	}
	for _, t := range domain.AllTraits {
		sc.Raw[t] = 0
		sc.Counts[t] = 0
	}
	return sc
}

// Record adds the Likert contribution of rating to trait. Invalid input is not counted
// and is reported through ErrInvalidTrait or ErrInvalidRating.
func (sc *Scorecard) Record(trait domain.Trait, rating domain.Rating) error {
	if !trait.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTrait, trait)
	}
	contribution, ok := rating.Contribution()
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidRating, rating)
	}
	sc.Raw[trait] += contribution
	sc.Counts[trait]++
	return nil
}

func (sc *Scorecard) Normalized() domain.TraitScores {
	return Normalize(sc.Raw, sc.Counts)
}

// ScoreEntries acumula un historial. Las entradas MCQ se ignoran; cualquier otra entrada
// invalida devuelve error.
func ScoreEntries(entries []domain.QAEntry) (*Scorecard, error) {
	sc := NewScorecard()
	for i, e := range entries {
		if e.Trait == domain.TraitMCQ {
			continue
		}
		if err := sc.Record(e.Trait, e.Rating); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return sc, nil
}

// Normalize is total: traits with no answers get NeutralScore, the rest raw/count rounded
// to four decimals.
func Normalize(raw domain.TraitScores, counts domain.TraitCounts) domain.TraitScores {
	out := make(domain.TraitScores, len(domain.AllTraits))
	for _, t := range domain.AllTraits {
		n := counts[t]
		if n <= 0 {
			out[t] = NeutralScore
			continue
		}
		out[t] = round4(raw[t] / float64(n))
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// TopTraits ordena por puntaje descendente; los empates respetan el orden RIASEC.
func TopTraits(scores domain.TraitScores, n int) []domain.TraitScore {
	ranked := make([]domain.TraitScore, 0, len(domain.AllTraits))
	for _, t := range domain.AllTraits {
		ranked = append(ranked, domain.TraitScore{Trait: t, Score: scores[t]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
