package quiz

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"career-guide/internal/domain"
)

// AskedSet guarda, por trait, las preguntas ya presentadas en una sesion.
type AskedSet map[domain.Trait][]string

func NewAskedSet() AskedSet {
	a := make(AskedSet, len(domain.AllTraits))
	for _, t := range domain.AllTraits {
		a[t] = []string{}
	}
	return a
}

func (a AskedSet) Add(t domain.Trait, question string) {
	a[t] = append(a[t], question)
}

func (a AskedSet) Count(t domain.Trait) int {
	return len(a[t])
}

// Total suma las preguntas presentadas en todos los traits.
func (a AskedSet) Total() int {
	total := 0
	for _, t := range domain.AllTraits {
		total += len(a[t])
	}
	return total
}

// Prompt es una pregunta elegida por el selector.
type Prompt struct {
	Trait    domain.Trait `json:"trait"`
	Question string       `json:"question"`
}

// Selector picks the least-asked trait (random among ties) and an unused question for it.
// It is safe for concurrent use; the random source is injected so tests can fix the sequence.
type Selector struct {
	bank *Bank

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSelector(bank *Bank, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{bank: bank, rng: rng}
}

func (s *Selector) Bank() *Bank {
	return s.bank
}

// Select no modifica asked; el llamador registra la pregunta elegida.
func (s *Selector) Select(asked AskedSet) (Prompt, error) {
	minCount := -1
	for _, t := range domain.AllTraits {
		if c := asked.Count(t); minCount == -1 || c < minCount {
			minCount = c
		}
	}
	candidates := make([]domain.Trait, 0, len(domain.AllTraits))
	for _, t := range domain.AllTraits {
		if asked.Count(t) == minCount {
			candidates = append(candidates, t)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trait := candidates[s.rng.Intn(len(candidates))]

	pool := s.bank.questions[trait]
	if len(pool) == 0 {
		return Prompt{}, fmt.Errorf("%w: trait %s", ErrBankEmpty, trait)
	}

	used := make(map[string]struct{}, len(asked[trait]))
	for _, q := range asked[trait] {
		used[q] = struct{}{}
	}
	available := make([]string, 0, len(pool))
	for _, q := range pool {
		if _, ok := used[q]; !ok {
			available = append(available, q)
		}
	}
	// Banco agotado para este trait: se permiten repeticiones.
	if len(available) == 0 {
		available = pool
	}

	return Prompt{Trait: trait, Question: available[s.rng.Intn(len(available))]}, nil
}
