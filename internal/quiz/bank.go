package quiz

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"career-guide/internal/domain"
)

//go:embed questions.json
var defaultBankJSON []byte

//go:embed bank_schema.json
var bankSchemaJSON []byte

var ErrBankEmpty = errors.New("question bank empty")

// BankError lista los problemas encontrados al validar un banco de preguntas.
type BankError struct {
	Source   string
	Problems []string
}

func (e *BankError) Error() string {
	return fmt.Sprintf("invalid question bank %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// Bank es el banco de preguntas por trait. No se modifica despues de construirse.
type Bank struct {
	questions map[domain.Trait][]string
}

// NewBank copies the given mapping. Unknown trait codes are ignored.
func NewBank(questions map[domain.Trait][]string) *Bank {
	b := &Bank{questions: make(map[domain.Trait][]string, len(domain.AllTraits))}
	for _, t := range domain.AllTraits {
		src := questions[t]
		dst := make([]string, len(src))
		copy(dst, src)
		b.questions[t] = dst
	}
	return b
}

// DefaultBank devuelve el banco embebido en el binario.
func DefaultBank() (*Bank, error) {
	return LoadBank(defaultBankJSON, "embedded")
}

// LoadBankFile carga y valida un banco desde disco.
func LoadBankFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return LoadBank(data, path)
}

// LoadBank validates data against the bank schema: all six traits present, each with at
// least one non-empty question.
func LoadBank(data []byte, source string) (*Bank, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(bankSchemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, &BankError{Source: source, Problems: []string{err.Error()}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			problems = append(problems, fmt.Sprintf("%s: %s", re.Field(), re.Description()))
		}
		return nil, &BankError{Source: source, Problems: problems}
	}

	var raw map[domain.Trait][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &BankError{Source: source, Problems: []string{err.Error()}}
	}
	return NewBank(raw), nil
}

// Questions devuelve una copia de las preguntas de t.
func (b *Bank) Questions(t domain.Trait) []string {
	src := b.questions[t]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// All devuelve una copia completa del banco.
func (b *Bank) All() map[domain.Trait][]string {
	out := make(map[domain.Trait][]string, len(b.questions))
	for _, t := range domain.AllTraits {
		out[t] = b.Questions(t)
	}
	return out
}

func (b *Bank) Size(t domain.Trait) int {
	return len(b.questions[t])
}
