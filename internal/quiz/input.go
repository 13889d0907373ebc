package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"career-guide/internal/domain"
)

// FieldError es un error de validacion sobre un campo concreto del input.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError agrupa los errores de validacion de un request.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("riasec", func(fl validator.FieldLevel) bool {
		return domain.Trait(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("qa_trait", func(fl validator.FieldLevel) bool {
		t := domain.Trait(fl.Field().String())
		return t.Valid() || t == domain.TraitMCQ
	})
	return v
}

// AnswerInput es una respuesta Likert tal como llega por HTTP.
type AnswerInput struct {
	Trait    string `json:"trait" validate:"required,riasec"`
	Question string `json:"question"`
	Rating   int    `json:"rating" validate:"min=1,max=5"`
}

type MCQAnswerInput struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required,oneof=A B C D"`
}

// AnswerValue accepts either a Likert number or an MCQ letter in the same JSON field.
type AnswerValue struct {
	Number int
	Letter string
}

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.Letter = strings.ToUpper(strings.TrimSpace(s))
		return nil
	}
	return json.Unmarshal(data, &a.Number)
}

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	if a.Letter != "" {
		return json.Marshal(a.Letter)
	}
	return json.Marshal(a.Number)
}

// HistoryEntryInput es una entrada de qa_history: rating numerico para RIASEC, letra para MCQ.
type HistoryEntryInput struct {
	Trait    string      `json:"trait" validate:"required,qa_trait"`
	Question string      `json:"question" validate:"required"`
	Rating   AnswerValue `json:"rating"`
}

// ValidateAnswers converts Likert answers into typed entries, rejecting unknown traits and
// out-of-range ratings.
func ValidateAnswers(inputs []AnswerInput) ([]domain.QAEntry, error) {
	verr := &ValidationError{}
	if len(inputs) == 0 {
		verr.add("answers", "at least one answer is required")
		return nil, verr
	}
	entries := make([]domain.QAEntry, 0, len(inputs))
	for i, in := range inputs {
		in.Trait = strings.ToUpper(strings.TrimSpace(in.Trait))
		if err := validate.Struct(in); err != nil {
			collect(verr, fmt.Sprintf("answers[%d]", i), err)
			continue
		}
		entries = append(entries, domain.QAEntry{
			Trait:    domain.Trait(in.Trait),
			Question: strings.TrimSpace(in.Question),
			Rating:   domain.Rating(in.Rating),
		})
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ValidateMCQAnswers convierte las respuestas MCQ en entradas con trait MCQ.
func ValidateMCQAnswers(inputs []MCQAnswerInput) ([]domain.QAEntry, error) {
	verr := &ValidationError{}
	entries := make([]domain.QAEntry, 0, len(inputs))
	for i, in := range inputs {
		in.Answer = strings.ToUpper(strings.TrimSpace(in.Answer))
		if err := validate.Struct(in); err != nil {
			collect(verr, fmt.Sprintf("mcq_answers[%d]", i), err)
			continue
		}
		entries = append(entries, domain.QAEntry{
			Trait:    domain.TraitMCQ,
			Question: strings.TrimSpace(in.Question),
			Choice:   in.Answer,
		})
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ValidateHistory valida un qa_history mixto.
func ValidateHistory(inputs []HistoryEntryInput) ([]domain.QAEntry, error) {
	verr := &ValidationError{}
	if len(inputs) == 0 {
		verr.add("qa_history", "at least one entry is required")
		return nil, verr
	}
	entries := make([]domain.QAEntry, 0, len(inputs))
	for i, in := range inputs {
		prefix := fmt.Sprintf("qa_history[%d]", i)
		in.Trait = strings.ToUpper(strings.TrimSpace(in.Trait))
		if err := validate.Struct(in); err != nil {
			collect(verr, prefix, err)
			continue
		}
		trait := domain.Trait(in.Trait)
		entry := domain.QAEntry{Trait: trait, Question: strings.TrimSpace(in.Question)}
		if trait == domain.TraitMCQ {
			if !domain.ValidChoice(in.Rating.Letter) {
				verr.add(prefix+".rating", "must be one of A B C D")
				continue
			}
			entry.Choice = in.Rating.Letter
		} else {
			r := domain.Rating(in.Rating.Number)
			if in.Rating.Letter != "" || !r.Valid() {
				verr.add(prefix+".rating", "must be an integer between 1 and 5")
				continue
			}
			entry.Rating = r
		}
		entries = append(entries, entry)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ValidateAskedSet normaliza el mapa questions_asked que envia el cliente.
func ValidateAskedSet(in map[string][]string) (AskedSet, error) {
	verr := &ValidationError{}
	asked := NewAskedSet()
	for key, questions := range in {
		t := domain.Trait(strings.ToUpper(strings.TrimSpace(key)))
		if !t.Valid() {
			verr.add("questions_asked."+key, "unknown trait")
			continue
		}
		asked[t] = append(asked[t], questions...)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return asked, nil
}

func collect(verr *ValidationError, prefix string, err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add(prefix, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		verr.add(prefix+"."+fe.Field(), describe(fe))
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "riasec":
		return "must be one of R I A S E C"
	case "qa_trait":
		return "must be one of R I A S E C MCQ"
	case "min", "max":
		return "must be an integer between 1 and 5"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}
