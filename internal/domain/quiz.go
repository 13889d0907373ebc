package domain

import (
	"fmt"
	"time"
)

// QAEntry es una respuesta del historial. Las entradas RIASEC llevan Rating; las MCQ llevan Choice.
type QAEntry struct {
	Trait    Trait  `json:"trait" bson:"trait"`
	Question string `json:"question" bson:"question"`
	Rating   Rating `json:"rating,omitempty" bson:"rating,omitempty"`
	Choice   string `json:"choice,omitempty" bson:"choice,omitempty"`
}

// Answer devuelve la respuesta tal como se muestra en los prompts.
func (e QAEntry) Answer() string {
	if e.Trait == TraitMCQ {
		return e.Choice
	}
	return fmt.Sprintf("%d", e.Rating)
}

type MCQOptions struct {
	A string `json:"A" bson:"A"`
	B string `json:"B" bson:"B"`
	C string `json:"C" bson:"C"`
	D string `json:"D" bson:"D"`
}

// Get devuelve el texto de una opcion por letra.
func (o MCQOptions) Get(choice string) string {
	switch choice {
	case ChoiceA:
		return o.A
	case ChoiceB:
		return o.B
	case ChoiceC:
		return o.C
	case ChoiceD:
		return o.D
	}
	return ""
}

func (o MCQOptions) Complete() bool {
	return o.A != "" && o.B != "" && o.C != "" && o.D != ""
}

type MCQ struct {
	Question string     `json:"question" bson:"question"`
	Options  MCQOptions `json:"options" bson:"options"`
}

type Degree struct {
	Degree          string   `json:"degree" bson:"degree"`
	Specializations []string `json:"specializations" bson:"specializations"`
}

// Recommendation viene tal cual del modelo; todos los campos son texto no confiable.
type Recommendation struct {
	Career  string   `json:"career" bson:"career"`
	Reason  string   `json:"reason" bson:"reason"`
	Stream  string   `json:"stream" bson:"stream"`
	Degrees []Degree `json:"degrees" bson:"degrees"`
}

type RecommendationStatus string

const (
	RecommendationParsed      RecommendationStatus = "parsed"
	RecommendationUnparseable RecommendationStatus = "unparseable"
	RecommendationUnavailable RecommendationStatus = "unavailable"
)

// RecommendationOutcome is either a parsed Recommendation-Set or an explicit marker
// carrying the raw model text (unparseable) or the service error (unavailable).
type RecommendationOutcome struct {
	Status          RecommendationStatus `json:"status" bson:"status"`
	Recommendations []Recommendation     `json:"recommendations" bson:"recommendations"`
	RawResponse     string               `json:"raw_response,omitempty" bson:"raw_response,omitempty"`
	Error           string               `json:"error,omitempty" bson:"error,omitempty"`
}

func (o RecommendationOutcome) Parsed() bool {
	return o.Status == RecommendationParsed
}

// TraitScores mapea cada trait a un valor; se serializa con las claves R, I, A, S, E, C.
type TraitScores map[Trait]float64

type TraitScore struct {
	Trait Trait   `json:"trait" bson:"trait"`
	Score float64 `json:"score" bson:"score"`
}

type TraitCounts map[Trait]int

// QuizResult es el payload estable de una sesion terminada.
type QuizResult struct {
	ID               string                `json:"id" bson:"_id"`
	SessionID        string                `json:"session_id,omitempty" bson:"session_id,omitempty"`
	UserID           string                `json:"user_id,omitempty" bson:"user_id,omitempty"`
	RawScores        TraitScores           `json:"raw_scores" bson:"raw_scores"`
	AnsweredCounts   TraitCounts           `json:"answered_counts" bson:"answered_counts"`
	NormalizedScores TraitScores           `json:"normalized_scores" bson:"normalized_scores"`
	TopTraits        []TraitScore          `json:"top_traits" bson:"top_traits"`
	Recommendation   RecommendationOutcome `json:"recommendation" bson:"recommendation"`
	History          []QAEntry             `json:"qa_history" bson:"qa_history"`
	CreatedAt        time.Time             `json:"created_at" bson:"created_at"`
}
