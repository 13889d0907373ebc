package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"career-guide/internal/llm"
	"career-guide/internal/quiz"
	"career-guide/internal/service"
)

type denyAfter struct {
	allowed int
	calls   int
}

func (d *denyAfter) Allow(string) bool {
	d.calls++
	return d.calls <= d.allowed
}

func setupQuizRouter(t *testing.T, client llm.LLMClient, limiter service.RateLimiter) (*gin.Engine, *service.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bank, err := quiz.DefaultBank()
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}
	settings := service.LLMSettings{Timeout: time.Second, Temperature: 0.4}
	svc := service.NewQuizService(
		quiz.NewSelector(bank, rand.New(rand.NewSource(1))),
		service.NewMCQGenerator(client, settings, zap.NewNop()),
		service.NewRecommendationSynthesizer(client, settings, zap.NewNop()),
		service.NewMemorySessionStore(time.Minute),
		nil,
		service.QuizSettings{QuestionCount: 2, MCQCount: 2, Refine: false},
		zap.NewNop(),
	)
	jwtSvc := service.NewJWTService("secret", time.Minute)
	r := NewRouter(RouterDeps{
		Logger:      zap.NewNop(),
		Quiz:        NewQuizHandler(zap.NewNop(), svc),
		JWT:         jwtSvc,
		RateLimiter: limiter,
		CORSOrigins: []string{"http://localhost:5173"},
	})
	return r, jwtSvc
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

var scenarioAnswers = []map[string]any{
	{"trait": "R", "question": "q1", "rating": 5},
	{"trait": "I", "question": "q2", "rating": 1},
	{"trait": "A", "question": "q3", "rating": 3},
	{"trait": "S", "question": "q4", "rating": 3},
	{"trait": "E", "question": "q5", "rating": 3},
	{"trait": "C", "question": "q6", "rating": 3},
}

const recommendationJSON = `{"recommendations": [{"career": "Civil Engineer", "reason": "r", "stream": "science", "degrees": [{"degree": "B.Tech", "specializations": ["Civil"]}]}]}`

func TestHealth(t *testing.T) {
	r, _ := setupQuizRouter(t, &llm.MockClient{}, nil)
	rec := performRequest(r, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != `{"status":"ok"}` {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestQuizHandlerGetQuestions(t *testing.T) {
	r, _ := setupQuizRouter(t, &llm.MockClient{}, nil)
	rec := performRequest(r, http.MethodGet, "/api/quiz/questions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Traits    []string            `json:"traits"`
		Questions map[string][]string `json:"questions"`
	}
	decodeBody(t, rec, &body)
	if len(body.Traits) != 6 || len(body.Questions["C"]) == 0 {
		t.Fatalf("unexpected questions payload: %+v", body)
	}
}

func TestQuizHandlerNextQuestion(t *testing.T) {
	r, _ := setupQuizRouter(t, &llm.MockClient{}, nil)

	rec := performRequest(r, http.MethodPost, "/api/quiz/next-question", map[string]any{
		"questions_asked": map[string][]string{"R": {"a"}, "I": {"b"}, "A": {"c"}, "S": {"d"}, "C": {"e"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var prompt quiz.Prompt
	decodeBody(t, rec, &prompt)
	if prompt.Trait != "E" || prompt.Question == "" {
		t.Fatalf("expected an E question, got %+v", prompt)
	}

	rec = performRequest(r, http.MethodPost, "/api/quiz/next-question", map[string]any{
		"questions_asked": map[string][]string{"Z": {"a"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown trait, got %d", rec.Code)
	}
}

func TestQuizHandlerCalculateScores(t *testing.T) {
	r, _ := setupQuizRouter(t, &llm.MockClient{}, nil)

	rec := performRequest(r, http.MethodPost, "/api/quiz/calculate-scores", map[string]any{"answers": scenarioAnswers})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report service.ScoreReport
	decodeBody(t, rec, &report)
	if report.RawScores["R"] != 1 || report.NormalizedScores["I"] != 0 || report.NormalizedScores["C"] != 0.5 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.TopTraits) != 3 || report.TopTraits[0].Trait != "R" || report.TopTraits[1].Trait != "A" {
		t.Fatalf("unexpected top traits: %+v", report.TopTraits)
	}

	rec = performRequest(r, http.MethodPost, "/api/quiz/calculate-scores", map[string]any{"answers": []any{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty answers, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPost, "/api/quiz/calculate-scores", map[string]any{
		"answers": []map[string]any{{"trait": "R", "question": "q", "rating": 7}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range rating, got %d", rec.Code)
	}
	var verr struct {
		Fields []quiz.FieldError `json:"fields"`
	}
	decodeBody(t, rec, &verr)
	if len(verr.Fields) != 1 || verr.Fields[0].Field != "answers[0].rating" {
		t.Fatalf("expected field error, got %+v", verr)
	}
}

func TestQuizHandlerGenerateMCQ(t *testing.T) {
	history := []map[string]any{{"trait": "R", "question": "q1", "rating": 4}}

	mock := &llm.MockClient{Response: `{"questions": [{"question": "M", "options": {"A": "a", "B": "b", "C": "c", "D": "d"}}]}`}
	r, _ := setupQuizRouter(t, mock, nil)
	rec := performRequest(r, http.MethodPost, "/api/quiz/generate-mcq", map[string]any{"qa_history": history, "num_questions": 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Questions []map[string]any `json:"questions"`
	}
	decodeBody(t, rec, &body)
	if len(body.Questions) != 1 {
		t.Fatalf("expected one mcq, got %+v", body)
	}

	rec = performRequest(r, http.MethodPost, "/api/quiz/generate-mcq", map[string]any{"qa_history": history, "num_questions": 11})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for num_questions > 10, got %d", rec.Code)
	}

	down, _ := setupQuizRouter(t, &llm.MockClient{Err: errors.New("down")}, nil)
	rec = performRequest(down, http.MethodPost, "/api/quiz/generate-mcq", map[string]any{"qa_history": history})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestQuizHandlerRecommendations(t *testing.T) {
	history := []map[string]any{
		{"trait": "R", "question": "q1", "rating": 5},
		{"trait": "MCQ", "question": "m1", "rating": "B"},
	}

	r, _ := setupQuizRouter(t, &llm.MockClient{Response: recommendationJSON}, nil)
	rec := performRequest(r, http.MethodPost, "/api/quiz/recommendations", map[string]any{"qa_history": history})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Recommendations  []map[string]any   `json:"recommendations"`
		NormalizedScores map[string]float64 `json:"normalized_scores"`
	}
	decodeBody(t, rec, &body)
	if len(body.Recommendations) != 1 || body.NormalizedScores["R"] != 1 || body.NormalizedScores["S"] != 0.5 {
		t.Fatalf("unexpected body: %+v", body)
	}

	rec = performRequest(r, http.MethodPost, "/api/quiz/recommendations", map[string]any{
		"qa_history":        history,
		"normalized_scores": map[string]float64{"R": 1.5},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range score, got %d", rec.Code)
	}

	bad, _ := setupQuizRouter(t, &llm.MockClient{Response: "no json today"}, nil)
	rec = performRequest(bad, http.MethodPost, "/api/quiz/recommendations", map[string]any{"qa_history": history})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var raw struct {
		RawResponse string `json:"raw_response"`
	}
	decodeBody(t, rec, &raw)
	if raw.RawResponse != "no json today" {
		t.Fatalf("expected raw response in body, got %+v", raw)
	}
}

func TestQuizHandlerSubmit(t *testing.T) {
	r, jwtSvc := setupQuizRouter(t, &llm.MockClient{Response: recommendationJSON}, nil)
	token, err := jwtSvc.IssueAccessToken("u1", "")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	payload, _ := json.Marshal(map[string]any{
		"answers":     scenarioAnswers,
		"mcq_answers": []map[string]string{{"question": "m1", "answer": "c"}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/quiz/submit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		UserID         string `json:"user_id"`
		Recommendation struct {
			Status string `json:"status"`
		} `json:"recommendation"`
		History []map[string]any `json:"qa_history"`
	}
	decodeBody(t, rec, &result)
	if result.UserID != "u1" || result.Recommendation.Status != "parsed" || len(result.History) != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.History[6]["trait"] != "MCQ" || result.History[6]["choice"] != "C" {
		t.Fatalf("expected mcq entry appended, got %+v", result.History[6])
	}
}

func TestQuizHandlerInteractiveSession(t *testing.T) {
	r, _ := setupQuizRouter(t, &llm.MockClient{Response: recommendationJSON}, nil)

	rec := performRequest(r, http.MethodPost, "/api/quiz/sessions", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var step service.Step
	decodeBody(t, rec, &step)
	if step.SessionID == "" || step.Question == nil {
		t.Fatalf("expected first question, got %+v", step)
	}
	base := "/api/quiz/sessions/" + step.SessionID

	rec = performRequest(r, http.MethodPost, base+"/answer", map[string]int{"rating": 0})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for rating 0, got %d", rec.Code)
	}
	rec = performRequest(r, http.MethodPost, base+"/mcq", map[string]string{"choice": "A"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for mcq during fixed stage, got %d", rec.Code)
	}

	for i := 0; i < 2; i++ {
		rec = performRequest(r, http.MethodPost, base+"/answer", map[string]int{"rating": 4})
		if rec.Code != http.StatusOK {
			t.Fatalf("answer %d: expected 200, got %d", i, rec.Code)
		}
	}
	step = service.Step{}
	decodeBody(t, rec, &step)
	if step.Stage != quiz.StageDone || step.Result == nil || !step.Result.Recommendation.Parsed() {
		t.Fatalf("expected finished session, got %+v", step)
	}

	rec = performRequest(r, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = performRequest(r, http.MethodGet, "/api/quiz/sessions/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestQuizHandlerResults(t *testing.T) {
	r, jwtSvc := setupQuizRouter(t, &llm.MockClient{}, nil)

	rec := performRequest(r, http.MethodGet, "/api/quiz/results/abc", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without result store, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodGet, "/api/quiz/results", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, _ := jwtSvc.IssueAccessToken("u1", "")
	req := httptest.NewRequest(http.MethodGet, "/api/quiz/results?limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != `{"results":[]}` {
		t.Fatalf("expected empty list, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestQuizHandlerRateLimit(t *testing.T) {
	r, _ := setupQuizRouter(t, &llm.MockClient{Response: recommendationJSON}, &denyAfter{allowed: 1})
	history := []map[string]any{{"trait": "R", "question": "q1", "rating": 4}}

	rec := performRequest(r, http.MethodPost, "/api/quiz/recommendations", map[string]any{"qa_history": history})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	rec = performRequest(r, http.MethodPost, "/api/quiz/recommendations", map[string]any{"qa_history": history})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPost, "/api/quiz/calculate-scores", map[string]any{"answers": scenarioAnswers})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected scoring route to stay unlimited, got %d", rec.Code)
	}
}

func TestQuizHandlerNextQuestionWithoutBody(t *testing.T) {
	r, _ := setupQuizRouter(t, &llm.MockClient{}, nil)

	rec := performRequest(r, http.MethodPost, "/api/quiz/next-question", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for an empty asked set, got %d: %s", rec.Code, rec.Body.String())
	}
	var prompt quiz.Prompt
	decodeBody(t, rec, &prompt)
	if prompt.Trait == "" || prompt.Question == "" {
		t.Fatalf("expected a question, got %+v", prompt)
	}
}

func TestQuizHandlerRecommendationsEmptyScoresUseHistory(t *testing.T) {
	mock := &llm.MockClient{Response: recommendationJSON}
	r, _ := setupQuizRouter(t, mock, nil)

	rec := performRequest(r, http.MethodPost, "/api/quiz/recommendations", map[string]any{
		"qa_history":        []map[string]any{{"trait": "R", "question": "q1", "rating": 5}},
		"normalized_scores": map[string]float64{},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		NormalizedScores map[string]float64 `json:"normalized_scores"`
	}
	decodeBody(t, rec, &body)
	if len(body.NormalizedScores) != 6 || body.NormalizedScores["R"] != 1 || body.NormalizedScores["C"] != 0.5 {
		t.Fatalf("expected scores computed from history, got %+v", body.NormalizedScores)
	}
	if bytes.Contains([]byte(mock.Prompts[0]), []byte("between 0 and 1):\n{}")) {
		t.Fatalf("expected non-empty scores block in prompt, got %q", mock.Prompts[0])
	}
}

func TestQuizHandlerRecommendationsMissingKeyIsBadGateway(t *testing.T) {
	history := []map[string]any{{"trait": "R", "question": "q1", "rating": 5}}
	for _, raw := range []string{"null", "{}", `[{"career": "Dev", "reason": "r", "stream": "science", "degrees": []}]`} {
		r, _ := setupQuizRouter(t, &llm.MockClient{Response: raw}, nil)
		rec := performRequest(r, http.MethodPost, "/api/quiz/recommendations", map[string]any{"qa_history": history})
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("%q: expected 502, got %d: %s", raw, rec.Code, rec.Body.String())
		}
		var body struct {
			RawResponse string `json:"raw_response"`
		}
		decodeBody(t, rec, &body)
		if body.RawResponse != raw {
			t.Fatalf("%q: expected raw response echoed, got %+v", raw, body)
		}
	}
}
