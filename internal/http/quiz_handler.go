package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"career-guide/internal/domain"
	"career-guide/internal/quiz"
	"career-guide/internal/service"
)

// QuizHandler expone el quiz RIASEC sobre HTTP.
type QuizHandler struct {
	logger  *zap.Logger
	quizSvc *service.QuizService
}

func NewQuizHandler(logger *zap.Logger, quizSvc *service.QuizService) *QuizHandler {
	return &QuizHandler{
		logger:  logger,
		quizSvc: quizSvc,
	}
}

// GetQuestions maneja GET /api/quiz/questions.
func (h *QuizHandler) GetQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"traits":    domain.AllTraits,
		"questions": h.quizSvc.Questions(),
	})
}

// NextQuestion maneja POST /api/quiz/next-question.
func (h *QuizHandler) NextQuestion(c *gin.Context) {
	var req struct {
		QuestionsAsked map[string][]string `json:"questions_asked"`
	}
	if c.Request.ContentLength != 0 && !h.bind(c, &req, "next question") {
		return
	}
	asked, err := quiz.ValidateAskedSet(req.QuestionsAsked)
	if err != nil {
		h.respondError(c, err, "next question")
		return
	}
	prompt, err := h.quizSvc.NextQuestion(asked)
	if err != nil {
		h.respondError(c, err, "next question")
		return
	}
	c.JSON(http.StatusOK, prompt)
}

// CalculateScores maneja POST /api/quiz/calculate-scores.
func (h *QuizHandler) CalculateScores(c *gin.Context) {
	var req struct {
		Answers []quiz.AnswerInput `json:"answers"`
	}
	if !h.bind(c, &req, "calculate scores") {
		return
	}
	entries, err := quiz.ValidateAnswers(req.Answers)
	if err != nil {
		h.respondError(c, err, "calculate scores")
		return
	}
	report, err := h.quizSvc.CalculateScores(entries)
	if err != nil {
		h.respondError(c, err, "calculate scores")
		return
	}
	c.JSON(http.StatusOK, report)
}

// GenerateMCQ maneja POST /api/quiz/generate-mcq.
func (h *QuizHandler) GenerateMCQ(c *gin.Context) {
	var req struct {
		QAHistory    []quiz.HistoryEntryInput `json:"qa_history"`
		NumQuestions *int                     `json:"num_questions" binding:"omitempty,min=1,max=10"`
	}
	if !h.bind(c, &req, "generate mcq") {
		return
	}
	history, err := quiz.ValidateHistory(req.QAHistory)
	if err != nil {
		h.respondError(c, err, "generate mcq")
		return
	}
	n := service.DefaultMCQCount
	if req.NumQuestions != nil {
		n = *req.NumQuestions
	}

	mcqs, err := h.quizSvc.GenerateMCQs(c.Request.Context(), history, n)
	if err != nil {
		h.respondError(c, err, "generate mcq")
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": mcqs})
}

// Recommendations maneja POST /api/quiz/recommendations.
func (h *QuizHandler) Recommendations(c *gin.Context) {
	var req struct {
		QAHistory        []quiz.HistoryEntryInput `json:"qa_history"`
		NormalizedScores map[string]float64       `json:"normalized_scores"`
	}
	if !h.bind(c, &req, "recommendations") {
		return
	}
	history, err := quiz.ValidateHistory(req.QAHistory)
	if err != nil {
		h.respondError(c, err, "recommendations")
		return
	}
	scores, err := parseScores(req.NormalizedScores)
	if err != nil {
		h.respondError(c, err, "recommendations")
		return
	}

	outcome, used, err := h.quizSvc.Recommend(c.Request.Context(), history, scores)
	if err != nil {
		h.respondError(c, err, "recommendations")
		return
	}
	if !outcome.Parsed() {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":        "could not parse recommendations",
			"raw_response": outcome.RawResponse,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recommendations":   outcome.Recommendations,
		"normalized_scores": used,
	})
}

// Submit maneja POST /api/quiz/submit.
func (h *QuizHandler) Submit(c *gin.Context) {
	var req struct {
		Answers    []quiz.AnswerInput    `json:"answers"`
		MCQAnswers []quiz.MCQAnswerInput `json:"mcq_answers"`
	}
	if !h.bind(c, &req, "submit") {
		return
	}
	answers, err := quiz.ValidateAnswers(req.Answers)
	if err != nil {
		h.respondError(c, err, "submit")
		return
	}
	mcqAnswers, err := quiz.ValidateMCQAnswers(req.MCQAnswers)
	if err != nil {
		h.respondError(c, err, "submit")
		return
	}

	result, err := h.quizSvc.Submit(c.Request.Context(), currentUserID(c), answers, mcqAnswers)
	if err != nil {
		h.respondError(c, err, "submit")
		return
	}
	c.JSON(http.StatusOK, result)
}

// StartSession maneja POST /api/quiz/sessions.
func (h *QuizHandler) StartSession(c *gin.Context) {
	var req struct {
		Refine *bool `json:"refine"`
	}
	if c.Request.ContentLength != 0 && !h.bind(c, &req, "start session") {
		return
	}
	step, err := h.quizSvc.StartSession(c.Request.Context(), currentUserID(c), req.Refine)
	if err != nil {
		h.respondError(c, err, "start session")
		return
	}
	c.JSON(http.StatusCreated, step)
}

// AnswerSession maneja POST /api/quiz/sessions/:id/answer.
func (h *QuizHandler) AnswerSession(c *gin.Context) {
	var req struct {
		Rating *int `json:"rating" binding:"required"`
	}
	if !h.bind(c, &req, "answer session") {
		return
	}
	step, err := h.quizSvc.AnswerSession(c.Request.Context(), c.Param("id"), domain.Rating(*req.Rating))
	if err != nil {
		h.respondError(c, err, "answer session")
		return
	}
	c.JSON(http.StatusOK, step)
}

// AnswerSessionMCQ maneja POST /api/quiz/sessions/:id/mcq.
func (h *QuizHandler) AnswerSessionMCQ(c *gin.Context) {
	var req struct {
		Choice string `json:"choice" binding:"required"`
	}
	if !h.bind(c, &req, "answer session mcq") {
		return
	}
	step, err := h.quizSvc.AnswerSessionMCQ(c.Request.Context(), c.Param("id"), req.Choice)
	if err != nil {
		h.respondError(c, err, "answer session mcq")
		return
	}
	c.JSON(http.StatusOK, step)
}

// GetSession maneja GET /api/quiz/sessions/:id.
func (h *QuizHandler) GetSession(c *gin.Context) {
	step, err := h.quizSvc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "get session")
		return
	}
	c.JSON(http.StatusOK, step)
}

// GetResult maneja GET /api/quiz/results/:id.
func (h *QuizHandler) GetResult(c *gin.Context) {
	result, err := h.quizSvc.GetResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "get result")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListResults maneja GET /api/quiz/results; requiere JWT.
func (h *QuizHandler) ListResults(c *gin.Context) {
	limit := 20
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}
	results, err := h.quizSvc.ListResults(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		h.respondError(c, err, "list results")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *QuizHandler) bind(c *gin.Context, req any, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("invalid "+op+" request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}

// respondError traduce errores de dominio a status HTTP.
func (h *QuizHandler) respondError(c *gin.Context, err error, op string) {
	var verr *quiz.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, quiz.ErrInvalidTrait),
		errors.Is(err, quiz.ErrInvalidRating),
		errors.Is(err, quiz.ErrInvalidChoice),
		errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, service.ErrResultNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
	case errors.Is(err, quiz.ErrWrongStage), errors.Is(err, quiz.ErrNoPendingQuestion):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrServiceUnavailable):
		h.logger.Warn(op+" degraded", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "text completion service unavailable"})
	default:
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not " + op})
	}
}

// parseScores acepta un mapa opcional de puntajes y lo convierte a TraitScores.
// Un mapa vacio equivale a no enviarlo.
func parseScores(in map[string]float64) (domain.TraitScores, error) {
	if len(in) == 0 {
		return nil, nil
	}
	verr := &quiz.ValidationError{}
	scores := make(domain.TraitScores, len(in))
	for key, v := range in {
		t := domain.Trait(strings.ToUpper(strings.TrimSpace(key)))
		if !t.Valid() {
			verr.Fields = append(verr.Fields, quiz.FieldError{Field: "normalized_scores." + key, Message: "unknown trait"})
			continue
		}
		if v < 0 || v > 1 {
			verr.Fields = append(verr.Fields, quiz.FieldError{Field: "normalized_scores." + key, Message: "must be between 0 and 1"})
			continue
		}
		scores[t] = v
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return scores, nil
}
