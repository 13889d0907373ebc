package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"career-guide/internal/config"
	"career-guide/internal/domain"
	"career-guide/internal/llm"
	"career-guide/internal/quiz"
	"career-guide/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Take the quiz interactively",
	Long:  "Asks the fixed Likert questions, an optional round of generated multiple choice questions, then prints normalized scores and career recommendations.",
	RunE:  runQuiz,
}

var (
	runQuestions int
	runMCQs      int
	runNoRefine  bool
	runSeed      int64
	runVerbose   bool
	runRaw       bool
)

func init() {
	runCmd.Flags().IntVarP(&runQuestions, "questions", "q", 0, "Number of fixed questions (default QUIZ_QUESTION_COUNT)")
	runCmd.Flags().IntVarP(&runMCQs, "mcqs", "m", 0, "Number of refinement questions, 1-10 (default QUIZ_MCQ_COUNT)")
	runCmd.Flags().BoolVar(&runNoRefine, "no-refine", false, "Skip the generated multiple choice round")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Seed for question selection (0 uses the clock)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Log pipeline events to stderr")
	runCmd.Flags().BoolVar(&runRaw, "raw", false, "Also print the raw recommendation text returned by the model")

	rootCmd.AddCommand(runCmd)
}

func runQuiz(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runQuestions < 0 {
		return fmt.Errorf("--questions must be >= 0")
	}
	if runMCQs < 0 || runMCQs > service.MaxMCQCount {
		return fmt.Errorf("--mcqs must be between 1 and %d", service.MaxMCQCount)
	}

	logger := zap.NewNop()
	if runVerbose {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	bank, err := quiz.DefaultBank()
	if cfg.QuestionBankPath != "" {
		bank, err = quiz.LoadBankFile(cfg.QuestionBankPath)
	}
	if err != nil {
		return fmt.Errorf("question bank: %w", err)
	}

	seed := runSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	selector := quiz.NewSelector(bank, rand.New(rand.NewSource(seed)))

	client, closeClient := cliLLMClient(ctx, cfg)
	defer closeClient()

	settings := service.LLMSettings{Timeout: cfg.LLMTimeout, Temperature: cfg.LLMTemperature}
	questions := cfg.QuizQuestionCount
	if runQuestions > 0 {
		questions = runQuestions
	}
	mcqs := cfg.QuizMCQCount
	if runMCQs > 0 {
		mcqs = runMCQs
	}

	orchestrator := service.NewOrchestrator(
		selector,
		service.NewMCQGenerator(client, settings, logger),
		service.NewRecommendationSynthesizer(client, settings, logger),
		mcqs,
		logger,
	)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "===== RIASEC career quiz =====")
	fmt.Fprintln(out, "Rate each statement from 1 (strongly disagree) to 5 (strongly agree).")

	session := quiz.NewSession(uuid.NewString(), questions, cfg.QuizRefine && !runNoRefine)
	respondent := newTerminalRespondent(os.Stdin, out)
	result, err := orchestrator.Run(ctx, session, respondent)
	if err != nil {
		return err
	}

	printResult(out, result, runRaw)
	return nil
}

func cliLLMClient(ctx context.Context, cfg *config.Config) (llm.LLMClient, func()) {
	noop := func() {}
	if cfg.LLMAPIKey == "" {
		return llm.NewDisabledClient("LLM_API_KEY not set"), noop
	}
	if cfg.LLMProvider == config.ProviderOpenAI {
		return llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout, nil), noop
	}
	client, err := llm.NewGeminiClient(ctx, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTemperature)
	if err != nil {
		return llm.NewDisabledClient(err.Error()), noop
	}
	return client, func() { _ = client.Close() }
}

func printResult(out io.Writer, result domain.QuizResult, showRaw bool) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "===== Your interest profile =====")
	for _, t := range domain.AllTraits {
		fmt.Fprintf(out, "  %s %-13s %.2f (%d answers)\n", t, t.Name(), result.NormalizedScores[t], result.AnsweredCounts[t])
	}
	fmt.Fprint(out, "Top traits:")
	for _, ts := range result.TopTraits {
		fmt.Fprintf(out, " %s", ts.Trait)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out)

	rec := result.Recommendation
	if showRaw && rec.Status == domain.RecommendationParsed {
		fmt.Fprintln(out, "===== Raw model output =====")
		fmt.Fprintln(out, rec.RawResponse)
		fmt.Fprintln(out)
	}
	switch rec.Status {
	case domain.RecommendationParsed:
		fmt.Fprintln(out, "===== Recommended careers =====")
		for i, r := range rec.Recommendations {
			fmt.Fprintf(out, "%d. %s [%s]\n", i+1, r.Career, r.Stream)
			fmt.Fprintf(out, "   %s\n", r.Reason)
			for _, d := range r.Degrees {
				fmt.Fprintf(out, "   - %s", d.Degree)
				if len(d.Specializations) > 0 {
					fmt.Fprintf(out, ": %v", d.Specializations)
				}
				fmt.Fprintln(out)
			}
		}
	case domain.RecommendationUnparseable:
		fmt.Fprintln(out, "Recommendations could not be parsed. Raw response:")
		fmt.Fprintln(out, rec.RawResponse)
	default:
		fmt.Fprintf(out, "Recommendations unavailable: %s\n", rec.Error)
	}
}

// terminalRespondent lee respuestas de una terminal y repregunta ante entradas invalidas.
type terminalRespondent struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalRespondent(in io.Reader, out io.Writer) *terminalRespondent {
	return &terminalRespondent{in: bufio.NewReader(in), out: out}
}
