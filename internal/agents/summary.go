package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/hanriver/tradepilot/internal/llm"
	"github.com/hanriver/tradepilot/internal/models"
)

// OptimizerAgent condenses the report to a <=400-character broadcast
// message with fixed structural slots (§4.3).
type OptimizerAgent struct {
	provider llm.Provider
}

func NewOptimizerAgent(provider llm.Provider) *OptimizerAgent { return &OptimizerAgent{provider: provider} }

const maxSummaryChars = 400

// optimizerSystemPrompt fixes the broadcast's structural slots: ticker,
// call, entry/target/stop, one-line rationale.
const optimizerSystemPrompt = `You write terse trading broadcast messages, at most 400 characters.
Use exactly this structure, one line each:
TICKER | CALL (BUY/SKIP/WATCH)
ENTRY / TARGET / STOP
ONE-LINE RATIONALE
Do not exceed 400 characters total. No markdown, no extra commentary.`

func (a *OptimizerAgent) Invoke(ctx context.Context, in Input) (string, error) {
	strategy := in.PriorSections[sectionStrategyKey].Content
	user := fmt.Sprintf("Ticker: %s\nStrategy:\n%s", in.Ticker, strategy)

	out, err := invokeLLM(ctx, a.provider, in.Timeout, optimizerSystemPrompt, user)
	if err != nil {
		return "", err
	}
	if len(out) > maxSummaryChars {
		out = out[:maxSummaryChars]
	}
	return out, nil
}

// revise re-runs the optimizer with the evaluator's feedback folded in, for
// the second and later loop iterations.
func (a *OptimizerAgent) revise(ctx context.Context, in Input, previous, feedback string) (string, error) {
	user := fmt.Sprintf(
		"Ticker: %s\nPrevious draft:\n%s\n\nEvaluator feedback to address:\n%s\n\nRewrite the broadcast message.",
		in.Ticker, previous, feedback,
	)
	out, err := invokeLLM(ctx, a.provider, in.Timeout, optimizerSystemPrompt, user)
	if err != nil {
		return "", err
	}
	if len(out) > maxSummaryChars {
		out = out[:maxSummaryChars]
	}
	return out, nil
}

// EvaluatorAgent rates the optimizer's output on accuracy, clarity,
// hallucination and format (§4.3).
type EvaluatorAgent struct {
	provider llm.Provider
}

func NewEvaluatorAgent(provider llm.Provider) *EvaluatorAgent { return &EvaluatorAgent{provider: provider} }

// Verdict is the evaluator's structured rating of one optimizer draft.
type Verdict struct {
	Rating   models.EvaluatorRating
	Feedback string
}

func (a *EvaluatorAgent) Evaluate(ctx context.Context, in Input, draft string) (Verdict, error) {
	system := `You rate a trading broadcast draft on accuracy, clarity, absence of
hallucination, and adherence to the fixed TICKER/CALL, ENTRY-TARGET-STOP,
RATIONALE format. Respond with your rating as exactly one of: excellent,
good, poor — on the first line — followed by one line of feedback.`

	user := fmt.Sprintf("Ticker: %s\nDraft:\n%s", in.Ticker, draft)

	out, err := invokeLLM(ctx, a.provider, in.Timeout, system, user)
	if err != nil {
		return Verdict{}, err
	}

	lines := strings.SplitN(strings.TrimSpace(out), "\n", 2)
	rating := models.RatingPoor
	switch strings.ToLower(strings.TrimSpace(lines[0])) {
	case "excellent":
		rating = models.RatingExcellent
	case "good":
		rating = models.RatingGood
	}
	feedback := ""
	if len(lines) > 1 {
		feedback = lines[1]
	}
	return Verdict{Rating: rating, Feedback: feedback}, nil
}

// RunSummaryLoop pairs the optimizer and evaluator iteratively: the loop
// terminates when the rating reaches "excellent" or after maxIterations
// (<=3 per §4.3).
func RunSummaryLoop(ctx context.Context, optimizer *OptimizerAgent, evaluator *EvaluatorAgent, in Input, maxIterations int) (string, models.EvaluatorRating, error) {
	draft, err := optimizer.Invoke(ctx, in)
	if err != nil {
		return "", "", err
	}

	var verdict Verdict
	for i := 0; i < maxIterations; i++ {
		verdict, err = evaluator.Evaluate(ctx, in, draft)
		if err != nil {
			return draft, models.RatingPoor, err
		}
		if verdict.Rating == models.RatingExcellent {
			return draft, verdict.Rating, nil
		}
		if i == maxIterations-1 {
			break
		}
		draft, err = optimizer.revise(ctx, in, draft, verdict.Feedback)
		if err != nil {
			return draft, verdict.Rating, err
		}
	}
	return draft, verdict.Rating, nil
}
