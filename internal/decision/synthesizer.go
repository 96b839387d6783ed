// internal/decision/synthesizer.go
package decision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/llm"
)

// Synthesizer produces the decision and report for a scored signal,
// optionally asking an LLM for a short commentary on the report.
type Synthesizer struct {
	llm     llm.Provider
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// SynthesizerConfig holds synthesizer configuration.
type SynthesizerConfig struct {
	CommentaryTimeout time.Duration
}

// NewSynthesizer creates a synthesizer. llmProvider may be nil to disable
// commentary.
func NewSynthesizer(llmProvider llm.Provider, logger *zap.Logger, cfg SynthesizerConfig) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CommentaryTimeout <= 0 {
		cfg.CommentaryTimeout = 20 * time.Second
	}
	return &Synthesizer{
		llm:     llmProvider,
		timeout: cfg.CommentaryTimeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Synthesize decides on sig and renders the report. Commentary failures are
// logged and leave the deterministic report untouched.
func (s *Synthesizer) Synthesize(ctx context.Context, sig *core.EnhancedSignal, sentiment *core.SentimentResult, weight *core.WeightResult) (*core.TradingDecision, *core.Report) {
	at := s.now()
	d := Decide(sig, sentiment, weight, at)
	report := BuildReport(sig, sentiment, weight, d, at)

	if s.llm == nil {
		return d, report
	}

	commentary, err := s.commentary(ctx, sig, d, report)
	if err != nil {
		s.logger.Warn("report commentary unavailable",
			zap.String("stage", "decision"),
			zap.String("signal_id", sig.SignalID),
			zap.String("provider", s.llm.Name()),
			zap.Error(err),
		)
		return d, report
	}
	report.Commentary = commentary
	return d, report
}

func (s *Synthesizer) commentary(ctx context.Context, sig *core.EnhancedSignal, d *core.TradingDecision, report *core.Report) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.llm.Chat(ctx, llm.ChatRequest{
		SystemPrompt: commentarySystemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: buildPrompt(sig, d, report)},
		},
		MaxTokens:   400,
		Temperature: 0.3,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", core.WrapError(core.ErrLLMTimeout, err)
		}
		return "", llm.ProviderError(s.llm.Name(), err)
	}
	return strings.TrimSpace(resp.Content), nil
}

func buildPrompt(sig *core.EnhancedSignal, d *core.TradingDecision, report *core.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Alert: %s %d%s %s (signal %s)\n\n",
		sig.Alert.Symbol(), sig.Alert.Strike, sig.Alert.Option(), sig.Alert.Action, sig.SignalID))

	sb.WriteString("## Decision:\n")
	sb.WriteString(fmt.Sprintf("- Decision: %s at %.1f%% confidence\n", d.Decision, d.Confidence))
	sb.WriteString(fmt.Sprintf("- Position size: %.2fx, risk level %s\n", d.SuggestedPositionSize, d.RiskLevel))
	for _, f := range d.Factors {
		sb.WriteString(fmt.Sprintf("- %s: %.3f (weight %.2f)\n", f.Name, f.Score, f.Weight))
	}
	sb.WriteString("\n")

	sb.WriteString("## Validation:\n")
	sb.WriteString(fmt.Sprintf("- Confidence %.1f, recommendation %s\n", sig.ConfidenceScore, sig.Recommendation))
	sb.WriteString(fmt.Sprintf("- Quality %.1f, Outcome %.1f, Timing %.1f, Risk %.1f\n",
		sig.Scores.Quality, sig.Scores.Outcome, sig.Scores.Timing, sig.Scores.Risk))
	sb.WriteString("\n")

	writeSection(&sb, "Strengths", report.KeyStrengths)
	writeSection(&sb, "Weaknesses", report.KeyWeaknesses)
	writeSection(&sb, "Market Context", report.MarketContext)
	writeSection(&sb, "Technical", report.Technical)

	sb.WriteString("## Task:\n")
	sb.WriteString("Write a short commentary (at most 4 sentences) for the trader explaining this decision.\n")
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	sb.WriteString("## " + title + ":\n")
	for _, l := range lines {
		sb.WriteString("- " + l + "\n")
	}
	sb.WriteString("\n")
}

const commentarySystemPrompt = `You are an options trading desk assistant. You receive a scored index option alert together with the rule-based decision already taken for it.

Explain the decision in plain language:
1. Name the factors that drove it
2. Point out the main risk
3. Do not change or second-guess the decision, size or risk level

Respond with plain text, no markdown.`
