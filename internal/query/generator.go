package query

import (
	"context"
	"fmt"
	"time"

	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/llm"
	"github.com/jsedoc/fish-rankings/internal/observability"
)

// NotConfiguredMessage is the answer returned when no model backend is configured.
const NotConfiguredMessage = "LLM service is not configured. Please set ANTHROPIC_API_KEY or OPENROUTER_API_KEY (matching llm.provider) in your environment."

// SystemPrompt defines the assistant's role and grounding rules.
const SystemPrompt = `You are a food safety expert assistant. You help users understand food safety,
nutrition, contaminants, recalls, and sustainability. Answer only from the database context
provided. If the database doesn't have relevant information, say so clearly.

Format your response as a clear, helpful answer. Be concise but thorough.`

const userPromptTemplate = `User question: %s

Available database information:
%s

Please provide a helpful answer based on this information. If asking about specific foods, mention
any relevant safety concerns, recalls, or advisories. Be specific and cite the data when possible.`

// Generation is the outcome of one answer attempt. Err is set when the
// answer text is a degraded substitute; it is informational only.
type Generation struct {
	Answer string
	Err    *domain.Error
}

// Generator asks a language model to answer a question from assembled context.
type Generator struct {
	logger    *observability.Logger
	completer llm.Completer
	maxTokens int
}

// NewGenerator creates a generator. A nil completer means the backend is not configured.
func NewGenerator(logger *observability.Logger, completer llm.Completer, maxTokens int) *Generator {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Generator{logger: logger, completer: completer, maxTokens: maxTokens}
}

// Configured reports whether a backend is available.
func (g *Generator) Configured() bool {
	return g.completer != nil
}

// Generate makes a single completion attempt. It never returns an error:
// backend problems become the answer text.
func (g *Generator) Generate(ctx context.Context, question, contextText string) Generation {
	if g.completer == nil {
		return Generation{
			Answer: NotConfiguredMessage,
			Err:    domain.BackendUnavailable("language model backend not configured", llm.ErrNotConfigured),
		}
	}

	start := time.Now()
	answer, err := g.completer.Complete(ctx, llm.CompletionRequest{
		System:    SystemPrompt,
		Prompt:    BuildUserPrompt(question, contextText),
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		g.logger.Error().
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Answer generation failed")
		return Generation{
			Answer: fmt.Sprintf("Error processing query: %v", err),
			Err:    domain.BackendFailure("completion failed", err),
		}
	}

	g.logger.Debug().Dur("elapsed", time.Since(start)).Int("answer_length", len(answer)).Msg("Answer generated")
	return Generation{Answer: answer}
}

// BuildUserPrompt renders the user message sent to the model.
func BuildUserPrompt(question, contextText string) string {
	return fmt.Sprintf(userPromptTemplate, question, contextText)
}
