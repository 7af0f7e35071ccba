// Package query implements the natural-language question answering pipeline:
// keyword extraction, multi-source retrieval, context assembly and answer generation.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jsedoc/fish-rankings/internal/domain"
	"github.com/jsedoc/fish-rankings/internal/llm"
	"github.com/jsedoc/fish-rankings/internal/observability"
	"github.com/jsedoc/fish-rankings/internal/storage"
)

// Config holds the pipeline tunables.
type Config struct {
	MinQuestionLength int
	MaxKeywords       int
	RetrievalLimit    int
	DisplayLimit      int
	TruncateLength    int
	MaxTokens         int
	StopWords         []string // nil uses DefaultStopWords
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		MinQuestionLength: 3,
		MaxKeywords:       10,
		RetrievalLimit:    10,
		DisplayLimit:      5,
		TruncateLength:    200,
		MaxTokens:         1024,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinQuestionLength <= 0 {
		c.MinQuestionLength = d.MinQuestionLength
	}
	if c.MaxKeywords <= 0 {
		c.MaxKeywords = d.MaxKeywords
	}
	if c.RetrievalLimit <= 0 {
		c.RetrievalLimit = d.RetrievalLimit
	}
	if c.DisplayLimit <= 0 {
		c.DisplayLimit = d.DisplayLimit
	}
	if c.TruncateLength <= 0 {
		c.TruncateLength = d.TruncateLength
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if len(c.StopWords) == 0 {
		c.StopWords = nil
	}
	return c
}

// Request is a natural-language question.
type Request struct {
	Question string
	// ContextHint is accepted and logged; it does not change retrieval.
	ContextHint string
}

// RecallSummary is the compact recall shape surfaced to callers.
type RecallSummary struct {
	RecallNumber   string `json:"recall_number"`
	Product        string `json:"product"`
	Reason         string `json:"reason"`
	Classification string `json:"classification"`
	Company        string `json:"company"`
}

// AdvisorySummary is the compact advisory shape surfaced to callers.
type AdvisorySummary struct {
	State            string `json:"state"`
	FishSpecies      string `json:"fish_species"`
	Waterbody        string `json:"waterbody"`
	Contaminant      string `json:"contaminant"`
	AdvisoryLevel    string `json:"advisory_level"`
	ConsumptionLimit string `json:"consumption_limit"`
}

// Answer is the result of one question.
type Answer struct {
	Answer     string
	Foods      []*storage.Food
	Recalls    []RecallSummary
	Advisories []AdvisorySummary
	Keywords   []string
	// Degraded is the kind of the absorbed generator failure, if any.
	Degraded domain.Kind
	// FailedSources lists sources whose search failed and was treated as empty.
	FailedSources []string
}

// Service answers questions grounded in the food, recall and advisory stores.
type Service struct {
	logger    *observability.Logger
	cfg       Config
	extractor *Extractor
	retriever *Retriever
	assembler *Assembler
	generator *Generator
}

// NewService wires the pipeline. A nil completer leaves the model backend unconfigured.
func NewService(logger *observability.Logger, sources Sources, completer llm.Completer, cfg Config) *Service {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = observability.Nop()
	}
	logger = logger.WithComponent("query")
	return &Service{
		logger:    logger,
		cfg:       cfg,
		extractor: NewExtractor(cfg.StopWords, cfg.MaxKeywords),
		retriever: NewRetriever(logger, sources, cfg.RetrievalLimit),
		assembler: NewAssembler(cfg.TruncateLength),
		generator: NewGenerator(logger, completer, cfg.MaxTokens),
	}
}

// Configured reports whether the model backend is available.
func (s *Service) Configured() bool {
	return s.generator.Configured()
}

// AnswerQuery validates the question, retrieves supporting records, and asks
// the model for an answer. Only invalid input is returned as an error; every
// other failure degrades the answer.
func (s *Service) AnswerQuery(ctx context.Context, req Request) (*Answer, error) {
	question := strings.TrimSpace(req.Question)
	if utf8.RuneCountInString(question) < s.cfg.MinQuestionLength {
		return nil, domain.InvalidInput(fmt.Sprintf("Query must be at least %d characters long", s.cfg.MinQuestionLength))
	}

	start := time.Now()
	logger := s.logger.WithContext(ctx).WithOperation("answer_query")

	keywords := s.extractor.Extract(question)
	logger.Debug().
		Strs("keywords", keywords).
		Str("context_hint", req.ContextHint).
		Msg("Extracted keywords")

	found := s.retriever.Retrieve(ctx, keywords)
	contextText := s.assembler.Assemble(found.Foods.Records, found.Recalls.Records, found.Advisories.Records)
	gen := s.generator.Generate(ctx, question, contextText)

	answer := &Answer{
		Answer:     gen.Answer,
		Foods:      head(found.Foods.Records, s.cfg.DisplayLimit),
		Recalls:    s.summarizeRecalls(head(found.Recalls.Records, s.cfg.DisplayLimit)),
		Advisories: summarizeAdvisories(head(found.Advisories.Records, s.cfg.DisplayLimit)),
		Keywords:   keywords,
	}
	if gen.Err != nil {
		answer.Degraded = gen.Err.Kind
	}
	if found.Foods.Failed() {
		answer.FailedSources = append(answer.FailedSources, "foods")
	}
	if found.Recalls.Failed() {
		answer.FailedSources = append(answer.FailedSources, "recalls")
	}
	if found.Advisories.Failed() {
		answer.FailedSources = append(answer.FailedSources, "advisories")
	}

	logger.Info().
		Int("keywords", len(keywords)).
		Int("foods", len(found.Foods.Records)).
		Int("recalls", len(found.Recalls.Records)).
		Int("advisories", len(found.Advisories.Records)).
		Str("degraded", string(answer.Degraded)).
		Dur("elapsed", time.Since(start)).
		Msg("Query answered")

	return answer, nil
}

func (s *Service) summarizeRecalls(recalls []*storage.Recall) []RecallSummary {
	out := make([]RecallSummary, 0, len(recalls))
	for _, r := range recalls {
		out = append(out, RecallSummary{
			RecallNumber:   r.RecallNumber,
			Product:        truncate(r.ProductDescription, s.cfg.TruncateLength),
			Reason:         truncate(r.ReasonForRecall, s.cfg.TruncateLength),
			Classification: string(r.Classification),
			Company:        r.CompanyName,
		})
	}
	return out
}

func summarizeAdvisories(advisories []*storage.Advisory) []AdvisorySummary {
	out := make([]AdvisorySummary, 0, len(advisories))
	for _, a := range advisories {
		out = append(out, AdvisorySummary{
			State:            a.StateName,
			FishSpecies:      a.FishSpecies,
			Waterbody:        a.WaterbodyName,
			Contaminant:      a.ContaminantType,
			AdvisoryLevel:    a.AdvisoryLevel,
			ConsumptionLimit: a.ConsumptionLimit,
		})
	}
	return out
}

// head returns at most n leading elements of s, never nil.
func head[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[:n]
	}
	if s == nil {
		return []T{}
	}
	return s
}
