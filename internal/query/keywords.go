package query

import (
	"strings"
	"unicode/utf8"
)

// DefaultStopWords are dropped from questions before searching.
var DefaultStopWords = []string{
	"is", "are", "what", "which", "how", "when", "where", "who",
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to",
	"for", "of", "with", "by", "from", "about", "during", "safe", "eat",
	"food", "should", "can", "i", "my", "me", "tell",
}

const trailingPunctuation = "?,!."

// Extractor turns a free-text question into search terms.
type Extractor struct {
	stopWords   map[string]struct{}
	maxKeywords int
}

// NewExtractor creates an extractor. A nil stopWords uses DefaultStopWords.
func NewExtractor(stopWords []string, maxKeywords int) *Extractor {
	if stopWords == nil {
		stopWords = DefaultStopWords
	}
	if maxKeywords <= 0 {
		maxKeywords = 10
	}
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &Extractor{stopWords: set, maxKeywords: maxKeywords}
}

// Extract lower-cases the question, strips trailing punctuation from each
// word, and keeps words longer than two characters that are not stop words.
// Order is preserved and duplicates are kept.
func (e *Extractor) Extract(question string) []string {
	keywords := []string{}
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.TrimRight(word, trailingPunctuation)
		if utf8.RuneCountInString(word) <= 2 {
			continue
		}
		if _, stop := e.stopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == e.maxKeywords {
			break
		}
	}
	return keywords
}

// IsStopWord reports whether w is in the extractor's stop-word set.
func (e *Extractor) IsStopWord(w string) bool {
	_, ok := e.stopWords[strings.ToLower(w)]
	return ok
}
