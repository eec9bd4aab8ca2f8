// Package textproc implements the deterministic text preprocessing pipeline:
// normalize, stopword removal, tokenize, stem. Each stage is pure and
// order-preserving, and every stage's output is independently retrievable
// for step-by-step display.
package textproc

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/balailatih/serasi/internal/models"
)

// Preprocessor runs the four-stage pipeline. Stages 1-3 are idempotent on
// their own output; stage 4 is idempotent for any stemmer that fixes its
// own output. Safe for concurrent use once constructed.
type Preprocessor struct {
	stopwords map[string]bool
	stemmer   Stemmer
	stemRules map[string]string
	logger    *zap.Logger
}

// Option configures a Preprocessor.
type Option func(*Preprocessor)

// WithStopwords replaces the default stopword list.
func WithStopwords(words []string) Option {
	return func(p *Preprocessor) { p.stopwords = newStopwordSet(words) }
}

// WithStemmer sets the stemming capability. When never set, stemming is
// skipped and a warning is logged once per Preprocessor.
func WithStemmer(s Stemmer) Option {
	return func(p *Preprocessor) { p.stemmer = s }
}

// WithStemRules sets override rules consulted before the stemmer. Used for
// domain words the dictionary stems too aggressively.
func WithStemRules(rules map[string]string) Option {
	return func(p *Preprocessor) { p.stemRules = rules }
}

// WithLogger sets a logger for degradation warnings.
func WithLogger(l *zap.Logger) Option {
	return func(p *Preprocessor) { p.logger = l }
}

// New creates a Preprocessor with the default Indonesian stopword list and
// no stemmer (degraded mode) unless options say otherwise.
func New(opts ...Option) *Preprocessor {
	p := &Preprocessor{
		stopwords: newStopwordSet(defaultStopwords),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.stemmer == nil {
		if p.logger != nil {
			p.logger.Warn("stemmer unavailable, stemming stage will be skipped")
		}
		p.stemmer = NopStemmer{}
	}
	return p
}

// Normalize lowercases text, strips punctuation and digits, and collapses
// whitespace. Stage 1 of the pipeline.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || r == '_':
			b.WriteRune(r)
		case unicode.IsDigit(r):
			// dropped entirely, no space left behind
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// RemoveStopwords drops stopword tokens from normalized text. Stage 2.
func (p *Preprocessor) RemoveStopwords(text string) string {
	if text == "" {
		return ""
	}
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if !p.stopwords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Tokenize splits text on whitespace into an ordered sequence. Stage 3.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Fields(text)
}

// StemTokens maps each token through the stem rules and the stemmer. Stage 4.
// Order is preserved.
func (p *Preprocessor) StemTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if stem, ok := p.stemRules[tok]; ok {
			out[i] = stem
			continue
		}
		out[i] = p.stemmer.Stem(tok)
	}
	return out
}

// Preprocess runs all four stages and returns the final token sequence.
func (p *Preprocessor) Preprocess(raw string) []string {
	return p.StemTokens(Tokenize(p.RemoveStopwords(Normalize(raw))))
}

// Trace runs all four stages and returns every intermediate output.
func (p *Preprocessor) Trace(raw string) *models.StageTrace {
	normalized := Normalize(raw)
	noStop := p.RemoveStopwords(normalized)
	tokens := Tokenize(noStop)
	return &models.StageTrace{
		Original:      raw,
		Normalized:    normalized,
		NoStopwords:   noStop,
		Tokens:        tokens,
		StemmedTokens: p.StemTokens(tokens),
	}
}

// TermSet returns the deduplicated vocabulary of a token sequence.
func TermSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
