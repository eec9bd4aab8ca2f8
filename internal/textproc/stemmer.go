package textproc

import (
	"fmt"

	"github.com/RadhiFadlillah/go-sastrawi"
)

// Stemmer maps a token to its stem. Implementations must be safe for
// concurrent use and idempotent (stemming a stem is a no-op).
type Stemmer interface {
	Stem(token string) string
}

// NewStemmer returns a stemmer for the given language code. Only "id"
// (Indonesian, Sastrawi) is supported; unknown codes return an error so the
// caller can degrade to NopStemmer with a warning instead of failing the
// pipeline.
func NewStemmer(language string) (Stemmer, error) {
	switch language {
	case "id", "":
		return sastrawiStemmer{inner: sastrawi.NewStemmer(sastrawi.DefaultDictionary())}, nil
	default:
		return nil, fmt.Errorf("no stemmer available for language %q", language)
	}
}

type sastrawiStemmer struct {
	inner sastrawi.Stemmer
}

func (s sastrawiStemmer) Stem(token string) string {
	return s.inner.Stem(token)
}

// NopStemmer returns tokens unchanged. Used when the stemming capability is
// unavailable; the pipeline stays functional with degraded output.
type NopStemmer struct{}

// Stem returns the token unchanged.
func (NopStemmer) Stem(token string) string { return token }
