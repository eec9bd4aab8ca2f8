package similarity

import (
	"sync"

	"go.uber.org/zap"

	"github.com/balailatih/serasi/internal/models"
)

// Cache memoizes the corpus-wide matrix keyed by the corpora fingerprint.
// Reads against a matching fingerprint return the cached matrix without
// locking the build path; a mismatch forces a rebuild that replaces the
// entry. Rebuilds are single-flight: the build runs under the mutex, so
// concurrent callers during a rebuild wait for the in-flight result rather
// than receiving a stale matrix.
type Cache struct {
	mu     sync.Mutex
	matrix *Matrix
	logger *zap.Logger
}

// NewCache creates an empty cache. The logger is optional.
func NewCache(logger *zap.Logger) *Cache {
	return &Cache{logger: logger}
}

// Get returns the cached matrix for the given corpora, building it first if
// the cache is empty or the fingerprint no longer matches. Build must be
// invoked explicitly by callers that want a matrix; Peek never builds.
func (c *Cache) Get(training, jobs *models.Corpus) *Matrix {
	fp := Fingerprint(training, jobs)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.matrix != nil && c.matrix.Fingerprint == fp {
		return c.matrix
	}
	if c.logger != nil {
		c.logger.Info("building similarity matrix",
			zap.Int("training", training.Len()),
			zap.Int("jobs", jobs.Len()),
		)
	}
	c.matrix = Build(training, jobs)
	return c.matrix
}

// Peek returns the cached matrix if it matches the given corpora, without
// ever triggering a build.
func (c *Cache) Peek(training, jobs *models.Corpus) (*Matrix, bool) {
	fp := Fingerprint(training, jobs)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.matrix != nil && c.matrix.Fingerprint == fp {
		return c.matrix, true
	}
	return nil, false
}

// Invalidate drops the cached matrix. Called on wholesale corpus
// replacement.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.matrix = nil
}
