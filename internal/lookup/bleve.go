// Package lookup provides Bleve-backed name search over the corpora, so
// callers can find a document's index from a free-text name instead of
// scanning listings.
package lookup

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/balailatih/serasi/internal/models"
)

// Hit is one name-search result.
type Hit struct {
	Kind    models.CorpusKind `json:"kind"`
	Index   int               `json:"index"`
	Name    string            `json:"name"`
	Company string            `json:"company,omitempty"`
	Score   float64           `json:"score"`
}

type indexEntry struct {
	Name    string `json:"name"`
	Company string `json:"company"`
}

// Index is an in-memory Bleve index over document names. The whole index is
// rebuilt on corpus replacement; names are few and short so a rebuild is
// cheap.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
	docs  map[string]Hit
}

// New creates an empty in-memory index.
func New() (*Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a query term
	// matches the exact indexed word.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("company", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create name index: %w", err)
	}
	return &Index{index: index, docs: make(map[string]Hit)}, nil
}

// Rebuild replaces the index contents with both corpora's names.
func (x *Index) Rebuild(training, jobs *models.Corpus) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	batch := x.index.NewBatch()
	for id := range x.docs {
		batch.Delete(id)
	}
	docs := make(map[string]Hit)
	add := func(c *models.Corpus) error {
		for _, d := range c.Documents {
			id := docID(d.Kind, d.Index)
			if err := batch.Index(id, indexEntry{Name: d.Name, Company: d.Company}); err != nil {
				return err
			}
			docs[id] = Hit{Kind: d.Kind, Index: d.Index, Name: d.Name, Company: d.Company}
		}
		return nil
	}
	if err := add(training); err != nil {
		return fmt.Errorf("failed to index training names: %w", err)
	}
	if err := add(jobs); err != nil {
		return fmt.Errorf("failed to index job names: %w", err)
	}
	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to rebuild name index: %w", err)
	}
	x.docs = docs
	return nil
}

// Search returns up to limit name hits for the query, optionally restricted
// to one corpus kind. Fuzzy matching tolerates small typos.
func (x *Index) Search(query string, kind models.CorpusKind, limit int, fuzzy bool) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	req := bleve.NewSearchRequest(buildQuery(query, fuzzy))
	// Over-fetch when filtering by kind; the filter happens after scoring.
	req.Size = limit * 2
	results, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("name search failed: %w", err)
	}

	out := make([]Hit, 0, limit)
	for _, hit := range results.Hits {
		entry, ok := x.docs[hit.ID]
		if !ok {
			continue
		}
		if kind != "" && entry.Kind != kind {
			continue
		}
		entry.Score = hit.Score
		out = append(out, entry)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}

func buildQuery(query string, fuzzy bool) blevequery.Query {
	if !fuzzy {
		return bleve.NewMatchQuery(query)
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return bleve.NewMatchQuery(query)
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(2)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

func docID(kind models.CorpusKind, index int) string {
	return string(kind) + ":" + strconv.Itoa(index)
}
