package lookup

import (
	"testing"

	"github.com/balailatih/serasi/internal/models"
)

func nameCorpus(kind models.CorpusKind, names ...string) *models.Corpus {
	c := &models.Corpus{Kind: kind, Version: 1}
	for i, name := range names {
		c.Documents = append(c.Documents, &models.Document{
			Index: i,
			Kind:  kind,
			Name:  name,
		})
	}
	return c
}

func buildIndex(t *testing.T) *Index {
	t.Helper()
	x, err := New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { x.Close() })
	training := nameCorpus(models.KindTraining, "Teknik Las Listrik", "Akuntansi Dasar")
	jobs := nameCorpus(models.KindJob, "Operator Las", "Staf Akuntansi", "Operator Produksi")
	if err := x.Rebuild(training, jobs); err != nil {
		t.Fatal(err)
	}
	return x
}

func TestSearch(t *testing.T) {
	x := buildIndex(t)

	hits, err := x.Search("las", "", 10, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2: %+v", len(hits), hits)
	}
	for _, h := range hits {
		if h.Score <= 0 {
			t.Errorf("hit %q has non-positive score", h.Name)
		}
	}
}

func TestSearchKindFilter(t *testing.T) {
	x := buildIndex(t)

	hits, err := x.Search("las", models.KindJob, 10, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Name != "Operator Las" || hits[0].Index != 0 {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestSearchFuzzy(t *testing.T) {
	x := buildIndex(t)

	hits, err := x.Search("akuntansy", models.KindTraining, 10, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatal("fuzzy search found nothing")
	}
	if hits[0].Name != "Akuntansi Dasar" {
		t.Errorf("top hit = %q", hits[0].Name)
	}
}

func TestRebuildReplaces(t *testing.T) {
	x := buildIndex(t)

	training := nameCorpus(models.KindTraining, "Tata Boga")
	jobs := nameCorpus(models.KindJob)
	if err := x.Rebuild(training, jobs); err != nil {
		t.Fatal(err)
	}

	if hits, _ := x.Search("las", "", 10, false); len(hits) != 0 {
		t.Errorf("stale entries survived rebuild: %+v", hits)
	}
	hits, err := x.Search("boga", "", 10, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Name != "Tata Boga" {
		t.Errorf("hits = %+v", hits)
	}
}
