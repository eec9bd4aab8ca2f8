package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/balailatih/serasi/internal/config"
	"github.com/balailatih/serasi/internal/engine"
	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/internal/store"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.History.DatabasePath = filepath.Join(t.TempDir(), "history.db")

	e, err := engine.New(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { e.Close() })

	e.ReplaceTraining([]store.TrainingRecord{
		{Program: "Teknik Las", Objective: "operator mesin las listrik"},
		{Program: "Akuntansi", Objective: "menyusun laporan keuangan pajak"},
	})
	e.ReplaceJobs([]store.JobRecord{
		{Title: "Welder", Company: "PT Baja", Description: "operator mesin las listrik", Vacancies: 12},
		{Title: "Staf Pajak", Description: "menyusun laporan pajak", Vacancies: 4},
	})

	srv := NewServer(e, cfg, zap.NewNop())
	return srv, srv.Router()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func postJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(method, path, bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandleHealth(t *testing.T) {
	_, h := newTestServer(t)
	w := get(t, h, "/health")
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleListCorpus(t *testing.T) {
	_, h := newTestServer(t)

	w := get(t, h, "/api/v1/corpora/job")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Kind  string `json:"kind"`
		Count int    `json:"count"`
		Items []struct {
			Index     int    `json:"index"`
			Name      string `json:"name"`
			Company   string `json:"company"`
			Vacancies int    `json:"vacancies"`
		} `json:"items"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || len(out.Items) != 2 {
		t.Fatalf("count: got %d, items: %d", out.Count, len(out.Items))
	}
	if out.Items[0].Name != "Welder" || out.Items[0].Company != "PT Baja" || out.Items[0].Vacancies != 12 {
		t.Errorf("first item: %+v", out.Items[0])
	}

	if w := get(t, h, "/api/v1/corpora/vacancy"); w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: got %d, want 400", w.Code)
	}
}

func TestHandleGetDocument(t *testing.T) {
	_, h := newTestServer(t)

	w := get(t, h, "/api/v1/corpora/training/0")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var doc models.Document
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.Name != "Teknik Las" {
		t.Errorf("name: got %q", doc.Name)
	}

	if w := get(t, h, "/api/v1/corpora/training/9"); w.Code != http.StatusNotFound {
		t.Errorf("out of range: got %d, want 404", w.Code)
	}
	if w := get(t, h, "/api/v1/corpora/training/abc"); w.Code != http.StatusBadRequest {
		t.Errorf("non-numeric index: got %d, want 400", w.Code)
	}
}

func TestHandlePreprocessTrace(t *testing.T) {
	_, h := newTestServer(t)

	w := get(t, h, "/api/v1/corpora/job/0/preprocess")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var trace models.StageTrace
	if err := json.NewDecoder(w.Body).Decode(&trace); err != nil {
		t.Fatal(err)
	}
	if trace.Original == "" || len(trace.StemmedTokens) == 0 {
		t.Errorf("trace: %+v", trace)
	}
}

func TestHandleSearch(t *testing.T) {
	_, h := newTestServer(t)

	w := get(t, h, "/api/v1/search?q=welder&kind=job")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Hits []struct {
			Kind  string `json:"kind"`
			Index int    `json:"index"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Hits) != 1 || out.Hits[0].Index != 0 {
		t.Errorf("hits: %+v", out.Hits)
	}

	if w := get(t, h, "/api/v1/search"); w.Code != http.StatusBadRequest {
		t.Errorf("missing q: got %d, want 400", w.Code)
	}
}

func TestHandleBuildMatrixAndStats(t *testing.T) {
	_, h := newTestServer(t)

	w := postJSON(t, h, http.MethodPost, "/api/v1/matrix", map[string]string{})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Rows   int `json:"rows"`
		Cols   int `json:"cols"`
		Cosine struct {
			Calculations int `json:"total_calculations"`
		} `json:"cosine"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Rows != 2 || out.Cols != 2 || out.Cosine.Calculations != 4 {
		t.Errorf("matrix: %+v", out)
	}

	if w := get(t, h, "/api/v1/matrix/stats?metric=jaccard"); w.Code != http.StatusOK {
		t.Errorf("stats: got %d", w.Code)
	}
	if w := get(t, h, "/api/v1/matrix/stats?metric=hamming"); w.Code != http.StatusBadRequest {
		t.Errorf("unknown metric: got %d, want 400", w.Code)
	}
}

func TestHandleTraces(t *testing.T) {
	_, h := newTestServer(t)

	w := get(t, h, "/api/v1/pairs/0/0/tfidf/6")
	if w.Code != http.StatusOK {
		t.Fatalf("tfidf trace: got %d, body: %s", w.Code, w.Body.String())
	}
	var payload map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if _, ok := payload["similarity"]; !ok {
		t.Errorf("payload missing similarity: %v", payload)
	}

	if w := get(t, h, "/api/v1/pairs/0/0/tfidf/7"); w.Code != http.StatusInternalServerError && w.Code != http.StatusBadRequest {
		t.Errorf("step out of range: got %d", w.Code)
	}
	if w := get(t, h, "/api/v1/pairs/0/0/jaccard/5"); w.Code != http.StatusOK {
		t.Errorf("jaccard trace: got %d", w.Code)
	}
	if w := get(t, h, "/api/v1/pairs/9/0/jaccard/1"); w.Code != http.StatusNotFound {
		t.Errorf("out of range pair: got %d, want 404", w.Code)
	}
}

func TestHandleComparison(t *testing.T) {
	_, h := newTestServer(t)

	w := postJSON(t, h, http.MethodPost, "/api/v1/comparison", map[string]float64{"min_threshold": 0.01})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Stats struct {
			TotalComparisons int `json:"total_comparisons"`
		} `json:"stats"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Stats.TotalComparisons < 1 {
		t.Errorf("total comparisons: got %d, want >= 1", out.Stats.TotalComparisons)
	}

	if w := postJSON(t, h, http.MethodPost, "/api/v1/comparison", map[string]float64{"min_threshold": 1.5}); w.Code != http.StatusBadRequest {
		t.Errorf("out of range floor: got %d, want 400", w.Code)
	}
}

func TestHandleRecommend(t *testing.T) {
	_, h := newTestServer(t)

	w := postJSON(t, h, http.MethodPost, "/api/v1/recommendations", map[string]interface{}{
		"mode": "by_job", "top_n": 2, "threshold": 0.01,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Count           int                     `json:"count"`
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Count == 0 || out.Count != len(out.Recommendations) {
		t.Errorf("count: got %d, rows: %d", out.Count, len(out.Recommendations))
	}

	if w := postJSON(t, h, http.MethodPost, "/api/v1/recommendations", map[string]string{"mode": "sideways"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown mode: got %d, want 400", w.Code)
	}
}

func TestHandleExportRecommendations(t *testing.T) {
	_, h := newTestServer(t)

	w := postJSON(t, h, http.MethodPost, "/api/v1/recommendations/export", map[string]interface{}{
		"mode": "by_training", "format": "csv",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type: got %q", ct)
	}
	if w.Header().Get("Content-Disposition") == "" {
		t.Error("missing content disposition")
	}

	if w := postJSON(t, h, http.MethodPost, "/api/v1/recommendations/export", map[string]interface{}{
		"mode": "by_training", "format": "pdf",
	}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown format: got %d, want 400", w.Code)
	}
}

func TestHandleThresholds(t *testing.T) {
	_, h := newTestServer(t)

	w := get(t, h, "/api/v1/thresholds")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var current models.MatchThresholds
	if err := json.NewDecoder(w.Body).Decode(&current); err != nil {
		t.Fatal(err)
	}
	if current != models.DefaultThresholds() {
		t.Errorf("thresholds: got %+v", current)
	}

	bad := models.MatchThresholds{Excellent: 0.2, VeryGood: 0.4, Good: 0.3, Fair: 0.1}
	if w := postJSON(t, h, http.MethodPut, "/api/v1/thresholds", bad); w.Code != http.StatusBadRequest {
		t.Errorf("invalid thresholds: got %d, want 400", w.Code)
	}

	good := models.MatchThresholds{Excellent: 0.9, VeryGood: 0.7, Good: 0.5, Fair: 0.2}
	w = postJSON(t, h, http.MethodPut, "/api/v1/thresholds", good)
	if w.Code != http.StatusOK {
		t.Fatalf("update: got %d, body: %s", w.Code, w.Body.String())
	}
	var updated models.MatchThresholds
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatal(err)
	}
	if updated != good {
		t.Errorf("updated: got %+v", updated)
	}
}

func TestHandleExperiments(t *testing.T) {
	_, h := newTestServer(t)

	// A batch run records one experiment.
	if w := postJSON(t, h, http.MethodPost, "/api/v1/recommendations", map[string]interface{}{
		"mode": "by_job",
	}); w.Code != http.StatusOK {
		t.Fatalf("recommend: got %d, body: %s", w.Code, w.Body.String())
	}

	w := get(t, h, "/api/v1/experiments")
	if w.Code != http.StatusOK {
		t.Fatalf("list: got %d, body: %s", w.Code, w.Body.String())
	}
	var out struct {
		Experiments []struct {
			ID string `json:"id"`
		} `json:"experiments"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Experiments) != 1 {
		t.Fatalf("experiments: got %d, want 1", len(out.Experiments))
	}
	id := out.Experiments[0].ID

	if w := get(t, h, "/api/v1/experiments/"+id); w.Code != http.StatusOK {
		t.Errorf("get: got %d", w.Code)
	}
	if w := get(t, h, "/api/v1/experiments/"+id+"/recommendations"); w.Code != http.StatusOK {
		t.Errorf("recommendations: got %d", w.Code)
	}
	if w := get(t, h, "/api/v1/experiments/nope"); w.Code != http.StatusNotFound {
		t.Errorf("unknown id: got %d, want 404", w.Code)
	}
}
