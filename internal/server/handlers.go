package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/balailatih/serasi/internal/config"
	"github.com/balailatih/serasi/internal/export"
	"github.com/balailatih/serasi/internal/marketgap"
	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/internal/recommend"
	"github.com/balailatih/serasi/internal/similarity"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.Status())
}

// corpusItem is one row of a corpus listing, enough for callers building pickers.
type corpusItem struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Company   string `json:"company,omitempty"`
	Vacancies int    `json:"vacancies,omitempty"`
}

func (s *Server) handleListCorpus(w http.ResponseWriter, r *http.Request) {
	kind := models.CorpusKind(chi.URLParam(r, "kind"))
	c, err := s.engine.Corpus(kind)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	items := make([]corpusItem, 0, c.Len())
	for _, d := range c.Documents {
		items = append(items, corpusItem{
			Index:     d.Index,
			Name:      d.Name,
			Company:   d.Company,
			Vacancies: d.Vacancies,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"kind":  kind,
		"count": len(items),
		"items": items,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	kind := models.CorpusKind(chi.URLParam(r, "kind"))
	index, ok := s.intParam(w, r, "index")
	if !ok {
		return
	}
	doc, err := s.engine.Document(kind, index)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePreprocessTrace(w http.ResponseWriter, r *http.Request) {
	kind := models.CorpusKind(chi.URLParam(r, "kind"))
	index, ok := s.intParam(w, r, "index")
	if !ok {
		return
	}
	trace, err := s.engine.PreprocessTrace(kind, index)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, trace)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	kind := models.CorpusKind(r.URL.Query().Get("kind"))
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	fuzzy := r.URL.Query().Get("fuzzy") == "true"

	hits, err := s.engine.SearchNames(q, kind, limit, fuzzy)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"query": q, "hits": hits})
}

func (s *Server) handleBuildMatrix(w http.ResponseWriter, r *http.Request) {
	m, err := s.engine.Matrix()
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"rows":        m.Rows,
		"cols":        m.Cols,
		"fingerprint": m.Fingerprint,
		"cosine":      m.Stats(similarity.MetricCosine),
		"jaccard":     m.Stats(similarity.MetricJaccard),
	})
}

func (s *Server) handleMatrixStats(w http.ResponseWriter, r *http.Request) {
	metric := similarity.Metric(r.URL.Query().Get("metric"))
	stats, err := s.engine.MatrixStats(metric)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleComparePair(w http.ResponseWriter, r *http.Request) {
	trainingIdx, jobIdx, ok := s.pairParams(w, r)
	if !ok {
		return
	}
	cell, err := s.engine.Compare(trainingIdx, jobIdx)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, cell)
}

func (s *Server) handleTFIDFTrace(w http.ResponseWriter, r *http.Request) {
	trainingIdx, jobIdx, ok := s.pairParams(w, r)
	if !ok {
		return
	}
	step, ok := s.intParam(w, r, "step")
	if !ok {
		return
	}
	payload, err := s.engine.PairwiseTrace(trainingIdx, jobIdx, step)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleJaccardTrace(w http.ResponseWriter, r *http.Request) {
	trainingIdx, jobIdx, ok := s.pairParams(w, r)
	if !ok {
		return
	}
	step, ok := s.intParam(w, r, "step")
	if !ok {
		return
	}
	payload, err := s.engine.JaccardTrace(trainingIdx, jobIdx, step)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, payload)
}

type comparisonRequest struct {
	MinThreshold *float64 `json:"min_threshold"`
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	var req comparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	floor := 0.01
	if req.MinThreshold != nil {
		floor = *req.MinThreshold
	}
	report, err := s.engine.CompareMetrics(floor)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

type recommendRequest struct {
	Mode      models.RecommendMode `json:"mode"`
	ItemIndex *int                 `json:"item_idx"`
	TopN      int                  `json:"top_n"`
	Threshold *float64             `json:"threshold"`
	Metric    similarity.Metric    `json:"metric"`
}

// params fills unset knobs from the configured recommendation defaults.
func (req recommendRequest) params(defaults config.RecommendConfig) recommend.Params {
	p := recommend.Params{
		Mode:      req.Mode,
		ItemIndex: req.ItemIndex,
		TopN:      req.TopN,
		Metric:    req.Metric,
	}
	if p.TopN == 0 {
		p.TopN = defaults.TopN
	}
	if req.Threshold != nil {
		p.Threshold = *req.Threshold
	} else {
		p.Threshold = defaults.Threshold
	}
	if p.Metric == "" {
		p.Metric = similarity.Metric(defaults.Metric)
	}
	return p
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p := req.params(s.config.Recommend)
	s.logger.Debug("recommend request",
		zap.String("mode", string(p.Mode)), zap.Int("top_n", p.TopN), zap.Float64("threshold", p.Threshold))
	recs, err := s.engine.Recommend(r.Context(), p)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"mode":            p.Mode,
		"count":           len(recs),
		"recommendations": recs,
	})
}

type exportRecommendRequest struct {
	recommendRequest
	Format string `json:"format"`
}

func (s *Server) handleExportRecommendations(w http.ResponseWriter, r *http.Request) {
	var req exportRecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	recs, err := s.engine.Recommend(r.Context(), req.params(s.config.Recommend))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	switch req.Format {
	case "csv":
		err = export.RecommendationsCSV(&buf, recs)
		s.respondFile(w, "recommendations.csv", "text/csv", err, &buf)
	case "", "xlsx":
		err = export.RecommendationsXLSX(&buf, recs)
		s.respondFile(w, "recommendations.xlsx", xlsxContentType, err, &buf)
	default:
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", req.Format))
	}
}

func (s *Server) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.engine.Thresholds())
}

func (s *Server) handleUpdateThresholds(w http.ResponseWriter, r *http.Request) {
	var t models.MatchThresholds
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.engine.UpdateThresholds(t); err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.engine.Thresholds())
}

type analysisRequest struct {
	JobThreshold     *float64          `json:"job_threshold"`
	ProgramThreshold *float64          `json:"program_threshold"`
	Metric           similarity.Metric `json:"metric"`
}

func (req analysisRequest) params(defaults config.AnalysisConfig) marketgap.Params {
	p := marketgap.Params{Metric: req.Metric}
	if req.JobThreshold != nil {
		p.JobThreshold = *req.JobThreshold
	} else {
		p.JobThreshold = defaults.JobThreshold
	}
	if req.ProgramThreshold != nil {
		p.ProgramThreshold = *req.ProgramThreshold
	} else {
		p.ProgramThreshold = defaults.ProgramThreshold
	}
	return p
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	report, err := s.engine.AnalyzeMarketGap(req.params(s.config.Analysis))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleExportAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	report, err := s.engine.AnalyzeMarketGap(req.params(s.config.Analysis))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	var buf bytes.Buffer
	err = export.MarketGapXLSX(&buf, report)
	s.respondFile(w, "market_gap_analysis.xlsx", xlsxContentType, err, &buf)
}

func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	h := s.engine.History()
	if h == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	offset, limit := 0, 50
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		offset = n
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	experiments, err := h.ListExperiments(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list experiments failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"experiments": experiments})
}

func (s *Server) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	h := s.engine.History()
	if h == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	exp, err := h.GetExperiment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "experiment not found")
		return
	}
	s.respondJSON(w, http.StatusOK, exp)
}

func (s *Server) handleGetExperimentRecommendations(w http.ResponseWriter, r *http.Request) {
	h := s.engine.History()
	if h == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.GetExperiment(r.Context(), id); err != nil {
		s.respondError(w, http.StatusNotFound, "experiment not found")
		return
	}
	recs, err := h.GetRecommendations(r.Context(), id)
	if err != nil {
		s.logger.Error("get recommendations failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "recommendations": recs})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) respondFile(w http.ResponseWriter, name, contentType string, err error, buf *bytes.Buffer) {
	if err != nil {
		s.logger.Error("export failed", zap.String("file", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return n, true
}

func (s *Server) pairParams(w http.ResponseWriter, r *http.Request) (trainingIdx, jobIdx int, ok bool) {
	trainingIdx, ok = s.intParam(w, r, "training")
	if !ok {
		return 0, 0, false
	}
	jobIdx, ok = s.intParam(w, r, "job")
	if !ok {
		return 0, 0, false
	}
	return trainingIdx, jobIdx, true
}

// respondDomainError maps the typed failure values onto HTTP statuses:
// validation failures are the caller's fault, missing indices are 404,
// anything else is a server error.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	var nf *models.NotFoundError
	switch {
	case errors.As(err, &ve):
		s.respondError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &nf):
		s.respondError(w, http.StatusNotFound, nf.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
