// Package main is the Serasi CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/balailatih/serasi/internal/config"
	"github.com/balailatih/serasi/internal/engine"
	"github.com/balailatih/serasi/internal/marketgap"
	"github.com/balailatih/serasi/internal/models"
	"github.com/balailatih/serasi/internal/recommend"
	"github.com/balailatih/serasi/internal/server"
	"github.com/balailatih/serasi/internal/similarity"
	"github.com/balailatih/serasi/internal/watcher"
	"github.com/balailatih/serasi/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/serasi/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "recommend":
		runRecommend()
	case "analyze":
		runAnalyze()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("serasi version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (dataset reloads, matrix builds, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	e, err := engine.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize engine", zap.Error(err))
	}
	defer e.Close()

	if err := e.LoadDatasets(); err != nil {
		logger.Fatal("Failed to load datasets", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Watch.EnabledOrDefault() {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.New(e.DatasetPaths(), e.ReloadDataset, watchOpts...)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(e, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// initEngine builds an engine with loaded datasets for the direct-access
// commands (when no server is running).
func initEngine(configPath string) (*engine.Engine, *config.Config, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	e, err := engine.New(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	if err := e.LoadDatasets(); err != nil {
		e.Close()
		return nil, nil, fmt.Errorf("failed to load datasets: %w", err)
	}
	return e, cfg, nil
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = load datasets directly)")
	mode := fs.String("mode", "by_job", "recommendation direction: by_job or by_training")
	item := fs.Int("item", -1, "restrict to one source item index (-1 = all)")
	topN := fs.Int("top-n", 0, "candidates per source item (0 = config default)")
	threshold := fs.Float64("threshold", -1, "minimum qualifying score (negative = config default)")
	metric := fs.String("metric", "", "similarity metric: cosine or jaccard (empty = config default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	body := map[string]interface{}{"mode": *mode}
	if *item >= 0 {
		body["item_idx"] = *item
	}
	if *topN > 0 {
		body["top_n"] = *topN
	}
	if *threshold >= 0 {
		body["threshold"] = *threshold
	}
	if *metric != "" {
		body["metric"] = *metric
	}

	var recs []models.Recommendation
	if *serverURL != "" {
		var out struct {
			Recommendations []models.Recommendation `json:"recommendations"`
		}
		if err := postViaHTTP(*serverURL+"/api/v1/recommendations", body, &out); err != nil {
			fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
			os.Exit(1)
		}
		recs = out.Recommendations
	} else {
		e, cfg, err := initEngine(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer e.Close()

		p := recommend.Params{
			Mode:      models.RecommendMode(*mode),
			TopN:      cfg.Recommend.TopN,
			Threshold: cfg.Recommend.Threshold,
			Metric:    similarity.Metric(cfg.Recommend.Metric),
		}
		if *item >= 0 {
			idx := *item
			p.ItemIndex = &idx
		}
		if *topN > 0 {
			p.TopN = *topN
		}
		if *threshold >= 0 {
			p.Threshold = *threshold
		}
		if *metric != "" {
			p.Metric = similarity.Metric(*metric)
		}
		recs, err = e.Recommend(context.Background(), p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		writeJSON(recs)
	case "text":
		printRecommendations(recs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printRecommendations(recs []models.Recommendation) {
	lastSource := -1
	for _, r := range recs {
		if r.SourceIndex != lastSource {
			fmt.Printf("\n[%d] %s\n", r.SourceIndex, r.SourceName)
			lastSource = r.SourceIndex
		}
		if r.Status == models.StatusNoMatch {
			fmt.Printf("  no match: %s\n", r.MatchLevel)
			continue
		}
		line := fmt.Sprintf("  %d. %s", r.Rank, r.TargetName)
		if r.Company != "" {
			line += " (" + r.Company + ")"
		}
		fmt.Printf("%s  %.2f%%  %s\n", line, r.Percentage, r.MatchLevel)
	}
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = load datasets directly)")
	jobThreshold := fs.Float64("job-threshold", -1, "job match floor (negative = config default)")
	programThreshold := fs.Float64("program-threshold", -1, "program name match floor (negative = config default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var report *models.MarketGapReport
	if *serverURL != "" {
		body := map[string]interface{}{}
		if *jobThreshold >= 0 {
			body["job_threshold"] = *jobThreshold
		}
		if *programThreshold >= 0 {
			body["program_threshold"] = *programThreshold
		}
		report = &models.MarketGapReport{}
		if err := postViaHTTP(*serverURL+"/api/v1/analysis", body, report); err != nil {
			fmt.Fprintf(os.Stderr, "Analyze failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		e, cfg, err := initEngine(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer e.Close()

		p := marketgap.Params{
			JobThreshold:     cfg.Analysis.JobThreshold,
			ProgramThreshold: cfg.Analysis.ProgramThreshold,
		}
		if *jobThreshold >= 0 {
			p.JobThreshold = *jobThreshold
		}
		if *programThreshold >= 0 {
			p.ProgramThreshold = *programThreshold
		}
		report, err = e.AnalyzeMarketGap(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Analyze failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		writeJSON(report)
	case "text":
		printMarketGap(report)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printMarketGap(report *models.MarketGapReport) {
	s := report.Summary
	fmt.Printf("programs analyzed:   %d\n", s.TotalPrograms)
	fmt.Printf("matched:             %d\n", s.MatchedPrograms)
	fmt.Printf("unmatched:           %d\n", s.UnmatchedPrograms)
	fmt.Printf("placement rate:      %.2f%%\n", s.OverallPlacementRate)
	fmt.Printf("market capacity:     %.2f%%\n", s.OverallMarketCapacity)
	fmt.Printf("overall gap:         %+.2f\n", s.OverallGap)
	fmt.Println()
	for _, r := range report.Records {
		fmt.Printf("%-40s  %-22s  gap %+.2f\n", utils.Truncate(r.Program, 40), r.Status, r.Gap)
	}
	if len(report.Unmatched) > 0 {
		fmt.Println("\nunmatched programs:")
		for _, u := range report.Unmatched {
			fmt.Printf("  %s (best match %q at %.1f%%)\n", u.Program, u.BestMatch, u.Confidence)
		}
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load datasets directly)")
	kind := fs.String("kind", "", "restrict to one corpus: training or job")
	limit := fs.Int("limit", 10, "number of results")
	fuzzy := fs.Bool("fuzzy", false, "enable fuzzy matching for typo tolerance")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: serasi search [flags] <name>")
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Println("Usage: serasi search [flags] <name>")
		os.Exit(1)
	}

	type hit struct {
		Kind    string  `json:"kind"`
		Index   int     `json:"index"`
		Name    string  `json:"name"`
		Company string  `json:"company,omitempty"`
		Score   float64 `json:"score"`
	}
	var hits []hit

	if *serverURL != "" {
		u := fmt.Sprintf("%s/api/v1/search?q=%s&kind=%s&limit=%d&fuzzy=%t",
			*serverURL, url.QueryEscape(query), url.QueryEscape(*kind), *limit, *fuzzy)
		resp, err := http.Get(u)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Search failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Hits []hit `json:"hits"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
		hits = out.Hits
	} else {
		e, _, err := initEngine(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer e.Close()
		found, err := e.SearchNames(query, models.CorpusKind(*kind), *limit, *fuzzy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		for _, f := range found {
			hits = append(hits, hit{Kind: string(f.Kind), Index: f.Index, Name: f.Name, Company: f.Company, Score: f.Score})
		}
	}

	if len(hits) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, h := range hits {
		line := fmt.Sprintf("%-8s #%-4d %s", h.Kind, h.Index, h.Name)
		if h.Company != "" {
			line += " (" + h.Company + ")"
		}
		fmt.Printf("%s  score %.3f\n", line, h.Score)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load datasets directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status engine.Status
	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Status failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		e, _, err := initEngine(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer e.Close()
		status = e.Status()
	}

	switch *outputFormat {
	case "json":
		writeJSON(status)
	case "text":
		fmt.Printf("training programs:  %d\n", status.TrainingCount)
		fmt.Printf("job vacancies:      %d\n", status.JobCount)
		fmt.Printf("placement records:  %d\n", status.PlacementCount)
		fmt.Printf("matrix ready:       %t\n", status.MatrixReady)
		fmt.Printf("history enabled:    %t\n", status.HistoryEnabled)
		fmt.Printf("thresholds:         excellent %.2f / very good %.2f / good %.2f / fair %.2f\n",
			status.Thresholds.Excellent, status.Thresholds.VeryGood, status.Thresholds.Good, status.Thresholds.Fair)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func postViaHTTP(endpoint string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func writeJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`serasi - training program / job vacancy matching engine

Usage:
  serasi server [flags]             Start the HTTP server
  serasi recommend [flags]          Run a recommendation pass
  serasi analyze [flags]            Run the market-gap analysis
  serasi search [flags] <name>      Resolve a program or job by name
  serasi status [flags]             Show corpus and engine status
  serasi version                    Show version
  serasi help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/serasi/config.yaml)
  --debug            Enable debug logging (dataset reloads, matrix builds, etc.)

Recommend Flags:
  --config string       Config file path (for direct mode)
  --server string       Server URL (empty = load datasets directly; default: empty)
  --mode string         by_job (programs for vacancies) or by_training (default: by_job)
  --item int            Restrict to one source item index (default: all)
  --top-n int           Candidates per source item (default from config)
  --threshold float     Minimum qualifying score (default from config)
  --metric string       cosine or jaccard (default from config)
  --output string       text or json (default: text)

Analyze Flags:
  --config string             Config file path (for direct mode)
  --server string             Server URL (empty = load datasets directly; default: empty)
  --job-threshold float       Job match floor (default from config)
  --program-threshold float   Program name match floor (default from config)
  --output string             text or json (default: text)

Search Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct mode.
  --kind string      Restrict to one corpus: training or job
  --limit int        Number of results (default: 10)
  --fuzzy            Enable fuzzy matching for typo tolerance

Status Flags:
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") for direct mode.
  --output string    text or json (default: text)

Examples:
  serasi server
  serasi recommend --mode by_job --top-n 5
  serasi recommend --mode by_training --item 3 --output json
  serasi analyze --job-threshold 0.3
  serasi search --kind job "operator mesin las"
  serasi search --fuzzy "akuntansy"
  serasi status --output json`)
}
