package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vihorki/metrics-analyzer/internal/aggregator"
	"github.com/vihorki/metrics-analyzer/internal/analyzer"
	"github.com/vihorki/metrics-analyzer/internal/config"
	"github.com/vihorki/metrics-analyzer/internal/domain"
	"github.com/vihorki/metrics-analyzer/internal/llm"
	"github.com/vihorki/metrics-analyzer/internal/metricsapi"
	"github.com/vihorki/metrics-analyzer/internal/storage"
	"github.com/vihorki/metrics-analyzer/internal/storage/postgres"
	"github.com/vihorki/metrics-analyzer/internal/storage/sqlite"
)

var (
	outputJSON      bool
	focusAreas      []string
	reasoningEffort string
	noSubmit        bool
	noLLM           bool

	period1Start string
	period1End   string
	period2Start string
	period2End   string
	version1     string
	version2     string
	projectName  string
)

var rootCmd = &cobra.Command{
	Use:   "metrics-analyzer",
	Short: "UX metrics analysis tool",
	Long: `A CLI tool for analyzing web-analytics metrics across releases.

It loads visit/hit exports, aggregates them into release metrics,
compares two releases and produces an LLM-backed UX analysis.`,
}

var loadCmd = &cobra.Command{
	Use:   "load [visits.csv] [hits.csv]",
	Short: "Load visit and hit CSV exports into storage",
	Args:  cobra.ExactArgs(2),
	RunE:  runLoad,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [payload.json]",
	Short: "Validate, submit and analyze a metrics payload",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var compareCmd = &cobra.Command{
	Use:   "compare [payload.json]",
	Short: "Compare the two releases of a metrics payload",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompare,
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Build a metrics payload from stored visits and hits",
	RunE:  runAggregate,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check health of the metrics API and the LLM service",
	RunE:  runHealth,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	analyzeCmd.Flags().StringSliceVar(&focusAreas, "focus", nil, "focus areas for the analysis")
	analyzeCmd.Flags().StringVar(&reasoningEffort, "effort", "", "reasoning effort (low, medium, high)")
	analyzeCmd.Flags().BoolVar(&noSubmit, "no-submit", false, "skip metrics API submission")
	analyzeCmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip LLM analysis")

	aggregateCmd.Flags().StringVar(&period1Start, "period1-start", "", "baseline period start (YYYY-MM-DD)")
	aggregateCmd.Flags().StringVar(&period1End, "period1-end", "", "baseline period end (YYYY-MM-DD)")
	aggregateCmd.Flags().StringVar(&period2Start, "period2-start", "", "comparison period start (YYYY-MM-DD)")
	aggregateCmd.Flags().StringVar(&period2End, "period2-end", "", "comparison period end (YYYY-MM-DD)")
	aggregateCmd.Flags().StringVar(&version1, "version1", "v1.0.0", "baseline version label")
	aggregateCmd.Flags().StringVar(&version2, "version2", "v2.0.0", "comparison version label")
	aggregateCmd.Flags().StringVar(&projectName, "project", "", "project name for payload metadata")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return log
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	}
}

func getOrchestrator(cfg *config.Config, log *logrus.Logger) (analyzer.Orchestrator, error) {
	metricsClient := metricsapi.NewClient(cfg.MetricsAPIURL, cfg.MetricsAPIKey, cfg.RequestTimeout, log)
	llmClient := llm.NewDisabled()
	if cfg.EnableLLMAnalysis {
		var err error
		llmClient, err = llm.NewClient(llm.Options{
			BaseURL:  cfg.LLMBaseURL,
			APIKey:   cfg.LLMAPIKey,
			FolderID: cfg.LLMFolderID,
			Model:    cfg.LLMModel,
			Timeout:  cfg.RequestTimeout,
			Logger:   log,
		})
		if err != nil {
			metricsClient.Close()
			return nil, err
		}
	}
	return analyzer.New(metricsClient, llmClient, analyzer.Options{
		DefaultReasoningEffort: domain.ReasoningEffort(cfg.DefaultReasoningEffort),
		HealthTimeout:          cfg.HealthTimeout,
	}, log), nil
}

func loadPayload(path string) (*domain.MetricsPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	var payload domain.MetricsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}
	return &payload, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	loader := storage.NewLoader(store, newLogger())
	ctx := context.Background()

	visits, err := loader.LoadVisitsCSV(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load visits: %w", err)
	}
	fmt.Printf("Loaded %d visits\n", visits)

	hits, err := loader.LoadHitsCSV(ctx, args[1])
	if err != nil {
		return fmt.Errorf("failed to load hits: %w", err)
	}
	fmt.Printf("Loaded %d hits\n", hits)

	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	payload, err := loadPayload(args[0])
	if err != nil {
		return err
	}

	orch, err := getOrchestrator(cfg, newLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %w", err)
	}
	defer orch.Close()

	result, err := orch.AnalyzeAndSubmit(context.Background(), domain.AnalysisRequest{
		Payload:         *payload,
		SubmitToAPI:     cfg.EnableAPISubmission && !noSubmit,
		AnalyzeWithLLM:  cfg.EnableLLMAnalysis && !noLLM,
		FocusAreas:      focusAreas,
		ReasoningEffort: domain.ReasoningEffort(reasoningEffort),
	})
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(result)
	}

	fmt.Printf("Analysis %s\n", result.ID)
	fmt.Printf("Project:  %s\n", result.Project)
	if len(result.Releases) == 2 {
		fmt.Printf("Releases: %s -> %s\n", result.Releases[0], result.Releases[1])
	}
	fmt.Printf("Success:  %v\n", result.Success)

	if !result.Validation.Passed {
		fmt.Println("\nValidation errors:")
		for _, e := range result.Validation.Errors {
			fmt.Printf("  - %s\n", e)
		}
		return nil
	}
	for _, w := range result.Validation.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	if result.Submission != nil {
		if result.Submission.Success {
			fmt.Printf("\nSubmission: ok (status %d)\n", result.Submission.StatusCode)
		} else {
			fmt.Printf("\nSubmission: failed: %s\n", result.Submission.ErrorDetail)
		}
	}

	if result.LLMAnalysis != nil {
		if result.LLMAnalysis.Success {
			fmt.Printf("\n%s\n", result.LLMAnalysis.Analysis)
		} else {
			fmt.Printf("\nLLM analysis failed: %s\n", result.LLMAnalysis.ErrorDetail)
		}
	}

	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	payload, err := loadPayload(args[0])
	if err != nil {
		return err
	}

	result, err := analyzer.CompareReleases(payload)
	if err != nil {
		return err
	}

	if outputJSON {
		return printJSON(result)
	}

	fmt.Printf("Comparing %s -> %s\n\n", result.OldVersion, result.NewVersion)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Before", "After", "Change", "Change %"})
	for _, d := range result.Deltas {
		changePct := "n/a"
		if d.ChangePct != nil {
			changePct = fmt.Sprintf("%+.1f%%", *d.ChangePct)
		}
		table.Append([]string{
			d.Field,
			fmt.Sprintf("%g", d.Before),
			fmt.Sprintf("%g", d.After),
			fmt.Sprintf("%+g", d.Change),
			changePct,
		})
	}
	table.Render()

	if len(result.NavigationSignals) > 0 {
		fmt.Println("\nNavigation signals (by magnitude of change):")
		for _, s := range result.NavigationSignals {
			fmt.Printf("  %-26s %g -> %g (%+g)\n", s.Name, s.Before, s.After, s.Change)
		}
	}

	fmt.Printf("\nConcern level: %s\n", result.ConcernLevel)
	for _, c := range result.Concerns {
		fmt.Printf("  - %s\n", c)
	}

	return nil
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	req := aggregator.AggregateRequest{
		ProjectName: projectName,
		Version1:    version1,
		Version2:    version2,
	}
	if req.Period1Start, err = parseDateFlag("period1-start", period1Start); err != nil {
		return err
	}
	if req.Period1End, err = parseDateFlag("period1-end", period1End); err != nil {
		return err
	}
	if req.Period2Start, err = parseDateFlag("period2-start", period2Start); err != nil {
		return err
	}
	if req.Period2End, err = parseDateFlag("period2-end", period2End); err != nil {
		return err
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	agg := aggregator.NewAggregator(store, newLogger())
	payload, err := agg.AggregateForPeriods(context.Background(), req)
	if err != nil {
		return err
	}

	return printJSON(payload)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	orch, err := getOrchestrator(cfg, newLogger())
	if err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %w", err)
	}
	defer orch.Close()

	health := orch.HealthCheck(context.Background())

	if outputJSON {
		return printJSON(health)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Service", "Healthy"})
	table.Append([]string{"metrics_api", fmt.Sprintf("%v", health.MetricsAPI)})
	table.Append([]string{"llm_api", fmt.Sprintf("%v", health.LLMAPI)})
	table.Append([]string{"overall", fmt.Sprintf("%v", health.Overall)})
	table.Render()

	if !health.Overall {
		os.Exit(1)
	}
	return nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--%s is required", name)
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: invalid date %q", name, value)
	}
	return t.UTC(), nil
}
