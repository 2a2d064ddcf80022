package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-screener/internal/config"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/export"
	"github.com/jonathan/resume-screener/internal/matching"
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/jonathan/resume-screener/internal/types"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score and rank a candidate pool against a job profile",
	Long: "Runs a match session over every candidate in the pool, ranks them by overall score and prints the top " +
		"candidates. Malformed candidates are reported as failures without stopping the session.",
	RunE: runMatch,
}

var (
	matchJob        string
	matchCandidates string
	matchOutput     string
	matchCSV        string
	matchReport     string
	matchPersist    bool
	matchNoBias     bool
)

func init() {
	matchCmd.Flags().StringVarP(&matchJob, "job", "j", "", "Path to job profile JSON file (required)")
	matchCmd.Flags().StringVarP(&matchCandidates, "candidates", "c", "", "Path to candidate pool JSON file (required)")
	matchCmd.Flags().StringVarP(&matchOutput, "out", "o", "", "Path to write ranked results JSON")
	matchCmd.Flags().StringVar(&matchCSV, "csv", "", "Path to write the CSV export")
	matchCmd.Flags().StringVar(&matchReport, "report", "", "Path to write the JSON report")
	matchCmd.Flags().BoolVar(&matchPersist, "persist", false, "Store profiles, session and results in the configured database")
	matchCmd.Flags().BoolVar(&matchNoBias, "no-bias-check", false, "Do not flag candidates with high upstream bias risk")

	if err := matchCmd.MarkFlagRequired("job"); err != nil {
		panic(fmt.Sprintf("failed to mark job flag as required: %v", err))
	}
	if err := matchCmd.MarkFlagRequired("candidates"); err != nil {
		panic(fmt.Sprintf("failed to mark candidates flag as required: %v", err))
	}

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job, err := loadJob(matchJob)
	if err != nil {
		return err
	}
	candidates, errs, err := loadCandidates(matchCandidates)
	if err != nil {
		return err
	}
	for i, e := range errs {
		if e != nil {
			log.Warn("candidate will be recorded as failed", zap.Int("index", i), zap.Error(e))
		}
	}

	cfg := appConfig.Scoring
	if matchNoBias {
		cfg.BiasCheck = false
	}

	opts := []matching.RunnerOption{
		matching.WithLogger(log),
		matching.WithConcurrency(cfg.Concurrency),
	}
	if matchPersist {
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		saveProfiles(ctx, store, job, candidates)
		opts = append(opts, matching.WithSink(matching.NewBreakerSink(store, matching.DefaultBreakerSettings(), log)))
	}

	session := matching.NewSession(job, cfg, len(candidates))
	if err := matching.NewRunner(nil, opts...).Run(ctx, session, candidates); err != nil {
		observability.NewPrinter(cmd.OutOrStdout()).PrintSession(session.Snapshot(), nil)
		return fmt.Errorf("match session failed: %w", err)
	}

	snap := session.Snapshot()
	ranked := session.Results()
	failures := session.Failures()
	observability.NewPrinter(cmd.OutOrStdout()).PrintSession(snap, ranked)

	all := append(ranked, failures...)
	if matchOutput != "" {
		data, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		if err := writeOutput(matchOutput, func(f *os.File) error {
			_, err := f.Write(data)
			return err
		}); err != nil {
			return err
		}
	}
	if matchCSV != "" {
		records := export.Records(all, candidates)
		dimensions := make([]string, 0, len(cfg.Weights))
		for name := range cfg.Weights {
			dimensions = append(dimensions, name)
		}
		if err := writeOutput(matchCSV, func(f *os.File) error { return export.WriteCSV(f, records, dimensions...) }); err != nil {
			return err
		}
	}
	if matchReport != "" {
		report := export.BuildReport(snap, all, time.Now())
		if err := writeOutput(matchReport, func(f *os.File) error { return export.WriteJSON(f, report) }); err != nil {
			return err
		}
	}

	log.Info("match session completed",
		zap.String("session_id", snap.ID),
		zap.Int("ranked", len(ranked)),
		zap.Int("failed", snap.FailedCandidates))
	return nil
}

// openStore connects to the configured database
func openStore(ctx context.Context) (*db.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, fmt.Errorf("database url is required (set database.url or %s_DATABASE_URL)", config.EnvPrefix)
	}
	store, err := db.Connect(ctx, appConfig.Database.URL, db.Options{MaxConns: appConfig.Database.MaxConns})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// saveProfiles stores the job and every parsed candidate. Failures are logged; scoring does not depend on them.
func saveProfiles(ctx context.Context, store *db.DB, job *types.JobProfile, candidates []*types.CandidateProfile) {
	if err := store.SaveJob(ctx, job); err != nil {
		log.Warn("failed to store job profile", zap.String("job_id", job.ID), zap.Error(err))
	}
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if err := store.SaveCandidate(ctx, c); err != nil {
			log.Warn("failed to store candidate profile", zap.String("candidate_id", c.ID), zap.Error(err))
		}
	}
}

// writeOutput creates path, including its directory, and hands the file to write
func writeOutput(path string, write func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file %s: %w", path, err)
	}
	return nil
}
