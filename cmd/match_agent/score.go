package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-screener/internal/matching"
	"github.com/jonathan/resume-screener/internal/observability"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single candidate against a job profile",
	Long:  "Computes every configured dimension for one candidate and prints the weighted breakdown and notes.",
	RunE:  runScore,
}

var (
	scoreJob       string
	scoreCandidate string
	scoreJSON      bool
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreJob, "job", "j", "", "Path to job profile JSON file (required)")
	scoreCmd.Flags().StringVarP(&scoreCandidate, "candidate", "c", "", "Path to candidate profile JSON file (required)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print the match result as JSON")

	if err := scoreCmd.MarkFlagRequired("job"); err != nil {
		panic(fmt.Sprintf("failed to mark job flag as required: %v", err))
	}
	if err := scoreCmd.MarkFlagRequired("candidate"); err != nil {
		panic(fmt.Sprintf("failed to mark candidate flag as required: %v", err))
	}

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	job, err := loadJob(scoreJob)
	if err != nil {
		return err
	}
	candidate, err := loadCandidate(scoreCandidate)
	if err != nil {
		return err
	}

	cfg := appConfig.Scoring
	engine := matching.NewEngine(nil)
	if err := engine.ValidateConfig(cfg); err != nil {
		return err
	}
	if err := engine.ValidateJob(job, cfg); err != nil {
		return err
	}

	result, err := engine.ScoreCandidate("", 0, candidate, job, cfg)
	if err != nil {
		return fmt.Errorf("failed to score candidate %s: %w", candidate.ID, err)
	}
	result.Rank = 1

	if scoreJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if appConfig.Log.Debug {
		printer.PrintJobProfile(job)
	}
	printer.PrintMatchResult(result)
	return nil
}
