// Package main provides the match_agent CLI for scoring candidates against jobs and serving the match API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jonathan/resume-screener/internal/config"
	"github.com/jonathan/resume-screener/internal/logger"
)

var (
	configPath string
	debugLog   bool
	jsonLog    bool

	// set by the root command before any subcommand runs
	appConfig *config.Config
	loader    *config.Loader
	log       *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "match_agent",
	Short: "Candidate to job matching engine",
	Long: "match_agent scores structured candidate profiles against a job profile across skills, experience, " +
		"education and semantic similarity, ranks the pool, and exports explainable results.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ./screener.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugLog, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "log-json", false, "Write logs as JSON")
}

// loadConfig reads configuration with flag and environment overrides and builds the logger
func loadConfig(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	bindings := map[string]string{
		"log.debug":   "debug",
		"log.json":    "log-json",
		"server.addr": "addr",
	}
	for key, name := range bindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	loader = config.NewLoader(v)
	cfg, err := loader.Load(configPath)
	if err != nil {
		return err
	}
	appConfig = cfg

	l, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	log = l
	if file := loader.File(); file != "" {
		log.Debug("loaded config", zap.String("file", file))
	}
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
