package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gradebatch/internal/shared/config"
	"gradebatch/internal/shared/keystore"
	"gradebatch/internal/shared/telemetry"
)

var (
	cfg    config.Config
	store  *keystore.Store
	logger zerolog.Logger

	pretty    bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "grader",
	Short: "Batch-grade student submissions with an AI model",
	Long: "grader uploads nothing and stores nothing remotely: it extracts text from\n" +
		"local submissions (PDF, notebook, plain text), asks a generative model to\n" +
		"score each one against your assignment spec and rubric, and writes a CSV\n" +
		"report. Requests run in small concurrent batches with backoff and cooldowns\n" +
		"to stay inside provider rate limits.",
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
}

func initApp(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(); err != nil {
		return err
	}
	logger = telemetry.NewLogger(pretty)
	store, err = keystore.Open(configDir)
	return err
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "human-readable log output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory holding the stored key and policy (default ~/.grader)")

	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(configCmd)
}
