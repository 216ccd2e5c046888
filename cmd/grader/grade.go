package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gradebatch/internal/grading"
	llmopenai "gradebatch/internal/llm/openai"
	"gradebatch/internal/report"
	"gradebatch/internal/shared/metrics"
	"gradebatch/internal/shared/util"
)

var (
	assignmentPath string
	rubricPath     string
	policyPath     string
	outPath        string
	batchSize      int
	maxRetries     int
	cooldownMs     int
	showMetrics    bool
)

var gradeCmd = &cobra.Command{
	Use:   "grade [submission files...]",
	Short: "Grade submissions against an assignment spec and rubric",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGrade,
}

func init() {
	gradeCmd.Flags().StringVar(&assignmentPath, "assignment", "", "assignment specification file (pdf, ipynb or text)")
	gradeCmd.Flags().StringVar(&rubricPath, "rubric", "", "rubric file (pdf, ipynb or text)")
	gradeCmd.Flags().StringVar(&policyPath, "policy-file", "", "grading policy text file (overrides the stored policy)")
	gradeCmd.Flags().StringVar(&outPath, "out", "", "CSV report path (default derived from the assignment filename)")
	gradeCmd.Flags().IntVar(&batchSize, "batch-size", 0, "submissions graded concurrently per batch (default from config)")
	gradeCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "grading attempts per submission (default from config)")
	gradeCmd.Flags().IntVar(&cooldownMs, "cooldown-ms", -1, "pause between batches in milliseconds (default from config)")
	gradeCmd.Flags().BoolVar(&showMetrics, "metrics", false, "print run metrics after completion")

	_ = gradeCmd.MarkFlagRequired("assignment")
	_ = gradeCmd.MarkFlagRequired("rubric")
}

func runGrade(cmd *cobra.Command, args []string) error {
	apiKey := store.APIKey()
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return errors.New("no api key configured; run `grader config set-key` or set OPENAI_API_KEY")
	}

	policy := store.Policy()
	if policyPath != "" {
		data, err := os.ReadFile(policyPath)
		if err != nil {
			return fmt.Errorf("read policy file: %w", err)
		}
		policy = string(data)
	}
	if strings.TrimSpace(policy) == "" {
		return errors.New("no grading policy configured; run `grader config set-policy` or pass --policy-file")
	}

	assignment, err := readSubmission(assignmentPath)
	if err != nil {
		return err
	}
	rubric, err := readSubmission(rubricPath)
	if err != nil {
		return err
	}
	submissions := make([]grading.Submission, 0, len(args))
	for _, path := range args {
		sub, err := readSubmission(path)
		if err != nil {
			return err
		}
		submissions = append(submissions, sub)
	}

	model, err := llmopenai.NewClient(llmopenai.Config{
		APIKey:  apiKey,
		Model:   cfg.Model,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		return err
	}

	retries := cfg.MaxRetries
	if maxRetries > 0 {
		retries = maxRetries
	}
	opts := grading.Options{BatchSize: cfg.BatchSize, Cooldown: cfg.Cooldown}
	if batchSize > 0 {
		opts.BatchSize = batchSize
	}
	if cooldownMs >= 0 {
		opts.Cooldown = time.Duration(cooldownMs) * time.Millisecond
	}

	client := grading.NewClient(model, retries, logger)
	orch, err := grading.NewOrchestrator(client, opts, logger)
	if err != nil {
		return err
	}
	orch.OnProgress = func(p grading.Progress) {
		logger.Info().
			Int("processed", p.Processed).
			Int("total", p.Total).
			Int("ok", len(p.Results)).
			Int("failed", len(p.Failures)).
			Msg("progress")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := orch.Run(ctx, grading.RunInput{
		Assignment:  assignment,
		Rubric:      rubric,
		Policy:      policy,
		Submissions: submissions,
	})
	if err != nil && rep == nil {
		return err
	}
	interrupted := err != nil

	fmt.Println(renderSummary(rep))

	out, err := reportPath(assignment.FileName)
	if err != nil {
		return err
	}
	if len(rep.Results) > 0 {
		if err := os.WriteFile(out, []byte(report.CSV(rep.Results)), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("report written to %s\n", out)
	}

	if showMetrics {
		text, err := metrics.Render()
		if err != nil {
			return err
		}
		fmt.Print(text)
	}

	if interrupted {
		return errors.New("run interrupted; report contains completed batches only")
	}
	return nil
}

func readSubmission(path string) (grading.Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return grading.Submission{}, fmt.Errorf("read %s: %w", path, err)
	}
	return grading.Submission{
		FileName:  filepath.Base(path),
		MediaType: mime.TypeByExtension(filepath.Ext(path)),
		Data:      data,
	}, nil
}

// reportPath resolves the CSV destination: the --out flag as given, or a
// name derived from the assignment filename next to the working directory.
func reportPath(assignmentName string) (string, error) {
	if outPath != "" {
		return outPath, nil
	}
	base := strings.TrimSuffix(assignmentName, filepath.Ext(assignmentName))
	name, err := util.SanitizeFileName("grades-" + base + ".csv")
	if err != nil {
		return "", fmt.Errorf("derive report name: %w", err)
	}
	return name, nil
}
