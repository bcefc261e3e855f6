package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jdoyin/textmill/internal/common"
	"github.com/jdoyin/textmill/internal/console"
	"github.com/jdoyin/textmill/internal/llm/openai"
	"github.com/jdoyin/textmill/internal/pipeline"
	"github.com/jdoyin/textmill/internal/store"
)

const (
	exitOK        = 0
	exitError     = 1
	exitUsage     = 2
	exitNotFound  = 3
	exitNothingTo = 4
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		jobPath = flag.String("job", "", "job artifact to process (required)")
		prompt  = flag.String("prompt", "", "prompt template with a {text} placeholder (required)")
		model   = flag.String("model", "", "model override (default: OPENAI_MODEL env)")
		maxAtt  = flag.Int("max-attempts", -1, "retry cap per chunk, 0 for unlimited (default: MAX_ATTEMPTS env)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *jobPath == "" || *prompt == "" {
		printError("Error: -job and -prompt are required\n")
		flag.Usage()
		os.Exit(exitUsage)
	}

	common.LoadEnvFile()
	cfg := common.LoadConfig()
	if *model != "" {
		cfg.LLM.Model = *model
	}
	if *maxAtt >= 0 {
		cfg.Run.MaxAttempts = *maxAtt
	}
	if err := cfg.Validate(); err != nil {
		printError("%s\n", console.Error(fmt.Sprintf("Error: %v", err)))
		os.Exit(exitError)
	}

	if _, err := os.Stat(*jobPath); err != nil {
		printError("%s\n", console.Error(fmt.Sprintf("Error: job artifact %q not found", *jobPath)))
		os.Exit(exitNotFound)
	}

	st, err := store.Open(*jobPath, logger)
	if err != nil {
		logger.Error("failed to open job store", "artifact", *jobPath, "error", err)
		os.Exit(exitError)
	}
	defer st.Close()

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	logger.Info("completion client ready", "model", cfg.LLM.Model)

	runner := pipeline.NewRunner(st, client, pipeline.Config{
		PromptTemplate: *prompt,
		MaxAttempts:    cfg.Run.MaxAttempts,
	}, logger)
	runner.OnProgress = func(o pipeline.Observation) {
		fmt.Println(console.ProgressLine(o))
	}

	sum, err := runner.Run(context.Background())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			printError("Error: no job found in %q\n", *jobPath)
			os.Exit(exitNotFound)
		}
		if errors.Is(err, common.ErrInvalidInput) {
			printError("Error: %v\n", err)
			os.Exit(exitError)
		}
		logger.Error("processing run failed", "artifact", *jobPath, "error", err)
		os.Exit(exitError)
	}

	if sum.NothingToDo {
		fmt.Println(console.Success("All chunks already processed, nothing to do"))
		if len(sum.Exhausted) > 0 {
			fmt.Println(console.Warn(fmt.Sprintf(
				"%d chunk(s) remain incomplete but reached the attempt cap", len(sum.Exhausted))))
		}
		os.Exit(exitNothingTo)
	}

	fmt.Println(console.Summary(sum))
	if sum.Failed > 0 {
		fmt.Println(console.Warn("Some chunks failed; run again to retry them"))
	}
	os.Exit(exitOK)
}
