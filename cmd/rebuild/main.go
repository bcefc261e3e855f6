package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jdoyin/textmill/internal/common"
	"github.com/jdoyin/textmill/internal/console"
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
		jobPath = flag.String("job", "", "job artifact to rebuild from (required)")
		out     = flag.String("out", "", "output file (default: <stem>_final.txt)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *jobPath == "" {
		printError("Error: -job is required\n")
		flag.Usage()
		os.Exit(exitUsage)
	}

	if _, err := os.Stat(*jobPath); err != nil {
		printError("Error: job artifact %q not found\n", *jobPath)
		os.Exit(exitNotFound)
	}

	st, err := store.Open(*jobPath, logger)
	if err != nil {
		logger.Error("failed to open job store", "artifact", *jobPath, "error", err)
		os.Exit(exitError)
	}
	defer st.Close()

	j, err := st.Load(context.Background())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			printError("Error: no job found in %q\n", *jobPath)
			os.Exit(exitNotFound)
		}
		logger.Error("failed to load job", "artifact", *jobPath, "error", err)
		os.Exit(exitError)
	}

	res, err := pipeline.Rebuild(j)
	fmt.Println(console.GapReport(res, len(j.Chunks)))
	if err != nil {
		if errors.Is(err, pipeline.ErrNothingToRebuild) {
			printError("Error: no completed chunks found, nothing to rebuild\n")
			os.Exit(exitNothingTo)
		}
		logger.Error("rebuild failed", "artifact", *jobPath, "error", err)
		os.Exit(exitError)
	}

	if *out == "" {
		stem := strings.TrimSuffix(filepath.Base(*jobPath), filepath.Ext(*jobPath))
		stem = strings.TrimSuffix(stem, "_chunked")
		*out = stem + "_final.txt"
	}

	if err := os.WriteFile(*out, []byte(res.Output), 0644); err != nil {
		logger.Error("failed to write output file", "file", *out, "error", err)
		os.Exit(exitError)
	}

	fmt.Println(console.Success(fmt.Sprintf("Rebuilt %d chunks into %s", res.DoneCount, *out)))
	fmt.Printf("Output size: %.1f KB (%d bytes)\n", float64(len(res.Output))/1024, len(res.Output))
	if !res.Complete() {
		fmt.Println(console.Warn(fmt.Sprintf(
			"Note: output is incomplete, missing %d chunk(s)", res.Missing())))
	}
	os.Exit(exitOK)
}
