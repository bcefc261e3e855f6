package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jdoyin/textmill/internal/chunker"
	"github.com/jdoyin/textmill/internal/common"
	"github.com/jdoyin/textmill/internal/console"
	"github.com/jdoyin/textmill/internal/job"
	"github.com/jdoyin/textmill/internal/store"
)

const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitNotFound = 3
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		in      = flag.String("in", "", "input text file to chunk (required)")
		size    = flag.Int("size", 0, "chunk size in characters (default: CHUNK_SIZE env or 2000)")
		jobPath = flag.String("job", "", "job artifact path (default: <input stem>_chunked.json; use a .db suffix for the sqlite store)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *in == "" {
		printError("Error: -in is required\n")
		flag.Usage()
		os.Exit(exitUsage)
	}

	common.LoadEnvFile()
	cfg := common.LoadConfig()
	if *size <= 0 {
		*size = cfg.Chunk.Size
	}
	if *size < 1 {
		printError("Error: chunk size must be at least 1\n")
		os.Exit(exitError)
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		if os.IsNotExist(err) {
			printError("Error: input file %q not found\n", *in)
			os.Exit(exitNotFound)
		}
		logger.Error("failed to read input file", "file", *in, "error", err)
		os.Exit(exitError)
	}

	parts, err := chunker.Split(string(raw), *size)
	if err != nil {
		logger.Error("failed to chunk input", "file", *in, "error", err)
		os.Exit(exitError)
	}

	stem := strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))
	if *jobPath == "" {
		*jobPath = stem + "_chunked.json"
	}

	st, err := store.Open(*jobPath, logger)
	if err != nil {
		logger.Error("failed to open job store", "artifact", *jobPath, "error", err)
		os.Exit(exitError)
	}
	defer st.Close()

	j := job.New(stem, parts, *size)
	if err := st.Create(context.Background(), j); err != nil {
		logger.Error("failed to create job", "artifact", *jobPath, "error", err)
		os.Exit(exitError)
	}

	fmt.Println(console.Success(fmt.Sprintf("Created %s", *jobPath)))
	fmt.Printf("Total chunks: %d\n", len(parts))
	fmt.Printf("Chunk size: %d characters\n", *size)
	os.Exit(exitOK)
}
