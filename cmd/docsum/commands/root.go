// Package commands implements the docsum command line.
package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/feichai0017/document-summarizer/config"
	"github.com/feichai0017/document-summarizer/pkg/logger"
)

var (
	cfgFile string
	verbose bool
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docsum",
		Short: "Summarize documents into a few bullet points",
		Long: `docsum extracts the text of a .txt, .docx or .pdf document, falling back to
OCR for scanned PDFs, and asks the summarization service for 4-6 bullet points.
Documents can be local files or http(s), s3:// and minio:// URLs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline activity to stderr")

	root.AddCommand(newSummarizeCmd(), newDetectCmd())
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		root.PrintErrln("Error:", err)
		return 1
	}
	return 0
}

func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logger.NewLogger(
		logger.FromConfig(cfg.Log),
		logger.WithLevel(level),
		logger.WithEncoding("console"),
		logger.WithOutputPaths([]string{"stderr"}),
	)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
