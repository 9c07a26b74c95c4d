package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/feichai0017/document-summarizer/cmd/docsum/ui"
	"github.com/feichai0017/document-summarizer/internal/app"
	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/converters"
)

var remoteSchemes = map[string]bool{"http": true, "https": true, "s3": true, "minio": true}

func newSummarizeCmd() *cobra.Command {
	var (
		name       string
		asJSON     bool
		noProgress bool
	)
	cmd := &cobra.Command{
		Use:   "summarize <path|url>",
		Short: "Summarize a local file or a remote document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseReference(args[0], name)
			if err != nil {
				return err
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			defer log.Sync()
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Controller.Shutdown(context.Background())

			job, err := a.Controller.Run(ref)
			if err != nil {
				return err
			}

			if !noProgress && !asJSON {
				bar := ui.NewStageBar(cmd.ErrOrStderr())
				unsubscribe, err := a.Controller.Subscribe(job.ID, bar.Update)
				if err != nil {
					return err
				}
				defer unsubscribe()
			}

			// Ctrl-C cancels the job; Wait still returns its final snapshot.
			go func() {
				<-ctx.Done()
				_ = a.Controller.Cancel(job.ID)
			}()
			final, err := a.Controller.Wait(context.Background(), job.ID)
			if err != nil {
				return err
			}
			return report(cmd, final, asJSON)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "declared file name used for format detection")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the job as JSON")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "hide the progress bar")
	return cmd
}

// parseReference treats http(s), s3 and minio URLs as remote and anything
// else as a local path.
func parseReference(arg, name string) (models.DocumentReference, error) {
	if u, err := url.Parse(arg); err == nil && remoteSchemes[u.Scheme] && u.Host != "" {
		if name == "" {
			name = path.Base(u.Path)
		}
		return models.NewRemoteReference(arg, name), nil
	}
	ref, err := models.NewLocalReference(arg, name)
	if err != nil {
		return models.DocumentReference{}, fmt.Errorf("cannot open %s: %w", arg, err)
	}
	return ref, nil
}

func report(cmd *cobra.Command, job models.JobSnapshot, asJSON bool) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(converters.NewJSONConverter().Convert(job)); err != nil {
			return err
		}
	}

	switch job.State {
	case models.JobCompleted:
		if !asJSON {
			if job.Extraction != nil {
				for _, w := range job.Extraction.Warnings {
					ui.Warning(errOut, "%s", w)
				}
				if job.Extraction.UsedFallback {
					ui.Info(errOut, "text recognized with OCR")
				}
			}
			fmt.Fprintln(out, job.Summary.Bullets)
		}
		return nil
	case models.JobCancelled:
		ui.Error(errOut, "%s", models.UserMessage(job.Err))
		return &exitError{code: 130, err: errors.New("cancelled")}
	default:
		ui.Error(errOut, "%s", models.UserMessage(job.Err))
		return &exitError{code: 1, err: job.Err}
	}
}
