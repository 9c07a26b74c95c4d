// Package ui renders pipeline progress for the docsum CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/feichai0017/document-summarizer/internal/models"
)

var stageLabels = map[models.Stage]string{
	models.StageFetching:       "Fetching",
	models.StageExtracting:     "Extracting",
	models.StageOcrRecognizing: "Recognizing text",
	models.StageSummarizing:    "Summarizing",
}

// StageBar shows one progress bar that restarts at every pipeline stage.
type StageBar struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	stage models.Stage
}

func NewStageBar(w io.Writer) *StageBar {
	if w == nil {
		w = os.Stderr
	}
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Waiting"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
	return &StageBar{bar: bar}
}

// Update is a pipeline listener.
func (s *StageBar) Update(job models.JobSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.State.Terminal() {
		_ = s.bar.Finish()
		return
	}
	ev := job.Progress
	if ev == nil {
		return
	}
	if ev.Stage != s.stage {
		s.stage = ev.Stage
		s.bar.Reset()
		s.bar.Describe(stageLabels[ev.Stage])
	}
	if ev.Percent != models.PercentIndeterminate {
		_ = s.bar.Set(ev.Percent)
	}
}

func (s *StageBar) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.bar.Finish()
}

func Error(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

func Warning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

func Info(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "ℹ %s\n", fmt.Sprintf(format, args...))
}
