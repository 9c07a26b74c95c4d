package models

import (
	"time"
)

// JobState is the single state machine of a pipeline job.
type JobState string

const (
	JobIdle           JobState = "idle"
	JobFetching       JobState = "fetching"
	JobExtracting     JobState = "extracting"
	JobOcrRecognizing JobState = "ocr_recognizing"
	JobSummarizing    JobState = "summarizing"
	JobCompleted      JobState = "completed"
	JobFailed         JobState = "failed"
	JobCancelled      JobState = "cancelled"
)

// Terminal reports whether no further transition can happen.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// Stage is the pipeline step a progress event belongs to.
type Stage string

const (
	StageFetching       Stage = "fetching"
	StageExtracting     Stage = "extracting"
	StageOcrRecognizing Stage = "ocr_recognizing"
	StageSummarizing    Stage = "summarizing"
)

// State maps a stage to the job state it runs in.
func (s Stage) State() JobState {
	switch s {
	case StageFetching:
		return JobFetching
	case StageExtracting:
		return JobExtracting
	case StageOcrRecognizing:
		return JobOcrRecognizing
	case StageSummarizing:
		return JobSummarizing
	}
	return JobIdle
}

// PercentIndeterminate marks a progress event without a measurable percentage.
const PercentIndeterminate = -1

type ProgressEvent struct {
	Stage   Stage  `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message,omitempty"`
}

// ProgressFunc receives progress events. Implementations must not block.
type ProgressFunc func(ProgressEvent)

// Emit calls fn when it is set.
func (fn ProgressFunc) Emit(stage Stage, percent int, message string) {
	if fn != nil {
		fn(ProgressEvent{Stage: stage, Percent: percent, Message: message})
	}
}

// JobSnapshot is an immutable copy of a job, safe to hand to callers.
type JobSnapshot struct {
	ID           string            `json:"id"`
	Fingerprint  string            `json:"fingerprint"`
	DeclaredName string            `json:"declaredName"`
	State        JobState          `json:"state"`
	Progress     *ProgressEvent    `json:"progress,omitempty"`
	Summary      *SummaryResult    `json:"summary,omitempty"`
	Extraction   *ExtractionResult `json:"-"`
	Err          error             `json:"-"`
	ErrorKind    ErrorKind         `json:"errorKind,omitempty"`
	CacheHit     bool              `json:"cacheHit"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}
