package converters

import (
	"time"

	"github.com/feichai0017/document-summarizer/internal/models"
)

// JobView is the JSON shape of a job served to API and CLI clients.
type JobView struct {
	JobID        string          `json:"jobId"`
	DeclaredName string          `json:"declaredName"`
	Status       string          `json:"status"`
	Progress     *ProgressView   `json:"progress,omitempty"`
	Summary      string          `json:"summary,omitempty"`
	Extraction   *ExtractionView `json:"extraction,omitempty"`
	Error        *ErrorView      `json:"error,omitempty"`
	CacheHit     bool            `json:"cacheHit"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type ProgressView struct {
	Stage   string `json:"stage"`
	Percent *int   `json:"percent,omitempty"` // nil while indeterminate
	Message string `json:"message,omitempty"`
}

type ExtractionView struct {
	Strategy     string   `json:"strategy"`
	PageCount    int      `json:"pageCount"`
	Characters   int      `json:"characters"`
	UsedFallback bool     `json:"usedFallback"`
	Warnings     []string `json:"warnings,omitempty"`
}

type ErrorView struct {
	Kind    string `json:"kind"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// JSONConverter turns job snapshots into views.
type JSONConverter struct{}

func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

func (c *JSONConverter) Convert(job models.JobSnapshot) *JobView {
	view := &JobView{
		JobID:        job.ID,
		DeclaredName: job.DeclaredName,
		Status:       string(job.State),
		CacheHit:     job.CacheHit,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
	if job.Progress != nil {
		view.Progress = ConvertProgress(*job.Progress)
	}
	if job.Summary != nil {
		view.Summary = job.Summary.Bullets
	}
	if ex := job.Extraction; ex != nil {
		view.Extraction = &ExtractionView{
			Strategy:     string(ex.Strategy),
			PageCount:    ex.PageCount,
			Characters:   len([]rune(ex.FullText)),
			UsedFallback: ex.UsedFallback,
			Warnings:     ex.Warnings,
		}
	}
	// cancellation is a state, not an error
	if job.State == models.JobFailed && job.Err != nil {
		view.Error = &ErrorView{
			Kind:    string(models.KindOf(job.Err)),
			Status:  models.StatusOf(job.Err),
			Message: models.UserMessage(job.Err),
			Detail:  job.Err.Error(),
		}
	}
	return view
}

func ConvertProgress(ev models.ProgressEvent) *ProgressView {
	pv := &ProgressView{Stage: string(ev.Stage), Message: ev.Message}
	if ev.Percent != models.PercentIndeterminate {
		pct := ev.Percent
		pv.Percent = &pct
	}
	return pv
}
