package converters

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-summarizer/internal/models"
)

func TestConvertCompletedJob(t *testing.T) {
	now := time.Now()
	view := NewJSONConverter().Convert(models.JobSnapshot{
		ID:           "job-1",
		DeclaredName: "scan.pdf",
		State:        models.JobCompleted,
		Progress:     &models.ProgressEvent{Stage: models.StageSummarizing, Percent: 100},
		Summary:      &models.SummaryResult{Bullets: "- a\n- b"},
		Extraction: &models.ExtractionResult{
			FullText:     "héllo",
			PageCount:    2,
			UsedFallback: true,
			Strategy:     models.StrategyOcr,
		},
		CreatedAt: now,
		UpdatedAt: now,
	})

	assert.Equal(t, "completed", view.Status)
	assert.Equal(t, "- a\n- b", view.Summary)
	require.NotNil(t, view.Extraction)
	assert.Equal(t, 5, view.Extraction.Characters)
	assert.True(t, view.Extraction.UsedFallback)
	require.NotNil(t, view.Progress.Percent)
	assert.Equal(t, 100, *view.Progress.Percent)
	assert.Nil(t, view.Error)
}

func TestConvertFailedAndCancelledJobs(t *testing.T) {
	failed := NewJSONConverter().Convert(models.JobSnapshot{
		ID:    "job-2",
		State: models.JobFailed,
		Err:   models.SummarizationAPIError(500, "oops").WithStage(models.StageSummarizing),
	})
	require.NotNil(t, failed.Error)
	assert.Equal(t, "summarization_api_error", failed.Error.Kind)
	assert.Equal(t, 500, failed.Error.Status)
	assert.Contains(t, failed.Error.Message, "500")

	cancelled := NewJSONConverter().Convert(models.JobSnapshot{
		ID:    "job-3",
		State: models.JobCancelled,
		Err:   models.Cancelled(nil),
	})
	assert.Nil(t, cancelled.Error)

	data, err := json.Marshal(cancelled)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"error"`)
}

func TestConvertIndeterminateProgress(t *testing.T) {
	pv := ConvertProgress(models.ProgressEvent{Stage: models.StageFetching, Percent: models.PercentIndeterminate})
	assert.Nil(t, pv.Percent)
	assert.Equal(t, "fetching", pv.Stage)
}
