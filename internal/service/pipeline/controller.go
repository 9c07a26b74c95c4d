// Package pipeline runs summarization jobs: it owns the job state machine,
// deduplicates identical requests and caches completed summaries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/document-summarizer/internal/models"
	"github.com/feichai0017/document-summarizer/pkg/logger"
	"github.com/feichai0017/document-summarizer/pkg/worker"
)

var ErrJobNotFound = errors.New("job not found")

// Extractor turns a document reference into text, reporting progress.
type Extractor interface {
	Extract(ctx context.Context, ref models.DocumentReference, onProgress models.ProgressFunc) (*models.ExtractionResult, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) (*models.SummaryResult, error)
}

// Listener receives a snapshot after every progress event or state change.
// It is called outside the controller lock and must not block for long.
type Listener func(models.JobSnapshot)

type Config struct {
	Concurrency int
}

type job struct {
	snap      models.JobSnapshot
	ref       models.DocumentReference
	cancel    context.CancelFunc
	cancelled bool
	listeners map[int]Listener
	nextID    int
	done      chan struct{}
}

type Controller struct {
	extractor  Extractor
	summarizer Summarizer
	pool       *worker.Pool
	logger     logger.Logger

	baseCtx context.Context
	stop    context.CancelFunc

	mu        sync.Mutex
	jobs      map[string]*job
	active    map[string]*job // by fingerprint, non-terminal only
	completed map[string]*job // by fingerprint
}

func NewController(cfg Config, extractor Extractor, summarizer Summarizer, log logger.Logger) *Controller {
	log = logger.OrNop(log).Named("pipeline")
	ctx, stop := context.WithCancel(context.Background())
	return &Controller{
		extractor:  extractor,
		summarizer: summarizer,
		pool:       worker.NewPool(cfg.Concurrency, log),
		logger:     log,
		baseCtx:    ctx,
		stop:       stop,
		jobs:       make(map[string]*job),
		active:     make(map[string]*job),
		completed:  make(map[string]*job),
	}
}

// Run starts a job for ref and returns immediately. A running job for the
// same fingerprint is returned as is; a completed one is served from cache.
func (c *Controller) Run(ref models.DocumentReference) (models.JobSnapshot, error) {
	fp := ref.Fingerprint()
	now := time.Now()

	c.mu.Lock()
	if j, ok := c.active[fp]; ok {
		snap := j.snap
		c.mu.Unlock()
		c.logger.Info("joined running job", logger.JobID(snap.ID), logger.String("name", ref.DeclaredName()))
		return snap, nil
	}
	if prev, ok := c.completed[fp]; ok {
		j := &job{
			snap: models.JobSnapshot{
				ID:           uuid.New().String(),
				Fingerprint:  fp,
				DeclaredName: ref.DeclaredName(),
				State:        models.JobCompleted,
				Progress:     prev.snap.Progress,
				Summary:      prev.snap.Summary,
				Extraction:   prev.snap.Extraction,
				CacheHit:     true,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			ref:  ref,
			done: make(chan struct{}),
		}
		close(j.done)
		c.jobs[j.snap.ID] = j
		snap := j.snap
		c.mu.Unlock()
		c.logger.Info("served summary from cache", logger.JobID(snap.ID), logger.String("cached_job", prev.snap.ID))
		return snap, nil
	}

	ctx, cancel := context.WithCancel(c.baseCtx)
	j := &job{
		snap: models.JobSnapshot{
			ID:           uuid.New().String(),
			Fingerprint:  fp,
			DeclaredName: ref.DeclaredName(),
			State:        models.JobIdle,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		ref:       ref,
		cancel:    cancel,
		listeners: make(map[int]Listener),
		done:      make(chan struct{}),
	}
	c.jobs[j.snap.ID] = j
	c.active[fp] = j
	snap := j.snap
	c.mu.Unlock()

	c.logger.Info("job created", logger.JobID(snap.ID), logger.String("name", ref.DeclaredName()))

	err := c.pool.Go(ctx,
		func(ctx context.Context) { c.execute(ctx, j) },
		func(err error) { c.finish(j, nil, nil, models.Cancelled(err)) },
	)
	if err != nil {
		c.finish(j, nil, nil, models.NewError(models.KindInternal, err))
		return c.snapshot(j), fmt.Errorf("failed to schedule job: %w", err)
	}
	return snap, nil
}

func (c *Controller) execute(ctx context.Context, j *job) {
	// a panic in a stage still has to reach a terminal state
	defer func() {
		if r := recover(); r != nil {
			c.finish(j, nil, nil, models.NewError(models.KindInternal, fmt.Errorf("panic: %v", r)))
			panic(r)
		}
	}()

	onProgress := func(ev models.ProgressEvent) { c.progress(j, ev) }

	extraction, err := c.extractor.Extract(ctx, j.ref, onProgress)
	if err != nil {
		c.finish(j, nil, nil, err)
		return
	}
	for _, w := range extraction.Warnings {
		c.logger.Warn("extraction warning", logger.JobID(j.snap.ID), logger.String("warning", w))
	}

	if err := models.FromContext(ctx); err != nil {
		c.finish(j, extraction, nil, err)
		return
	}
	c.progress(j, models.ProgressEvent{Stage: models.StageSummarizing, Percent: models.PercentIndeterminate, Message: "summarizing"})

	summary, err := c.summarizer.Summarize(ctx, extraction.FullText)
	if err != nil {
		var pe *models.PipelineError
		if errors.As(err, &pe) && pe.Kind != models.KindCancelled {
			err = pe.WithStage(models.StageSummarizing)
		}
		c.finish(j, extraction, nil, err)
		return
	}
	c.progress(j, models.ProgressEvent{Stage: models.StageSummarizing, Percent: 100, Message: "summary ready"})
	c.finish(j, extraction, summary, nil)
}

// progress applies ev to the job. Stages only move forward and the percent
// never decreases within a stage.
func (c *Controller) progress(j *job, ev models.ProgressEvent) {
	c.mu.Lock()
	if j.snap.State.Terminal() {
		c.mu.Unlock()
		return
	}
	prev := j.snap.Progress
	if prev != nil {
		if stageOrder[ev.Stage] < stageOrder[prev.Stage] {
			c.mu.Unlock()
			return
		}
		// an indeterminate event keeps the last known percent of its stage
		if ev.Stage == prev.Stage && ev.Percent < prev.Percent {
			ev.Percent = prev.Percent
		}
	}
	state := ev.Stage.State()
	changed := state != j.snap.State
	j.snap.State = state
	j.snap.Progress = &ev
	j.snap.UpdatedAt = time.Now()
	snap, listeners := j.snap, j.listenersLocked()
	c.mu.Unlock()

	if changed {
		c.logger.Info("job state changed", logger.JobID(snap.ID), logger.String("state", string(state)))
	}
	notify(listeners, snap)
}

var stageOrder = map[models.Stage]int{
	models.StageFetching:       1,
	models.StageExtracting:     2,
	models.StageOcrRecognizing: 3,
	models.StageSummarizing:    4,
}

func (c *Controller) finish(j *job, extraction *models.ExtractionResult, summary *models.SummaryResult, err error) {
	c.mu.Lock()
	if j.snap.State.Terminal() {
		c.mu.Unlock()
		return
	}

	switch {
	case j.cancelled || models.KindOf(err) == models.KindCancelled:
		j.snap.State = models.JobCancelled
		if err == nil || models.KindOf(err) != models.KindCancelled {
			err = models.Cancelled(err)
		}
	case err != nil:
		j.snap.State = models.JobFailed
		j.snap.ErrorKind = models.KindOf(err)
	default:
		j.snap.State = models.JobCompleted
		j.snap.Summary = summary
		c.completed[j.snap.Fingerprint] = j
	}
	j.snap.Err = err
	j.snap.Extraction = extraction
	j.snap.UpdatedAt = time.Now()
	if c.active[j.snap.Fingerprint] == j {
		delete(c.active, j.snap.Fingerprint)
	}
	snap, listeners := j.snap, j.listenersLocked()
	j.listeners = nil
	if j.cancel != nil {
		j.cancel()
	}
	c.mu.Unlock()

	switch snap.State {
	case models.JobFailed:
		c.logger.Warn("job failed",
			logger.JobID(snap.ID),
			logger.String("kind", string(snap.ErrorKind)),
			logger.Error(err),
		)
	default:
		c.logger.Info("job finished", logger.JobID(snap.ID), logger.String("state", string(snap.State)))
	}
	notify(listeners, snap)
	// listeners have the terminal snapshot before Wait returns
	close(j.done)
}

// Cancel stops a job. The job reaches Cancelled once its current stage has
// released its resources. Cancelling a finished job does nothing.
func (c *Controller) Cancel(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if j.snap.State.Terminal() || j.cancelled {
		return nil
	}
	j.cancelled = true
	j.cancel()
	c.logger.Info("job cancellation requested", logger.JobID(id))
	return nil
}

// Subscribe registers fn for the job's events. On a finished job fn is
// called once with the final snapshot.
func (c *Controller) Subscribe(id string, fn Listener) (func(), error) {
	c.mu.Lock()
	j, ok := c.jobs[id]
	if !ok {
		c.mu.Unlock()
		return nil, ErrJobNotFound
	}
	if j.snap.State.Terminal() {
		snap := j.snap
		c.mu.Unlock()
		fn(snap)
		return func() {}, nil
	}
	key := j.nextID
	j.nextID++
	j.listeners[key] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(j.listeners, key)
		c.mu.Unlock()
	}, nil
}

func (c *Controller) Get(id string) (models.JobSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[id]
	if !ok {
		return models.JobSnapshot{}, ErrJobNotFound
	}
	return j.snap, nil
}

// Wait blocks until the job is terminal or ctx ends.
func (c *Controller) Wait(ctx context.Context, id string) (models.JobSnapshot, error) {
	c.mu.Lock()
	j, ok := c.jobs[id]
	c.mu.Unlock()
	if !ok {
		return models.JobSnapshot{}, ErrJobNotFound
	}

	select {
	case <-j.done:
		return c.snapshot(j), nil
	case <-ctx.Done():
		return c.snapshot(j), ctx.Err()
	}
}

// Shutdown cancels every running job and waits for workers to exit.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	for _, j := range c.active {
		j.cancelled = true
	}
	c.mu.Unlock()
	c.stop()
	return c.pool.Stop(ctx)
}

func (c *Controller) snapshot(j *job) models.JobSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return j.snap
}

func (j *job) listenersLocked() []Listener {
	out := make([]Listener, 0, len(j.listeners))
	for _, l := range j.listeners {
		out = append(out, l)
	}
	return out
}

func notify(listeners []Listener, snap models.JobSnapshot) {
	for _, l := range listeners {
		l(snap)
	}
}
