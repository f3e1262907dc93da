package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/content"
	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/phrazzld/content-repurposer/internal/generation"
	"github.com/phrazzld/content-repurposer/internal/metrics"
	"github.com/phrazzld/content-repurposer/internal/storage"
	"github.com/phrazzld/content-repurposer/internal/store"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSubTaskPanic wraps a panic recovered from a sub-task.
	ErrSubTaskPanic = errors.New("sub-task panicked")

	// ErrMissingDependency is returned when an Orchestrator is built without
	// one of its collaborators.
	ErrMissingDependency = errors.New("orchestrator dependency is nil")
)

// OrchestratorConfig holds the tunables for one job run.
type OrchestratorConfig struct {
	// MaxConcurrency bounds the sub-tasks running at once for one job.
	MaxConcurrency int

	// ImageSize is passed to the image provider, e.g. "1024x1024".
	ImageSize string

	// PairWait bounds how long an image sub-task waits for its paired text.
	// Zero waits until the text sub-task finishes.
	PairWait time.Duration
}

// DefaultOrchestratorConfig returns an OrchestratorConfig with reasonable defaults
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxConcurrency: 4,
		ImageSize:      "1024x1024",
	}
}

// WorkItem is the generation needed for one requested kind.
type WorkItem struct {
	Kind       domain.ContentKind
	NeedsText  bool
	NeedsImage bool
}

// PlanWork expands the job metadata into work items.
// Social kinds need a post and an image; thumbnail needs only the image.
func PlanWork(meta domain.JobMetadata) ([]WorkItem, error) {
	kinds, err := meta.RequestedKinds()
	if err != nil {
		return nil, err
	}

	items := make([]WorkItem, 0, len(kinds))
	for _, kind := range kinds {
		items = append(items, WorkItem{
			Kind:       kind,
			NeedsText:  kind.IsSocial(),
			NeedsImage: true,
		})
	}
	return items, nil
}

// SubTaskResult is the outcome of generating one output.
type SubTaskResult struct {
	Kind     domain.ContentKind
	Type     domain.OutputType
	OutputID uuid.UUID
	Provider string
	Duration time.Duration
	Err      error
}

// Report lists the sub-task outcomes of one job run.
type Report struct {
	JobID   uuid.UUID
	Results []SubTaskResult
}

// Failed returns the sub-tasks that did not produce an output.
func (r *Report) Failed() []SubTaskResult {
	var failed []SubTaskResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Succeeded returns the number of sub-tasks that stored an output.
func (r *Report) Succeeded() int {
	return len(r.Results) - len(r.Failed())
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithImageFetcher sets the fetcher used for images returned by URL.
func WithImageFetcher(f ImageFetcher) OrchestratorOption {
	return func(o *Orchestrator) {
		o.fetcher = f
	}
}

// Orchestrator turns a pending job into content outputs.
// Sub-tasks are isolated: a failed post or image is reported and logged but
// never fails the job or cancels its siblings.
type Orchestrator struct {
	jobs     store.JobStore
	outputs  store.OutputStore
	provider generation.Provider
	assets   storage.Gateway
	fetcher  ImageFetcher
	config   OrchestratorConfig
	logger   *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	jobs store.JobStore,
	outputs store.OutputStore,
	provider generation.Provider,
	assets storage.Gateway,
	config OrchestratorConfig,
	logger *slog.Logger,
	opts ...OrchestratorOption,
) (*Orchestrator, error) {
	switch {
	case jobs == nil:
		return nil, fmt.Errorf("%w: job store", ErrMissingDependency)
	case outputs == nil:
		return nil, fmt.Errorf("%w: output store", ErrMissingDependency)
	case provider == nil:
		return nil, fmt.Errorf("%w: provider", ErrMissingDependency)
	case assets == nil:
		return nil, fmt.Errorf("%w: storage gateway", ErrMissingDependency)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultOrchestratorConfig().MaxConcurrency
	}
	if config.ImageSize == "" {
		config.ImageSize = DefaultOrchestratorConfig().ImageSize
	}

	o := &Orchestrator{
		jobs:     jobs,
		outputs:  outputs,
		provider: provider,
		assets:   assets,
		fetcher:  NewHTTPImageFetcher(&http.Client{Timeout: 30 * time.Second}),
		config:   config,
		logger:   logger.With("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Process runs every sub-task of job and marks it completed.
func (o *Orchestrator) Process(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	job, _, err := o.ProcessWithReport(ctx, job)
	return job, err
}

// ProcessWithReport is Process plus the per-sub-task outcomes.
// Only failures to persist the job state or to plan the work are returned
// as errors.
func (o *Orchestrator) ProcessWithReport(ctx context.Context, job *domain.Job) (*domain.Job, *Report, error) {
	log := o.logger.With("job_id", job.ID)

	if err := job.MarkProcessing(); err != nil {
		return job, nil, fmt.Errorf("mark job processing: %w", err)
	}
	if err := o.jobs.UpdateStatus(ctx, job); err != nil {
		return job, nil, fmt.Errorf("persist processing status: %w", err)
	}

	items, err := PlanWork(job.Metadata)
	if err != nil {
		return job, nil, fmt.Errorf("plan work: %w", err)
	}

	// Text sub-tasks are queued before image sub-tasks so an image waiting
	// on its text never holds the only free concurrency slot.
	type subTask struct {
		kind domain.ContentKind
		typ  domain.OutputType
		run  func(context.Context) (uuid.UUID, string, error)
	}
	var texts, images []subTask
	for _, item := range items {
		item := item
		var slot *textSlot
		if item.NeedsText {
			slot = newTextSlot()
			texts = append(texts, subTask{item.Kind, domain.OutputTypeText, func(ctx context.Context) (uuid.UUID, string, error) {
				return o.generateText(ctx, job, item.Kind, slot)
			}})
		}
		if item.NeedsImage {
			images = append(images, subTask{item.Kind, domain.OutputTypeImage, func(ctx context.Context) (uuid.UUID, string, error) {
				return o.generateImage(ctx, job, item.Kind, slot)
			}})
		}
	}
	tasks := append(texts, images...)

	report := &Report{JobID: job.ID, Results: make([]SubTaskResult, len(tasks))}

	var g errgroup.Group
	g.SetLimit(o.config.MaxConcurrency)
	for i, st := range tasks {
		i, st := i, st
		g.Go(func() error {
			report.Results[i] = o.runSubTask(ctx, log, st.kind, st.typ, st.run)
			return nil
		})
	}
	_ = g.Wait()

	failed := report.Failed()
	log.Info("sub-tasks finished",
		"succeeded", report.Succeeded(),
		"failed", len(failed))

	if err := ctx.Err(); err != nil {
		return job, report, fmt.Errorf("job interrupted: %w", err)
	}

	// The stored job is still processing until the write below succeeds.
	processing := *job
	if err := job.MarkCompleted(); err != nil {
		return job, report, fmt.Errorf("mark job completed: %w", err)
	}
	if err := o.jobs.UpdateStatus(ctx, job); err != nil {
		*job = processing
		return job, report, fmt.Errorf("persist completed status: %w", err)
	}
	return job, report, nil
}

// runSubTask executes run, converting a panic into an error, and records
// the outcome in logs and metrics.
func (o *Orchestrator) runSubTask(
	ctx context.Context,
	log *slog.Logger,
	kind domain.ContentKind,
	typ domain.OutputType,
	run func(context.Context) (uuid.UUID, string, error),
) (result SubTaskResult) {
	result = SubTaskResult{Kind: kind, Type: typ}
	start := time.Now()
	log = log.With("kind", kind, "type", typ)

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("%w: %v", ErrSubTaskPanic, r)
		}
		result.Duration = time.Since(start)

		status := metrics.StatusSuccess
		if result.Err != nil {
			status = metrics.StatusError
			log.Error("sub-task failed", "error", result.Err, "duration", result.Duration)
		} else {
			log.Debug("sub-task succeeded",
				"output_id", result.OutputID,
				"provider", result.Provider,
				"duration", result.Duration)
		}
		metrics.SubTasksTotal.WithLabelValues(string(kind), string(typ), status).Inc()
		metrics.SubTaskDuration.WithLabelValues(string(kind), string(typ)).Observe(result.Duration.Seconds())
	}()

	result.OutputID, result.Provider, result.Err = run(ctx)
	return result
}

// generateText writes the post for kind and publishes it to slot.
// The slot is filled on every path, including panics.
func (o *Orchestrator) generateText(
	ctx context.Context,
	job *domain.Job,
	kind domain.ContentKind,
	slot *textSlot,
) (uuid.UUID, string, error) {
	var text string
	defer func() { slot.fill(text) }()

	prompt, err := content.BuildTextPrompt(kind, job.Title, job.Content, job.Metadata)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("build text prompt: %w", err)
	}

	traceCtx, answeredBy := generation.TrackProvider(ctx)
	generated, err := o.provider.GenerateText(traceCtx, prompt.TextRequest())
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("generate text: %w", err)
	}
	text = generated

	provider := answeredBy()
	if provider == "" {
		provider = o.provider.Name()
	}
	out, err := domain.NewTextOutput(job.ID, kind, generated, map[string]any{
		domain.OutputMetaProvider: provider,
	})
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("build text output: %w", err)
	}
	if err := o.outputs.Create(ctx, out); err != nil {
		return uuid.Nil, "", fmt.Errorf("store text output: %w", err)
	}
	return out.ID, provider, nil
}

// generateImage describes, renders and stores the image for kind.
// For social kinds it first waits for the paired post so the description
// can reflect it; a failed post leaves the description to title and body.
func (o *Orchestrator) generateImage(
	ctx context.Context,
	job *domain.Job,
	kind domain.ContentKind,
	slot *textSlot,
) (uuid.UUID, string, error) {
	var text string
	if slot != nil {
		text = slot.wait(ctx, o.config.PairWait)
	}

	prompt, err := content.BuildImagePrompt(kind, job.Title, job.Content, text, job.Metadata)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("build image prompt: %w", err)
	}

	description, err := o.provider.GenerateText(ctx, prompt.TextRequest())
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("generate image description: %w", err)
	}

	images, err := o.provider.GenerateImage(ctx, generation.ImageRequest{
		Prompt: description,
		Size:   o.config.ImageSize,
		N:      1,
	})
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("generate image: %w", err)
	}
	if len(images) == 0 {
		return uuid.Nil, "", fmt.Errorf("generate image: %w: no images returned", generation.ErrInvalidResponse)
	}
	img := images[0]

	data, mimeType, err := o.imageBytes(ctx, img)
	if err != nil {
		return uuid.Nil, "", err
	}

	locator, err := o.assets.Save(ctx, data, imageKey(kind, mimeType))
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("save image: %w", err)
	}

	provider := img.Provider
	if provider == "" {
		provider = o.provider.Name()
	}
	out, err := domain.NewImageOutput(job.ID, kind, locator, map[string]any{
		domain.OutputMetaPrompt:   description,
		domain.OutputMetaProvider: provider,
		domain.OutputMetaMIMEType: mimeType,
	})
	if err == nil {
		err = o.outputs.Create(ctx, out)
	}
	if err != nil {
		if delErr := o.assets.Delete(context.WithoutCancel(ctx), locator); delErr != nil {
			o.logger.Warn("failed to delete orphaned image",
				"job_id", job.ID,
				"locator", locator,
				"error", delErr)
		}
		return uuid.Nil, "", fmt.Errorf("store image output: %w", err)
	}
	return out.ID, provider, nil
}

// imageBytes returns the image payload, downloading it when the provider
// only returned a URL.
func (o *Orchestrator) imageBytes(ctx context.Context, img generation.Image) ([]byte, string, error) {
	if len(img.Data) > 0 {
		mimeType := img.MIMEType
		if mimeType == "" {
			mimeType = http.DetectContentType(img.Data)
		}
		return img.Data, mimeType, nil
	}
	if img.URL == "" {
		return nil, "", fmt.Errorf("generate image: %w: image has neither data nor URL", generation.ErrInvalidResponse)
	}
	if o.fetcher == nil {
		return nil, "", fmt.Errorf("download image: no image fetcher configured")
	}

	data, mimeType, err := o.fetcher.Fetch(ctx, img.URL)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	if img.MIMEType != "" {
		mimeType = img.MIMEType
	}
	return data, mimeType, nil
}

// imageKey returns the storage key for a new image of kind:
// thumbnails/<uuid>.<ext> or <kind>_images/<uuid>.<ext>.
func imageKey(kind domain.ContentKind, mimeType string) string {
	dir := string(kind) + "_images"
	if kind == domain.ContentKindThumbnail {
		dir = "thumbnails"
	}
	return dir + "/" + uuid.NewString() + imageExtension(mimeType)
}

func imageExtension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

// textSlot hands a generated post from its text sub-task to the paired
// image sub-task. fill must be called exactly once.
type textSlot struct {
	done chan struct{}
	text string
}

func newTextSlot() *textSlot {
	return &textSlot{done: make(chan struct{})}
}

func (s *textSlot) fill(text string) {
	s.text = text
	close(s.done)
}

// wait returns the post, or "" if the text sub-task failed, the timeout
// elapsed or ctx was cancelled. A zero timeout waits for the sub-task.
func (s *textSlot) wait(ctx context.Context, timeout time.Duration) string {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-s.done:
		return s.text
	case <-expired:
		return ""
	case <-ctx.Done():
		return ""
	}
}
