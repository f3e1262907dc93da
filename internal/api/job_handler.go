package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/api/shared"
	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/phrazzld/content-repurposer/internal/platform/logger"
	"github.com/phrazzld/content-repurposer/internal/store"
)

// JobPublisher hands a stored job to the worker queue.
type JobPublisher interface {
	Publish(ctx context.Context, jobID uuid.UUID) error
}

// JobHandler handles job creation and status requests.
type JobHandler struct {
	jobs      store.JobStore
	outputs   store.OutputStore
	publisher JobPublisher
	validator *validator.Validate
	logger    *slog.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(
	jobs store.JobStore,
	outputs store.OutputStore,
	publisher JobPublisher,
	logger *slog.Logger,
) *JobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobHandler{
		jobs:      jobs,
		outputs:   outputs,
		publisher: publisher,
		validator: validator.New(),
		logger:    logger.With("component", "job_handler"),
	}
}

// CreateContent handles POST /api/v1/content. The job is stored before it
// is queued; if queueing fails the client gets 503 and the job stays
// pending for the worker's recovery sweep.
func (h *JobHandler) CreateContent(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return
	}

	var req CreateContentRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		if errors.Is(err, shared.ErrBodyTooLarge) {
			HandleAPIError(w, r, err, "")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	metadata, err := requestMetadata(req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	job, err := domain.NewJob(userID, req.Title, req.Content, metadata)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.jobs.Create(r.Context(), job); err != nil {
		HandleAPIError(w, r, err, "Failed to create job")
		return
	}

	log = log.With("job_id", job.ID)
	if err := h.publisher.Publish(r.Context(), job.ID); err != nil {
		log.Warn("job stored but not queued; left pending for recovery", "error", err)
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, QueueUnavailableResponse{
			Error:   "Job accepted but could not be queued; it will be processed when the queue recovers",
			JobID:   job.ID.String(),
			TraceID: shared.GetTraceID(r.Context()),
		})
		return
	}

	log.Info("job created", "content_types", len(metadata.ContentTypes))
	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(job))
}

// GetJob handles GET /api/v1/jobs/{id}. Jobs owned by other users are
// reported as not found.
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	userID, jobID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	job, err := h.jobs.GetByID(r.Context(), jobID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if job.UserID != userID {
		HandleAPIError(w, r, store.ErrJobNotFound, "")
		return
	}

	resp := jobToResponse(job)
	if job.Status.IsTerminal() {
		outputs, err := h.outputs.ListByJob(r.Context(), job.ID)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to load job outputs")
			return
		}

		latest := domain.LatestOutputs(outputs)
		resp.Outputs = make([]OutputResponse, 0, len(latest))
		for _, out := range latest {
			resp.Outputs = append(resp.Outputs, outputToResponse(out))
		}

		missing, err := domain.MissingKinds(job, latest)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		resp.MissingContentTypes = kindsToStrings(missing)

		missingImages, err := domain.MissingImages(job, latest)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		resp.MissingImages = kindsToStrings(missingImages)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// requestMetadata converts the request's options into job metadata.
// Content type names are matched case-insensitively.
func requestMetadata(req CreateContentRequest) (domain.JobMetadata, error) {
	meta := domain.JobMetadata{
		Tone:     req.Tone,
		Hashtags: req.Hashtags,
		Style:    req.Style,
	}
	for _, raw := range req.ContentTypes {
		kind, err := domain.ParseContentKind(raw)
		if err != nil {
			return domain.JobMetadata{}, err
		}
		meta.ContentTypes = append(meta.ContentTypes, kind)
	}
	return meta, nil
}
