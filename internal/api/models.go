package api

import (
	"time"

	"github.com/phrazzld/content-repurposer/internal/domain"
)

// CreateContentRequest is the body of POST /api/v1/content.
type CreateContentRequest struct {
	Title        string   `json:"title"                   validate:"required,max=255"`
	Content      string   `json:"content"                 validate:"required"`
	ContentTypes []string `json:"content_types,omitempty" validate:"omitempty,max=10,dive,required,max=32"`
	Tone         string   `json:"tone,omitempty"          validate:"omitempty,max=100"`
	Hashtags     []string `json:"hashtags,omitempty"      validate:"omitempty,max=30,dive,required,max=100"`
	Style        string   `json:"style,omitempty"         validate:"omitempty,max=100"`
}

// JobResponse describes a job and, once it has run, its outputs.
type JobResponse struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	Title        string     `json:"title"`
	ContentTypes []string   `json:"content_types"`
	RetryCount   int        `json:"retry_count"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	Outputs             []OutputResponse `json:"outputs,omitempty"`
	MissingContentTypes []string         `json:"missing_content_types,omitempty"`
	MissingImages       []string         `json:"missing_images,omitempty"`
}

// OutputResponse is one generated artifact.
type OutputResponse struct {
	ID          string         `json:"id"`
	ContentType string         `json:"content_type"`
	Type        string         `json:"type"`
	Content     *string        `json:"content,omitempty"`
	FilePath    *string        `json:"file_path,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// QueueUnavailableResponse is returned with 503 when a job was stored but
// could not be queued. The job stays pending and is picked up later.
type QueueUnavailableResponse struct {
	Error   string `json:"error"`
	JobID   string `json:"job_id"`
	TraceID string `json:"trace_id,omitempty"`
}

func jobToResponse(job *domain.Job) JobResponse {
	kinds, err := job.Metadata.RequestedKinds()
	if err != nil {
		kinds = job.Metadata.ContentTypes
	}

	return JobResponse{
		ID:           job.ID.String(),
		Status:       string(job.Status),
		Title:        job.Title,
		ContentTypes: kindsToStrings(kinds),
		RetryCount:   job.RetryCount,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		CompletedAt:  job.CompletedAt,
	}
}

func outputToResponse(out *domain.ContentOutput) OutputResponse {
	return OutputResponse{
		ID:          out.ID.String(),
		ContentType: string(out.Kind),
		Type:        string(out.Type()),
		Content:     out.Text,
		FilePath:    out.FilePath,
		Metadata:    out.Metadata,
		CreatedAt:   out.CreatedAt,
	}
}

func kindsToStrings(kinds []domain.ContentKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
