package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/content-repurposer/internal/api/shared"
	"github.com/phrazzld/content-repurposer/internal/domain"
	"github.com/phrazzld/content-repurposer/internal/service/auth"
	"github.com/phrazzld/content-repurposer/internal/store"
	"github.com/phrazzld/content-repurposer/internal/task"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidSubject),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case store.IsNotFoundError(err):
		return http.StatusNotFound

	case store.IsDuplicateError(err):
		return http.StatusConflict

	case errors.Is(err, shared.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrInvalidContentKind),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidSubject):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "User ID not found or invalid"

	case errors.Is(err, store.ErrJobNotFound):
		return "Job not found"
	case store.IsNotFoundError(err):
		return "Resource not found"
	case store.IsDuplicateError(err):
		return "Job already exists"

	case errors.Is(err, shared.ErrBodyTooLarge):
		return "Request body too large"
	case errors.Is(err, domain.ErrInvalidContentKind):
		return "Invalid content_types: supported values are " + supportedKinds()
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"
	case errors.Is(err, domain.ErrEmptyContent):
		return "Title and content are required"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid job data"

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return "Job queue unavailable"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted error. A non-empty message overrides the safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), message, err)
}

// SanitizeValidationError turns validator errors into a message naming the
// first failing field. Anything else becomes a generic message.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}

	fe := verrs[0]
	field := jsonFieldName(fe.StructField())
	return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

var jsonFieldNames = map[string]string{
	"Title":        "title",
	"Content":      "content",
	"ContentTypes": "content_types",
	"Tone":         "tone",
	"Hashtags":     "hashtags",
	"Style":        "style",
}

func jsonFieldName(structField string) string {
	// Dive errors report the element as ContentTypes[2].
	base, _, _ := strings.Cut(structField, "[")
	if name, ok := jsonFieldNames[base]; ok {
		return name
	}
	return strings.ToLower(base)
}

func supportedKinds() string {
	return strings.Join(kindsToStrings(domain.AllContentKinds()), ", ")
}
