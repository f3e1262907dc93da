package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/phrazzld/content-repurposer/internal/generation"
	"google.golang.org/genai"
)

// classifyError maps an error returned by the genai client onto the
// generation error taxonomy. The original error stays in the chain.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: gemini request timed out: %w", generation.ErrTransientFailure, err)
	}

	if code, ok := apiErrorCode(err); ok {
		switch {
		case code == http.StatusTooManyRequests, code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: gemini returned status %d: %w", generation.ErrTransientFailure, code, err)
		case code == http.StatusUnauthorized, code == http.StatusForbidden:
			return fmt.Errorf("%w: gemini rejected credentials: %w", generation.ErrInvalidConfig, err)
		default:
			return fmt.Errorf("%w: gemini returned status %d: %w", generation.ErrGenerationFailed, code, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: gemini network error: %w", generation.ErrTransientFailure, err)
	}

	return fmt.Errorf("%w: gemini: %w", generation.ErrGenerationFailed, err)
}

func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
