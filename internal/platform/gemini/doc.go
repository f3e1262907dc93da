// Package gemini provides an implementation of the generation.Provider
// interface backed by Google's Gemini API.
//
// Text is produced with Models.GenerateContent, using the system prompt as a
// system instruction. Images are produced with Models.GenerateImages (Imagen)
// and returned inline.
//
// The adapter performs a single call per request. Retries and fallback are
// applied by the decorators in internal/generation; this package only
// classifies failures so those decorators can tell a rate limit from a
// safety block:
//
//   - HTTP 429, 5xx and deadline errors wrap generation.ErrTransientFailure
//   - safety finish reasons and blocked prompts wrap generation.ErrContentBlocked
//   - empty candidates or images wrap generation.ErrInvalidResponse
package gemini
