// Package generation defines the boundary between the job pipeline and the
// external text and image models. It holds the Provider contract, the error
// taxonomy used to decide what is worth retrying, and the provider
// decorators shared by every backend: a Retrier with capped exponential
// backoff, an ordered fallback chain, and a deterministic offline provider.
//
// Concrete backends live in internal/platform/gemini and
// internal/platform/openai.
package generation
