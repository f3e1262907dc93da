// Package openai provides the fallback implementation of
// generation.Provider, backed by the OpenAI chat completion and image APIs
// through github.com/sashabaranov/go-openai.
package openai
