// Package content builds the prompts sent to text models: one per social
// platform for the post itself, and one per image asking the model to
// describe the picture to generate. Builders are pure; the same inputs
// always produce the same prompt.
package content
