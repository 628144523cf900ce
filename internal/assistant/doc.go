// Package assistant generates thread analyses, reply drafts and translations with a
// language model.
//
// The model is reached through the Generator interface. Gemini is the production
// implementation and applies a request rate limit; tests use a scripted generator.
package assistant
