// Package llm provides a client for OpenAI-compatible chat completion APIs
// (OpenRouter, OpenAI, local gateways).
//
// It is used by:
//   - Recognition: vision requests that return the text printed on a page
//   - Language detection: JSON requests naming the language of a text
//   - Translation: free-form requests that return translated text
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: system/user prompts, JSON response.
// Client.CompleteJSONWithImage: same with an inline image (data URL).
// Client.CompleteText: system/user prompts, plain text response.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty content, and network
// timeouts with exponential backoff (base 1s, max 10s, up to 4 attempts by
// default), honouring Retry-After. Context cancellation aborts retries
// immediately.
package llm
