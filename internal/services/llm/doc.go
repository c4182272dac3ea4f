// Package llm turns a meeting transcript and an instruction prompt into a
// summary through an OpenAI-compatible chat completion API.
//
// # Request Shape
//
// Every call sends two messages: a fixed system role (SystemPrompt) and a user
// message built by UserPrompt that quotes the instruction and appends the
// transcript. max_tokens defaults to 2000 and temperature to 0.3.
//
// # Errors
//
// Empty transcript or prompt fails with services.ErrMissingInput before any
// network activity. A missing API key reports services.ErrServiceUnavailable.
// Non-2xx responses wrap services.ErrUpstream with the provider body, network
// failures wrap services.ErrTransport, and a response without content wraps
// services.ErrEmptyResult.
//
// The client issues exactly one request per Summarize call and never retries.
package llm
