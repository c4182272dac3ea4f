// Package services defines shared utilities consumed by the provider gateways
// and the HTTP API.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs and endpoint names for logging.
//   - Structured error markers plus the Wrap helper that translate gateway
//     failures into consistent HTTP statuses and wire kinds.
//
// The gateways themselves live in subpackages: llm (summarization),
// transcribe (speech-to-text) and mailer (email delivery). Each one tags its
// failures with these markers so callers never need to inspect messages.
package services
