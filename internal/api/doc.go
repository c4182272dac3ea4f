// Package api defines the JSON payloads exchanged between the minutes CLI and
// the minutesd HTTP service.
//
// Field names follow the camelCase wire contract (originalPrompt, not
// original_prompt). Request types carry a Validate method that runs at the
// HTTP boundary before any gateway call; validation failures wrap
// services.ErrMissingInput so they surface as 400 responses.
package api
