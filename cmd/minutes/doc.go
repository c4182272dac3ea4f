// Package main hosts the minutes CLI entrypoint and command graph.
//
// Commands talk to minutesd over HTTP through internal/client. One-shot
// commands (transcribe, summarize, email, health) map onto single endpoints;
// the session command drives a workflow.Controller interactively so a
// transcript can be summarized, edited, saved to the in-memory history,
// downloaded, and emailed in one sitting.
package main
