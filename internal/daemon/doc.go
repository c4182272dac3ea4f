// Package daemon owns the minutesd process lifecycle.
//
// It pairs the HTTP API server with a flock-based lock file so only one
// instance serves a given lock path, and reports which gateways are
// configured. Request handling lives in internal/server; provider calls live
// in internal/services.
package daemon
