// Package client is the HTTP client the minutes CLI uses to reach minutesd.
//
// Error bodies are decoded and mapped back onto the services sentinel
// markers through their "kind" field, so errors.Is(err,
// services.ErrMissingInput) holds whether the failure happened locally or on
// the server.
package client
