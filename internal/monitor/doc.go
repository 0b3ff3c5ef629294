// Package monitor polls the printer's real-time engine state and serves the
// latest snapshot over HTTP and WebSocket.
package monitor
