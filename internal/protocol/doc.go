// Package protocol owns the printer wire contract.
//
// Ownership boundary:
// - request/response document shapes
// - resource paths and verbs
// - error taxonomy shared by transport, command, and compose layers
//
// Framing lives in protocol/frame; the connection lives in protocol/session.
package protocol
