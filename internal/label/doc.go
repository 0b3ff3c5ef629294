// Package label holds the pure transforms behind label content: GS1 payloads,
// month/year expiry encodings, printer-evaluated date formats, and layout
// arithmetic. Nothing here touches the network.
package label
