// Package command owns the typed printer actions.
//
// Ownership boundary:
// - one method per supported device action, building a complete Request
// - required-field checks for mutating actions
// - mapping non-ok statuses to protocol.DeviceError
// - the closed (category, action) registry used by front ends
//
// Updates are full replacements. Modify* methods send exactly what they are
// given; fields left out are dropped by the device. Read first, then modify.
package command
