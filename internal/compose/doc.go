// Package compose builds a label on the printer as a hierarchy of sources,
// objects and one message.
//
// A Plan declares the hierarchy with handles, so an object can only refer
// to sources declared before it in the same plan. A Composer executes the
// plan strictly bottom-up and stops at the first failure; nothing already
// created is rolled back. The Report names what exists so a caller can
// retry by hand or call Cleanup.
package compose
