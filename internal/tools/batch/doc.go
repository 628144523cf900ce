// Package batch runs a tool operation over several IDs and reports per-item
// results, so one failing thread does not fail the whole call.
package batch
