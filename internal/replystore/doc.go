// Package replystore keeps generated reply drafts in an embedded vector collection so
// similar drafts can be found for new threads.
package replystore
