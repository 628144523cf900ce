// Package google handles OAuth2 for the Gmail and Calendar APIs.
//
// Tokens are stored per account as JSON files named google-<account>.token in
// the mailmeet cache directory. Account names are restricted to letters,
// digits, '-' and '_' so they are safe to use in file names.
package google
