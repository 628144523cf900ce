// Package logging holds the slog conventions used across mailmeet.
//
// Packages log through *slog.Logger values built with New and decorated with
// WithOperation, WithTool or WithAccount. Attribute helpers keep key names consistent:
//
//	logger := logging.WithOperation(slog.Default(), "scheduling.suggest")
//	logger.Info("slots proposed", logging.Thread(id), logging.Count(len(slots)))
//
// Email addresses and tokens never appear in logs verbatim; use AnonymizeEmail,
// Attendee and SanitizeToken.
package logging
