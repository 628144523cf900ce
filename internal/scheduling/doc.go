// Package scheduling connects meeting detection and slot search to mail threads and
// calendars.
//
// A Service extracts meeting hints from text or a Gmail thread, decides whether the text
// asks for a meeting and, if it does, proposes free slots from the account's calendars
// within business hours. The slot a sender asked for is proposed first when it is free.
//
// Collaborators are small interfaces so the service can run against the Google clients in
// production and against fakes in tests:
//
//	svc := scheduling.NewService(opts, calendarClient, gmailClient, metrics)
//	proposal, err := svc.SuggestForThread(ctx, threadID, scheduling.SuggestOptions{})
package scheduling
