// Package gmail reads threads and sends threaded replies through the Gmail API.
//
// Threads are converted into plain Thread and Message values with decoded
// bodies, so the meeting extractor and the assistant never see MIME
// structures. Thread.Text renders a thread the way both of them consume it.
//
// Example usage:
//
//	client, err := gmail.NewClient(ctx, "work", metrics, option.WithHTTPClient(httpClient))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summaries, err := client.ListThreads(ctx, "is:unread in:inbox", 10)
//	thread, err := client.GetThread(ctx, summaries[0].ID)
//	id, err := client.Reply(ctx, gmail.ReplyInput{ThreadID: thread.ID, Body: "Tuesday works."})
package gmail
