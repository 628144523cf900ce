// Package gmail_tools provides MCP tools for reading Gmail threads and replying
// to them.
//
//   - gmail_list_threads: list threads matching a search query
//   - gmail_get_thread: read one thread, or several as a batch
//   - gmail_reply: answer a message in a thread (write access only)
//
// All tools resolve the Gmail client of the requested account through the
// server context.
package gmail_tools
