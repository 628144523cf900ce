// Package reply_tools provides MCP tools that analyze mail threads and draft
// replies with the language model. Generated drafts are kept in the reply store so
// earlier answers to similar mail can be looked up.
package reply_tools
