// Package meeting_tools exposes meeting request detection and slot suggestion as MCP
// tools.
package meeting_tools
