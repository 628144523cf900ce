// Package cmd implements the command-line interface for mailmeet.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide tools for AI assistants
//   - auth: Authorize a Google account and store its token
//   - detect: Decide whether a text asks for a meeting
//   - slots: List free slots between two dates
//   - suggest: Suggest slots for the meeting a Gmail thread asks for
//   - watch: Periodically scan Gmail for meeting requests
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
