// Package calendar_tools provides MCP tools for Google Calendar.
//
// The read tools list upcoming meetings, calendars and free/busy ranges. The write
// tools schedule, move and cancel meetings and notify attendees; they are only
// registered when the server runs with write access.
package calendar_tools
