// Package resources provides read-only MCP resources describing how mailmeet
// schedules: the business hours and search defaults, and the calendars of the
// default account with their time zones.
package resources
