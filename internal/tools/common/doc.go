// Package common holds helpers shared by the MCP tool packages: argument
// parsing, result formatting and the instrumentation wrapper every tool
// handler is registered through.
package common
