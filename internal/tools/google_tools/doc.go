// Package google_tools provides MCP tools that authorize a Google account for Gmail
// and Calendar access.
//
// The flow:
//  1. google_get_auth_url returns the consent URL for an account
//  2. The user signs in, grants access and copies the authorization code
//  3. google_save_auth_code exchanges the code and stores the token
//
// The stored token is refreshed automatically and shared by all tools and CLI commands
// of that account.
package google_tools
