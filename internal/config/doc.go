// Package config loads mailmeet settings from a .env file, an optional YAML file and
// the environment.
//
// Settings are grouped by concern (google, gemini, scheduling, intent, mail,
// reply_store). Every key can be overridden with a MAILMEET_ prefixed environment
// variable, for example MAILMEET_SCHEDULING_TIMEZONE=Europe/Berlin.
package config
