package common

import (
	"fmt"
	"strings"
	"time"
)

// IntArg returns a numeric argument, or def when it is missing. JSON numbers
// arrive as float64.
func IntArg(args map[string]any, key string, def int) int {
	if v, ok := args[key].(float64); ok && v > 0 {
		return int(v)
	}
	return def
}

// ListArg splits a comma-separated string argument. Empty items are dropped.
func ListArg(args map[string]any, key string) []string {
	s, _ := args[key].(string)
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// TimeArg parses a required RFC3339 argument.
func TimeArg(args map[string]any, key string) (time.Time, error) {
	s, ok := args[key].(string)
	if !ok || s == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format: %w", key, err)
	}
	return t, nil
}
