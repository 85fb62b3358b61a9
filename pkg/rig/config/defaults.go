// Package config provides configuration management for rig.
package config

import "time"

// Default configuration values for rig.
const (
	// DefaultWorkers of zero lets the tuner pick a worker count.
	DefaultWorkers = 0

	// DefaultHTTPTimeout bounds connection setup and response headers.
	// Bodies are not bounded; runtime archives can take minutes.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "rig"

	// DefaultRetentionDays is the default number of days to keep history entries.
	DefaultRetentionDays = 30

	// DefaultLogLevel is the default log level for every component.
	DefaultLogLevel = "info"

	// DefaultLogMaxSize is the default rotation threshold.
	DefaultLogMaxSize = "10MB"
)

// DefaultFeatures are the launcher features enabled when none are configured.
var DefaultFeatures = []string{"has_custom_resolution"}

// DefaultComponents holds the per-component log levels written by WriteDefault.
var DefaultComponents = map[string]string{
	"download": "info",
	"install":  "info",
	"cache":    "warn",
	"tui":      "info",
}
