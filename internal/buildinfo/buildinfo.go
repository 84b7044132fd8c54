// Package buildinfo holds version information injected at build time via ldflags.
package buildinfo

var (
	Version    = "dev"
	Channel    = "beta"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// UserAgent is sent with outbound HTTP requests (update checks).
func UserAgent() string {
	return "craftgen/" + Version
}
