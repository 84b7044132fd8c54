// Package tray implements the system tray icon and menu.
package tray

// Actions receives tray menu clicks. Calls arrive on the tray's click
// goroutine; implementations must not block for long.
type Actions interface {
	// Open shows the main window (menu item and left click).
	Open()
	// Quit is the tray's shutdown trigger.
	Quit()
	// ToggleUsageSharing flips the share-usage-data setting and returns the new value.
	ToggleUsageSharing() (bool, error)
	// CheckForUpdates runs a non-silent update check.
	CheckForUpdates()
	// OpenLink opens url in the system browser.
	OpenLink(url string)
}

const (
	WebsiteURL  = "https://www.craftgen.ai"
	FeedbackURL = "https://www.craftgen.ai/discord"
)
