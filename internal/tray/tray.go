package tray

import (
	_ "embed"
	"log/slog"

	"github.com/getlantern/systray"

	"github.com/craftgen/craftgen/internal/logging"
)

//go:embed icon.png
var iconData []byte

var (
	actions Actions
	onStart func()
	onExit  func()

	statusItem   *systray.MenuItem
	openItem     *systray.MenuItem
	shareItem    *systray.MenuItem
	websiteItem  *systray.MenuItem
	feedbackItem *systray.MenuItem
	updatesItem  *systray.MenuItem
	quitItem     *systray.MenuItem

	initialShare bool
)

// Run starts the system tray. This blocks the calling goroutine (must be main).
// onStartFn is called once the menu exists; onExitFn when the tray loop ends.
func Run(a Actions, shareUsage bool, onStartFn, onExitFn func()) {
	actions = a
	initialShare = shareUsage
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTooltip("Craftgen")

	statusItem = systray.AddMenuItem("Starting...", "")
	statusItem.Disable()

	openItem = systray.AddMenuItem("Open Craftgen", "Show the main window")

	systray.AddSeparator()

	shareItem = systray.AddMenuItemCheckbox("Share Usage Data", "Send anonymous usage events", initialShare)

	systray.AddSeparator()

	websiteItem = systray.AddMenuItem("Visit Website", WebsiteURL)
	feedbackItem = systray.AddMenuItem("Give Feedback", FeedbackURL)

	systray.AddSeparator()

	updatesItem = systray.AddMenuItem("Check for Updates", "")
	quitItem = systray.AddMenuItem("Quit", "Stop the edge runtime and quit")

	if onStart != nil {
		onStart()
	}

	go handleClicks()
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	defer logging.LogPanic("tray-clicks", nil)

	for {
		select {
		case <-openItem.ClickedCh:
			actions.Open()

		case <-shareItem.ClickedCh:
			enabled, err := actions.ToggleUsageSharing()
			if err != nil {
				log().Error("failed to update usage sharing", "error", err)
				continue
			}
			SetUsageSharing(enabled)

		case <-websiteItem.ClickedCh:
			actions.OpenLink(WebsiteURL)

		case <-feedbackItem.ClickedCh:
			actions.OpenLink(FeedbackURL)

		case <-updatesItem.ClickedCh:
			go actions.CheckForUpdates()

		case <-quitItem.ClickedCh:
			actions.Quit()
			return
		}
	}
}

// SetStatus updates the disabled status line and the tooltip.
func SetStatus(text string) {
	if statusItem == nil {
		return
	}
	statusItem.SetTitle(text)
	systray.SetTooltip(formatTooltip(text))
}

// SetUsageSharing syncs the checkbox with the stored setting.
func SetUsageSharing(enabled bool) {
	if shareItem == nil {
		return
	}
	if enabled == shareItem.Checked() {
		return
	}
	if enabled {
		shareItem.Check()
	} else {
		shareItem.Uncheck()
	}
	log().Debug("usage sharing checkbox updated", "enabled", enabled)
}

func log() *slog.Logger {
	return logging.Component("tray")
}

func formatTooltip(status string) string {
	if status == "" {
		return "Craftgen"
	}
	return "Craftgen: " + status
}
