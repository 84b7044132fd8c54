package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/craftgen/craftgen/internal/config"
	"github.com/craftgen/craftgen/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether craftgen and its edge runtime are running",
	RunE: func(cmd *cobra.Command, args []string) error {
		running, info, err := config.IsSessionRunning()
		if err != nil {
			return fmt.Errorf("failed to read session info: %w", err)
		}
		printStatus(cmd.OutOrStdout(), running, info, isTerminal(cmd.OutOrStdout()))
		return nil
	},
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printStatus renders the session. Styling is applied only on a terminal.
func printStatus(w io.Writer, running bool, info *models.SessionInfo, styled bool) {
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	if !running {
		fmt.Fprintf(w, "%s\n", render(styleWarning, "craftgen is not running"))
		if info != nil {
			fmt.Fprintf(w, "%s\n", render(styleHint, fmt.Sprintf("stale session from PID %d", info.PID)))
		}
		return
	}

	fmt.Fprintf(w, "%s %s\n", render(styleBrand, "craftgen"), render(styleSuccess, "running"))
	fmt.Fprintf(w, "  %s %s\n", render(styleLabel, "PID     "), render(styleValue, fmt.Sprint(info.PID)))
	fmt.Fprintf(w, "  %s %s\n", render(styleLabel, "State   "), render(styleValue, info.State))
	fmt.Fprintf(w, "  %s %s\n", render(styleLabel, "Started "), render(styleValue, info.StartedAt.Local().Format(time.DateTime)))

	if info.SidecarPID > 0 {
		fmt.Fprintf(w, "  %s %s\n", render(styleLabel, "Runtime "),
			render(styleSuccess, fmt.Sprintf("PID %d on port %d", info.SidecarPID, info.Port)))
	} else {
		fmt.Fprintf(w, "  %s %s\n", render(styleLabel, "Runtime "), render(styleError, "not running"))
	}
}
