package window

import (
	"io"
	"sync"

	"github.com/pkg/browser"
)

func init() {
	// xdg-open and friends chatter on stdout; keep it out of the terminal.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// BrowserSurface renders the main window as the app URL in the system browser.
// Hiding is bookkeeping only; a browser tab cannot be closed from outside.
type BrowserSurface struct {
	url  string
	open func(string) error

	mu      sync.Mutex
	visible bool
}

// NewBrowserSurface returns a surface for url.
func NewBrowserSurface(url string) *BrowserSurface {
	return &BrowserSurface{url: url, open: browser.OpenURL}
}

func (s *BrowserSurface) SetVisibility(visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
	return nil
}

// Focus opens the URL, which also raises the browser. It does nothing
// while the surface is hidden.
func (s *BrowserSurface) Focus() error {
	s.mu.Lock()
	visible := s.visible
	s.mu.Unlock()

	if !visible {
		return nil
	}
	return s.open(s.url)
}

// OpenURL opens an arbitrary link in the system browser.
func OpenURL(url string) error {
	return browser.OpenURL(url)
}
