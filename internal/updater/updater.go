// Package updater checks GitHub Releases for a newer version of the shell.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/craftgen/craftgen/internal/buildinfo"
	"github.com/craftgen/craftgen/internal/models"
)

const (
	releasesURL = "https://api.github.com/repos/craftgen/craftgen/releases/latest"

	defaultTimeout = 15 * time.Second
)

// ReleaseInfo contains information about a GitHub release.
type ReleaseInfo struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// UpdateResult contains the result of an update check.
type UpdateResult struct {
	Available      bool
	CurrentVersion string
	LatestVersion  string
	ReleaseURL     string
}

// Checker queries a releases endpoint.
type Checker struct {
	URL     string
	Current string
	Client  *http.Client
}

// NewChecker returns a checker for the running build.
func NewChecker() *Checker {
	return &Checker{
		URL:     releasesURL,
		Current: buildinfo.Version,
		Client:  &http.Client{Timeout: defaultTimeout},
	}
}

// CheckForUpdate queries the releases API for a newer version.
func (c *Checker) CheckForUpdate(ctx context.Context) (*UpdateResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch releases: %w", err)
	}
	defer resp.Body.Close()

	result := &UpdateResult{CurrentVersion: c.Current}
	if resp.StatusCode == http.StatusNotFound {
		// No releases yet
		return result, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var release ReleaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	latest := canonical(release.TagName)
	if !semver.IsValid(latest) {
		return nil, fmt.Errorf("parse latest version %q: not a semantic version", release.TagName)
	}

	result.LatestVersion = strings.TrimPrefix(latest, "v")
	result.ReleaseURL = release.HTMLURL

	current := canonical(c.Current)
	// A dev or unparseable build is treated as older than any release.
	result.Available = !semver.IsValid(current) || semver.Compare(current, latest) < 0
	return result, nil
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// Due reports whether a startup check should run given the update settings.
func Due(cfg models.UpdatesConfig, now time.Time) bool {
	if !cfg.CheckOnStartup {
		return false
	}
	if cfg.LastChecked == nil {
		return true
	}

	since := now.Sub(*cfg.LastChecked)
	switch cfg.CheckFrequency {
	case "daily":
		return since >= 24*time.Hour
	case "weekly":
		return since >= 7*24*time.Hour
	default: // "every_launch"
		return true
	}
}
