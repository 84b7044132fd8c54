package sidecar

import (
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
)

const (
	// BinaryName is the sidecar executable shipped next to the host.
	BinaryName = "edge-runtime"

	// FunctionsDirName is the resource directory holding the worker services.
	FunctionsDirName = "functions"

	// ServiceBaseDirEnv tells the worker where its services live.
	ServiceBaseDirEnv = "SERVICE_BASE_DIR"

	mainServiceDir = "main"
	eventWorkerDir = "event"
)

// Resources are the resolved worker service paths.
type Resources struct {
	BaseDir     string // <root>/functions
	MainService string // <root>/functions/main
	EventWorker string // <root>/functions/event
}

// LaunchSpec is an immutable description of one worker launch.
type LaunchSpec struct {
	program string
	args    []string
	env     map[string]string
}

// NewCommandSpec builds a LaunchSpec from raw parts. Slices and maps are copied.
func NewCommandSpec(program string, args []string, env map[string]string) LaunchSpec {
	return LaunchSpec{
		program: program,
		args:    slices.Clone(args),
		env:     maps.Clone(env),
	}
}

// NewLaunchSpec builds the edge-runtime start command for res.
func NewLaunchSpec(program string, res Resources, port int, verbose bool) LaunchSpec {
	args := []string{
		"start",
		"--main-service", res.MainService,
		"--event-worker", res.EventWorker,
	}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "-p", strconv.Itoa(port))

	return NewCommandSpec(program, args, map[string]string{
		ServiceBaseDirEnv: res.BaseDir,
	})
}

// Program returns the executable path or name.
func (s LaunchSpec) Program() string {
	return s.program
}

// Args returns a copy of the argument list.
func (s LaunchSpec) Args() []string {
	return slices.Clone(s.args)
}

// Env returns a copy of the environment overrides.
func (s LaunchSpec) Env() map[string]string {
	return maps.Clone(s.env)
}

// Environ appends the overrides to base in key order. Later entries win in os/exec.
func (s LaunchSpec) Environ(base []string) []string {
	out := slices.Clone(base)
	for _, k := range slices.Sorted(maps.Keys(s.env)) {
		out = append(out, fmt.Sprintf("%s=%s", k, s.env[k]))
	}
	return out
}

func (s LaunchSpec) String() string {
	return strings.Join(append([]string{s.program}, s.args...), " ")
}

// ResolveResources locates the functions directory.
// A non-empty override is the only candidate; otherwise the bundled
// locations relative to the executable and the working directory are tried.
func ResolveResources(override string) (Resources, error) {
	roots := resourceRoots(override)
	for _, root := range roots {
		res := resourcesAt(root)
		err := res.check()
		if err == nil {
			return res, nil
		}
		if override != "" {
			return Resources{}, err
		}
	}
	return Resources{}, fmt.Errorf("%w: %s not found in %s",
		ErrResolutionFailed, FunctionsDirName, strings.Join(roots, ", "))
}

func resourcesAt(root string) Resources {
	base := filepath.Join(root, FunctionsDirName)
	return Resources{
		BaseDir:     base,
		MainService: filepath.Join(base, mainServiceDir),
		EventWorker: filepath.Join(base, eventWorkerDir),
	}
}

func (r Resources) check() error {
	for _, dir := range []string{r.BaseDir, r.MainService, r.EventWorker} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrResolutionFailed, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrResolutionFailed, dir)
		}
	}
	return nil
}

func resourceRoots(override string) []string {
	if override != "" {
		return []string{override}
	}

	var roots []string
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		roots = append(roots,
			filepath.Join(dir, "resources"),
			filepath.Join(dir, "..", "Resources"), // macOS app bundle
		)
	}
	return append(roots, "resources")
}

// ResolveBinary finds the edge-runtime executable.
// Check order: override → next to the host executable → PATH → bare name.
// A bare name that does not exist surfaces later as ErrExecFailed.
func ResolveBinary(override string) string {
	if override != "" {
		return override
	}

	name := BinaryName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}

	if path, err := exec.LookPath(BinaryName); err == nil {
		return path
	}
	return name
}
