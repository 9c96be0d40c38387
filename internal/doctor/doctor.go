// Package doctor runs readiness diagnostics for the session, tools, audio
// output, and the persisted documents.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/soundpp/internal/audio"
	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/hypr"
	"github.com/rbright/soundpp/internal/ipc"
	"github.com/rbright/soundpp/internal/library"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Sinks lists output devices; tests swap it out.
var Sinks = audio.ListSinks

// Run executes environment and document checks.
func Run(ctx context.Context, paths config.Paths, loaded config.Loaded) Report {
	checks := []Check{checkSettings(loaded)}

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))

	checks = append(checks, checkCompositor(ctx))

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "host socket directory available", "XDG_RUNTIME_DIR is empty; the host cannot listen"))

	checks = append(checks,
		checkBinary("hyprctl", "global shortcuts and notifications"),
		checkBinary("pw-play", "fallback playback for non-WAV clips"),
		checkBinary("xdg-open", "opening the sounds directory"),
	)

	checks = append(checks, checkOutputDevice(ctx, loaded.Settings.DefaultOutputDeviceID))
	checks = append(checks, checkLibrary(paths))
	checks = append(checks, checkHost(ctx))

	return Report{Checks: checks}
}

// checkSettings reports where settings came from and whether they validate.
func checkSettings(loaded config.Loaded) Check {
	if !loaded.OK {
		return Check{Name: "settings", Pass: false, Message: fmt.Sprintf("unreadable %q; defaults in use", loaded.Path)}
	}
	if err := config.Validate(loaded.Settings); err != nil {
		return Check{Name: "settings", Pass: false, Message: err.Error()}
	}
	return Check{Name: "settings", Pass: true, Message: fmt.Sprintf("loaded %q (%s)", loaded.Path, loaded.Source)}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkCompositor proves hyprctl can reach the running compositor.
func checkCompositor(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	session, err := hypr.QuerySession(ctx)
	if err != nil {
		return Check{Name: "hyprland", Pass: false, Message: err.Error()}
	}
	return Check{Name: "hyprland", Pass: true, Message: fmt.Sprintf("Hyprland %s, focused monitor %s", session.Version, session.Monitor)}
}

// checkOutputDevice resolves the configured output against live sinks.
func checkOutputDevice(ctx context.Context, id string) Check {
	devices, err := Sinks(ctx)
	if err != nil {
		return Check{Name: "audio.output", Pass: false, Message: err.Error()}
	}
	device, ok := audio.FindSink(devices, id)
	if !ok {
		return Check{Name: "audio.output", Pass: false, Message: fmt.Sprintf("no sink matches %q (%d available)", id, len(devices))}
	}
	message := fmt.Sprintf("selected %q", device.ID)
	if !device.Available {
		message += " (port unavailable)"
	}
	return Check{Name: "audio.output", Pass: true, Message: message}
}

// checkLibrary loads the library document without writing migrations back.
func checkLibrary(paths config.Paths) Check {
	path := paths.LibraryPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Check{Name: "library", Pass: true, Message: fmt.Sprintf("%q not created yet", path)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Check{Name: "library", Pass: false, Message: err.Error()}
	}
	payload, err := library.ParsePayload(data)
	if err != nil {
		return Check{Name: "library", Pass: false, Message: fmt.Sprintf("%q: %v", path, err)}
	}
	return Check{Name: "library", Pass: true, Message: fmt.Sprintf("%d items in %q", len(payload.Items), path)}
}

// checkHost reports whether a host is listening. Both outcomes pass.
func checkHost(ctx context.Context) Check {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return Check{Name: "host", Pass: true, Message: "not running"}
	}
	alive, err := ipc.Probe(ctx, socketPath, 300*time.Millisecond)
	switch {
	case err != nil:
		return Check{Name: "host", Pass: false, Message: err.Error()}
	case alive:
		return Check{Name: "host", Pass: true, Message: fmt.Sprintf("running on %s", socketPath)}
	default:
		return Check{Name: "host", Pass: true, Message: "not running"}
	}
}
