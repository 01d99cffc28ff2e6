package x11

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Test seams.
var (
	runCommandOutputFn        = runCommandOutput
	readFileFn                = os.ReadFile
	readDirFn                 = os.ReadDir
	detectSessionX11EnvFn     = detectSessionX11Env
	detectDisplayFromSocketFn = detectDisplayFromSockets
)

const x11SocketDir = "/tmp/.X11-unix"

var errNoDisplay = errors.New(`no X display found; set display in config (e.g. display: ":1") or export DISPLAY`)

// SessionEnv is the X session the daemon attaches to.
type SessionEnv struct {
	Display    string
	XAuthority string
}

// fill sets whichever fields are still empty.
func (s *SessionEnv) fill(display, xauthority string) {
	if s.Display == "" {
		s.Display = strings.TrimSpace(display)
	}
	if s.XAuthority == "" {
		s.XAuthority = strings.TrimSpace(xauthority)
	}
}

func (s SessionEnv) complete() bool {
	return s.Display != "" && s.XAuthority != ""
}

// ResolveSessionEnv finds DISPLAY and XAUTHORITY for a daemon that may have
// been started without a GUI environment, such as from a systemd user unit.
// Sources in order: env, the configured values, the user's logind session,
// the highest numbered X socket. XAUTHORITY finally falls back to
// ~/.Xauthority when that file exists.
func ResolveSessionEnv(env []string, display, xauthority string) (SessionEnv, error) {
	var out SessionEnv
	out.fill(envLookup(env, "DISPLAY"), envLookup(env, "XAUTHORITY"))
	out.fill(display, xauthority)
	if !out.complete() {
		out.fill(detectSessionX11EnvFn())
	}
	if out.Display == "" {
		out.fill(detectDisplayFromSocketFn(x11SocketDir), "")
	}
	if out.Display == "" {
		return SessionEnv{}, errNoDisplay
	}
	if out.XAuthority == "" {
		out.XAuthority = homeXAuthority(env)
	}
	return out, nil
}

func homeXAuthority(env []string) string {
	home := strings.TrimSpace(envLookup(env, "HOME"))
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	if home == "" {
		return ""
	}
	path := filepath.Join(home, ".Xauthority")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Export writes the session into the process environment so the X
// connection and xprop subprocesses both see it.
func (s SessionEnv) Export() error {
	if err := os.Setenv("DISPLAY", s.Display); err != nil {
		return err
	}
	if s.XAuthority == "" {
		return nil
	}
	return os.Setenv("XAUTHORITY", s.XAuthority)
}

func runCommandOutput(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	return string(out), err
}

// detectSessionX11Env asks logind for the first session of this user that has
// a display. The session leader's environment, when readable, overrides the
// display and supplies XAUTHORITY.
func detectSessionX11Env() (display, xauthority string) {
	out, err := runCommandOutputFn("loginctl", "list-sessions", "--no-legend")
	if err != nil {
		return "", ""
	}
	for _, id := range parseLoginctlSessions(out, strconv.Itoa(os.Getuid())) {
		display = sessionProperty(id, "Display")
		if display == "" || strings.EqualFold(display, "n/a") {
			continue
		}
		leader := sessionProperty(id, "Leader")
		if leader == "" || leader == "0" {
			return display, ""
		}
		environ, err := readProcEnviron(leader)
		if err != nil {
			return display, ""
		}
		if d := strings.TrimSpace(environ["DISPLAY"]); d != "" {
			display = d
		}
		return display, strings.TrimSpace(environ["XAUTHORITY"])
	}
	return "", ""
}

// parseLoginctlSessions returns the session IDs owned by uid from
// `loginctl list-sessions --no-legend` output.
func parseLoginctlSessions(output, uid string) []string {
	var ids []string
	for line := range strings.Lines(output) {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == uid {
			ids = append(ids, fields[0])
		}
	}
	return ids
}

func sessionProperty(id, prop string) string {
	out, err := runCommandOutputFn("loginctl", "show-session", id, "-p", prop, "--value")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func readProcEnviron(pid string) (map[string]string, error) {
	data, err := readFileFn(filepath.Join("/proc", pid, "environ"))
	if err != nil {
		return nil, err
	}
	env := make(map[string]string)
	for entry := range strings.SplitSeq(string(data), "\x00") {
		if key, value, ok := strings.Cut(entry, "="); ok && key != "" {
			env[key] = value
		}
	}
	return env, nil
}

// detectDisplayFromSockets picks the highest display with a socket in dir.
func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}
	var displays []int
	for _, entry := range entries {
		num, ok := strings.CutPrefix(entry.Name(), "X")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(num); err == nil {
			displays = append(displays, n)
		}
	}
	if len(displays) == 0 {
		return ""
	}
	return fmt.Sprintf(":%d", slices.Max(displays))
}

func envLookup(env []string, key string) string {
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok && k == key {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
