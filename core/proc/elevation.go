package proc

import "os/exec"

// ProbeElevation reports whether the elevation tool can run commands
// without prompting for credentials (NOPASSWD or a cached timestamp).
//
// The probe runs `<tool> -n true`: with -n the tool refuses to ask for a
// password, so a zero exit means non-interactive elevation works. Every
// other outcome, including the tool being absent, means "unavailable" —
// never an error. Callers probe once at startup and carry the result as
// immutable state.
func ProbeElevation(tool string) bool {
	cmd := exec.Command(tool, "-n", "true")
	return cmd.Run() == nil
}
