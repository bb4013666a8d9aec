// Package precheck verifies the local environment before the server starts:
// runtime directories are writable, the env file can be created or updated,
// and the listen address is usable.
package precheck

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/ericfisherdev/kickstart/internal/config"
)

// Status is the outcome of a single prerequisite check.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is one prerequisite and how to fix it when it fails.
type Check struct {
	Name       string
	Status     Status
	Message    string
	FixCommand string
}

// Report is the result of Run.
type Report struct {
	Checks []Check
}

// OK reports whether no check failed. Warnings do not block startup.
func (r Report) OK() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return false
		}
	}
	return true
}

// Failed returns the failing checks.
func (r Report) Failed() []Check {
	var failed []Check
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			failed = append(failed, c)
		}
	}
	return failed
}

// Run executes every prerequisite check for cfg. Missing runtime directories
// are created.
func Run(cfg *config.Config) Report {
	checks := []Check{
		checkDirWritable("tmp directory", cfg.TmpDir),
		checkDirWritable("logs directory", cfg.LogsDir),
		checkEnvFile(cfg.EnvFile, cfg.EnvTemplate),
		checkListenAddr(cfg.ListenAddr),
	}
	if cfg.SessionBackend == config.SessionBackendSQLite {
		checks = append(checks, checkDirWritable("session database directory", filepath.Dir(cfg.SessionDBPath)))
	}
	return Report{Checks: checks}
}

func checkDirWritable(name, dir string) Check {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Check{
			Name:       name,
			Status:     StatusFail,
			Message:    fmt.Sprintf("cannot create %s: %v", dir, err),
			FixCommand: "mkdir -p " + dir,
		}
	}
	if err := probeWrite(dir); err != nil {
		return Check{
			Name:       name,
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s is not writable: %v", dir, err),
			FixCommand: "chmod u+w " + dir,
		}
	}
	return Check{Name: name, Status: StatusPass, Message: dir + " is writable"}
}

func checkEnvFile(path, template string) Check {
	const name = "env file"

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return Check{Name: name, Status: StatusFail, Message: path + " is a directory"}
	case err == nil:
		f, openErr := os.OpenFile(path, os.O_WRONLY, 0)
		if openErr != nil {
			return Check{
				Name:       name,
				Status:     StatusWarn,
				Message:    fmt.Sprintf("%s exists but is not writable; the setup wizard cannot save settings", path),
				FixCommand: "chmod u+w " + path,
			}
		}
		_ = f.Close()
		return Check{Name: name, Status: StatusPass, Message: path + " is writable"}
	case !errors.Is(err, fs.ErrNotExist):
		return Check{Name: name, Status: StatusFail, Message: fmt.Sprintf("cannot stat %s: %v", path, err)}
	}

	if _, err := os.Stat(template); err != nil {
		return Check{
			Name:       name,
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s does not exist and the template %s is missing", path, template),
			FixCommand: "touch " + template,
		}
	}
	dir := filepath.Dir(path)
	if err := probeWrite(dir); err != nil {
		return Check{
			Name:       name,
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s cannot be created from %s: %v", path, template, err),
			FixCommand: "chmod u+w " + dir,
		}
	}
	return Check{Name: name, Status: StatusPass, Message: fmt.Sprintf("%s will be created from %s", path, template)}
}

func checkListenAddr(addr string) Check {
	const name = "listen address"

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return Check{Name: name, Status: StatusFail, Message: fmt.Sprintf("invalid listen address %q: %v", addr, err)}
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return Check{Name: name, Status: StatusFail, Message: fmt.Sprintf("invalid port %q in listen address", port)}
	}
	return Check{Name: name, Status: StatusPass, Message: addr}
}

// probeWrite creates and removes a temporary file in dir.
func probeWrite(dir string) error {
	f, err := os.CreateTemp(dir, ".precheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// Write prints the report, one line per check plus fix hints. color styles
// the status labels for terminals.
func (r Report) Write(w io.Writer, color bool) error {
	var styles map[Status]lipgloss.Style
	if color {
		styles = labelStyles(w)
	}

	for _, c := range r.Checks {
		label := string(c.Status)
		if style, ok := styles[c.Status]; ok {
			label = style.Render(label)
		}
		if _, err := fmt.Fprintf(w, "[%s] %s: %s\n", label, c.Name, c.Message); err != nil {
			return err
		}
		if c.Status != StatusPass && c.FixCommand != "" {
			if _, err := fmt.Fprintf(w, "       fix: %s\n", c.FixCommand); err != nil {
				return err
			}
		}
	}
	return nil
}

// labelStyles returns the status label styles bound to w. The caller has
// already decided w is a terminal, so the profile is forced to basic ANSI.
func labelStyles(w io.Writer) map[Status]lipgloss.Style {
	renderer := lipgloss.NewRenderer(w)
	renderer.SetColorProfile(termenv.ANSI)
	return map[Status]lipgloss.Style{
		StatusPass: renderer.NewStyle().Foreground(lipgloss.Color("2")),
		StatusWarn: renderer.NewStyle().Foreground(lipgloss.Color("3")),
		StatusFail: renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}
