package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mdexport/internal/assets"
	"github.com/alnah/go-mdexport/internal/config"
)

// Finding levels, in increasing severity.
const (
	levelOK    = "ok"
	levelWarn  = "warn"
	levelError = "error"
)

// Overall report status.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// finding is one line of the doctor report.
type finding struct {
	Area    string `json:"area"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// doctorReport is what doctor prints, as text or JSON.
type doctorReport struct {
	Status   string    `json:"status"`
	Platform string    `json:"platform"`
	Browser  string    `json:"browser,omitempty"`
	Sandbox  bool      `json:"sandbox"`
	Findings []finding `json:"findings"`
	Config   string    `json:"config,omitempty"` // effective config as YAML
}

func (r *doctorReport) add(area, level, format string, args ...any) {
	r.Findings = append(r.Findings, finding{Area: area, Level: level, Message: fmt.Sprintf(format, args...)})
}

// finish derives Status from the worst finding.
func (r *doctorReport) finish() {
	r.Status = statusReady
	for _, f := range r.Findings {
		switch f.Level {
		case levelError:
			r.Status = statusErrors
			return
		case levelWarn:
			r.Status = statusWarnings
		}
	}
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	config      string
	json        bool
	printConfig bool
}

func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &doctorFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVar(&f.json, "json", false, "machine-readable output")
	fs.BoolVar(&f.printConfig, "print-config", false, "include the effective config as YAML")
	fs.Usage = func() { printDoctorUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: doctor takes no arguments", ErrUsage)
	}
	return f, nil
}

// runDoctorCmd checks whether this machine can serve the editor and export
// PDFs. Exit codes: 0 when ready (warnings included), 1 on errors.
func runDoctorCmd(args []string, env *Environment) int {
	flags, err := parseDoctorFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	report := &doctorReport{Platform: runtime.GOOS + "/" + runtime.GOARCH}

	cfg, err := loadSettings(commonFlags{config: flags.config}, renderFlags{}, env)
	if err != nil {
		report.add("config", levelError, "%v", err)
		cfg = config.DefaultConfig()
	} else if flags.printConfig {
		if out, err := config.Marshal(cfg); err == nil {
			report.Config = string(out)
		} else {
			report.add("config", levelWarn, "could not render config: %v", err)
		}
	}

	checkBrowser(report, env.Getenv, cfg.Export.Rasterizer)
	checkSandbox(report, env.Getenv)
	checkListenAddr(report, cfg.Server.Addr)
	checkAssetDir(report, cfg.Assets.BasePath)
	checkTempDir(report)
	report.finish()

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		printDoctorReport(env.Stdout, report)
	}

	if report.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// checkBrowser locates Chrome the way both rasterizers do: ROD_BROWSER_BIN
// first, then the rod launcher search path.
func checkBrowser(r *doctorReport, getenv func(string) string, backend string) {
	bin := getenv("ROD_BROWSER_BIN")
	if bin == "" {
		found := false
		if bin, found = launcher.LookPath(); !found {
			r.add("browser", levelError, "Chrome/Chromium not found; install it or set ROD_BROWSER_BIN")
			return
		}
	}
	if _, err := os.Stat(bin); err != nil {
		r.add("browser", levelError, "Chrome not found at %s", bin)
		return
	}
	r.Browser = bin

	out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- located browser binary
	if err != nil {
		r.add("browser", levelWarn, "found %s but --version failed: %v", bin, err)
	} else {
		r.add("browser", levelOK, "%s (%s)", strings.TrimSpace(string(out)), bin)
	}
	r.add("browser", levelOK, "PDF export uses the %s rasterizer", backend)
}

// checkSandbox mirrors the rasterizers: the sandbox is dropped when CI=true
// or ROD_BROWSER_BIN is set. Containers and CI runners usually need that.
func checkSandbox(r *doctorReport, getenv func(string) string) {
	r.Sandbox = getenv("CI") != "true" && getenv("ROD_BROWSER_BIN") == ""

	where := ""
	if ok, hint := isContainer(getenv); ok {
		where = "container (" + hint + ")"
	}
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if where == "" && getenv(v) != "" {
			where = "CI (" + v + ")"
		}
	}

	switch {
	case where != "" && r.Sandbox:
		r.add("sandbox", levelWarn, "%s detected but the Chrome sandbox is on; set CI=true", where)
	case r.Sandbox:
		r.add("sandbox", levelOK, "Chrome sandbox enabled")
	default:
		r.add("sandbox", levelOK, "Chrome sandbox disabled")
	}
}

// isContainer reports whether we run in a container and which signal said so.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("MDEXPORT_CONTAINER") == "1" {
		return true, "MDEXPORT_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkListenAddr tries the editor address. A busy port is a warning since
// serve --addr can pick another one.
func checkListenAddr(r *doctorReport, addr string) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		r.add("server", levelWarn, "cannot listen on %s: %v", addr, err)
		return
	}
	_ = ln.Close()
	r.add("server", levelOK, "%s is free", addr)
}

// checkAssetDir validates a custom asset directory when one is configured.
func checkAssetDir(r *doctorReport, dir string) {
	if dir == "" {
		return
	}
	if _, err := assets.NewFilesystemLoader(dir); err != nil {
		r.add("assets", levelError, "%v", err)
		return
	}
	r.add("assets", levelOK, "custom assets from %s", dir)
}

// checkTempDir verifies the directory capture pages are written to.
func checkTempDir(r *doctorReport) {
	dir := os.TempDir()
	probe := filepath.Join(dir, "mdexport-doctor-probe")
	if err := os.WriteFile(probe, []byte("probe"), 0o600); err != nil {
		r.add("system", levelError, "temp directory not writable: %s", dir)
		return
	}
	_ = os.Remove(probe)
	r.add("system", levelOK, "temp directory writable: %s", dir)
}

// printDoctorReport writes the report grouped by area.
func printDoctorReport(w io.Writer, r *doctorReport) {
	fmt.Fprintf(w, "mdexport doctor (%s)\n\n", r.Platform)

	area := ""
	for _, f := range r.Findings {
		if f.Area != area {
			if area != "" {
				fmt.Fprintln(w)
			}
			area = f.Area
			fmt.Fprintln(w, area)
		}
		fmt.Fprintf(w, "  [%s] %s\n", strings.ToUpper(f.Level), f.Message)
	}
	if area != "" {
		fmt.Fprintln(w)
	}

	if r.Config != "" {
		fmt.Fprintln(w, "effective config")
		for _, line := range strings.Split(strings.TrimRight(r.Config, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: ready")
	case statusWarnings:
		fmt.Fprintln(w, "Status: ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: not ready (see errors above)")
	}
}
