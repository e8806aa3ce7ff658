package main

// Notes:
// - Browser detection depends on the host, so tests pin ROD_BROWSER_BIN to a
//   path that does not exist and assert on the findings it drives.

import (
	"bytes"
	"encoding/json"
	"net"
	"strings"
	"testing"
)

func findingsFor(r *doctorReport, area string) []finding {
	var out []finding
	for _, f := range r.Findings {
		if f.Area == area {
			out = append(out, f)
		}
	}
	return out
}

func TestRunDoctorCmd_JSON(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv(t, map[string]string{
		"ROD_BROWSER_BIN":    "/nonexistent/chrome",
		"MDEXPORT_PAGE_SIZE": "letter",
		"MDEXPORT_ADDR":      "127.0.0.1:0",
	})
	code := runDoctorCmd([]string{"--json", "--print-config"}, env)

	var report doctorReport
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout.String())
	}
	if code != ExitGeneral || report.Status != statusErrors {
		t.Errorf("code = %d, status = %q, want errors", code, report.Status)
	}
	if report.Sandbox {
		t.Error("sandbox should be off when ROD_BROWSER_BIN is set")
	}
	browser := findingsFor(&report, "browser")
	if len(browser) != 1 || !strings.Contains(browser[0].Message, "/nonexistent/chrome") {
		t.Errorf("browser findings = %+v", browser)
	}
	if !strings.Contains(report.Config, "letter") {
		t.Errorf("config should reflect MDEXPORT_PAGE_SIZE, got %q", report.Config)
	}
}

func TestRunDoctorCmd_Flags(t *testing.T) {
	t.Parallel()

	env, _, stderr := testEnv(t, nil)
	if code := runDoctorCmd([]string{"--bogus"}, env); code != ExitUsage {
		t.Errorf("bad flag code = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(stderr.String(), "unknown flag") {
		t.Errorf("stderr = %q", stderr.String())
	}

	env, _, _ = testEnv(t, nil)
	if code := runDoctorCmd([]string{"extra"}, env); code != ExitUsage {
		t.Errorf("positional arg code = %d, want %d", code, ExitUsage)
	}

	env, _, _ = testEnv(t, nil)
	if code := runDoctorCmd([]string{"--help"}, env); code != ExitSuccess {
		t.Errorf("--help code = %d, want %d", code, ExitSuccess)
	}
}

func TestIsContainer_Override(t *testing.T) {
	t.Parallel()

	getenv := func(k string) string {
		if k == "MDEXPORT_CONTAINER" {
			return "1"
		}
		return ""
	}
	ok, hint := isContainer(getenv)
	if !ok || hint != "MDEXPORT_CONTAINER=1" {
		t.Errorf("isContainer() = %v, %q", ok, hint)
	}
}

func TestCheckSandbox(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		vars      map[string]string
		wantLevel string
		wantOn    bool
	}{
		{"CI runner with sandbox", map[string]string{"GITHUB_ACTIONS": "true"}, levelWarn, true},
		{"CI=true drops sandbox", map[string]string{"CI": "true"}, levelOK, false},
		{"container override", map[string]string{"MDEXPORT_CONTAINER": "1", "CI": "true"}, levelOK, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &doctorReport{}
			checkSandbox(r, func(k string) string { return tt.vars[k] })
			if r.Sandbox != tt.wantOn {
				t.Errorf("Sandbox = %v, want %v", r.Sandbox, tt.wantOn)
			}
			if len(r.Findings) != 1 || r.Findings[0].Level != tt.wantLevel {
				t.Errorf("findings = %+v", r.Findings)
			}
		})
	}
}

func TestCheckListenAddr_Busy(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	r := &doctorReport{}
	checkListenAddr(r, ln.Addr().String())
	if len(r.Findings) != 1 || r.Findings[0].Level != levelWarn {
		t.Errorf("findings = %+v", r.Findings)
	}
}

func TestCheckAssetDir(t *testing.T) {
	t.Parallel()

	r := &doctorReport{}
	checkAssetDir(r, "")
	if len(r.Findings) != 0 {
		t.Errorf("empty dir should be skipped, got %+v", r.Findings)
	}

	checkAssetDir(r, t.TempDir())
	checkAssetDir(r, "/nonexistent/assets")
	if len(r.Findings) != 2 || r.Findings[0].Level != levelOK || r.Findings[1].Level != levelError {
		t.Errorf("findings = %+v", r.Findings)
	}
}

func TestDoctorReport_Finish(t *testing.T) {
	t.Parallel()

	r := &doctorReport{}
	r.finish()
	if r.Status != statusReady {
		t.Errorf("empty report status = %q", r.Status)
	}

	r.add("a", levelWarn, "w")
	r.finish()
	if r.Status != statusWarnings {
		t.Errorf("status = %q, want warnings", r.Status)
	}

	r.add("b", levelError, "e")
	r.add("c", levelWarn, "w")
	r.finish()
	if r.Status != statusErrors {
		t.Errorf("status = %q, want errors", r.Status)
	}
}

func TestPrintDoctorReport(t *testing.T) {
	t.Parallel()

	r := &doctorReport{Platform: "linux/amd64", Config: "page:\n  size: a4\n"}
	r.add("browser", levelOK, "Chromium 130 (/usr/bin/chromium)")
	r.add("browser", levelOK, "PDF export uses the rod rasterizer")
	r.add("server", levelWarn, "cannot listen on 127.0.0.1:8080")
	r.finish()

	var buf bytes.Buffer
	printDoctorReport(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"mdexport doctor (linux/amd64)",
		"browser\n  [OK] Chromium 130",
		"server\n  [WARN] cannot listen",
		"effective config\n  page:",
		"Status: ready with warnings",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "browser\n") != 1 {
		t.Errorf("area header repeated:\n%s", out)
	}
}
