package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/indieinfra/hydrogen/reconcile"
)

// TestMain_Invoke runs in a subprocess to execute main().
func TestMain_Invoke(t *testing.T) {
	if os.Getenv("HYDROGEN_TEST_MAIN") != "1" {
		return
	}

	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	os.Exit(execute(args, os.Stdin, os.Stdout, os.Stderr))
}

func TestMain_MissingConfig(t *testing.T) {
	cmd := exec.Command(os.Args[0], "-test.run=TestMain_Invoke", "--", "serve", "--config", "does-not-exist.yml")
	cmd.Env = append(os.Environ(), "HYDROGEN_TEST_MAIN=1")

	output, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got err=%v output=%s", err, string(output))
	}

	if !strings.Contains(string(output), "failed to load configuration") {
		t.Fatalf("expected config load failure, got: %s", string(output))
	}
}

const baseConfig = `log:
  level: error
  format: json
shopify:
  api_key: key
  domain: myshop.myshopify.com
server:
  public_url: https://www.example.com
store:
  strategy: memory
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// unsetEnv clears key for the duration of the test so the env file can provide it.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key)
}

func TestSync_PrintsReport(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t, "SHOPIFY_ACCESS_TOKEN")
	configFile := writeFile(t, dir, "config.yml", baseConfig)
	envFile := writeFile(t, dir, ".env", "SHOPIFY_ACCESS_TOKEN=shpat_from_env\n")

	var out, errOut bytes.Buffer
	code := execute([]string{"sync", "--config", configFile, "--env-file", envFile}, strings.NewReader(""), &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut.String())
	}

	var report reconcile.Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v (%s)", err, out.String())
	}
	if report.RunID == "" || report.Pending != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSync_MissingCredentials(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t, "SHOPIFY_ACCESS_TOKEN")
	configFile := writeFile(t, dir, "config.yml", baseConfig)

	var out, errOut bytes.Buffer
	code := execute([]string{"sync", "--config", configFile, "--env-file", filepath.Join(dir, "missing.env")}, strings.NewReader(""), &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "failed to load configuration") {
		t.Fatalf("expected config failure, got %q", errOut.String())
	}
}

func TestUpload_MissingFile(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t, "SHOPIFY_ACCESS_TOKEN")
	configFile := writeFile(t, dir, "config.yml", baseConfig)
	envFile := writeFile(t, dir, ".env", "SHOPIFY_ACCESS_TOKEN=shpat_from_env\n")

	var out, errOut bytes.Buffer
	code := execute([]string{"upload", "--config", configFile, "--env-file", envFile, filepath.Join(dir, "nope.png")}, strings.NewReader(""), &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "open ") {
		t.Fatalf("expected open failure, got %q", errOut.String())
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestUpload_RequiresArgument(t *testing.T) {
	var out, errOut bytes.Buffer
	code := execute([]string{"upload"}, strings.NewReader(""), &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestVersion(t *testing.T) {
	var out, errOut bytes.Buffer
	code := execute([]string{"--version"}, strings.NewReader(""), &out, &errOut)
	if code != 0 || !strings.Contains(out.String(), version) {
		t.Fatalf("unexpected version output code=%d out=%q", code, out.String())
	}
}
