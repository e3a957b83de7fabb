// cmd/dealparse/main_test.go
package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCLIVersion(t *testing.T) {
	version = "test-version"
	buildTime = "2026-08-23"
	gitCommit = "abc123"

	output := captureOutput(func() {
		printVersion()
	})

	if !strings.Contains(output, "test-version") {
		t.Errorf("version output should contain version, got: %s", output)
	}
	if !strings.Contains(output, "2026-08-23") {
		t.Errorf("version output should contain build time, got: %s", output)
	}
	if !strings.Contains(output, "abc123") {
		t.Errorf("version output should contain git commit, got: %s", output)
	}
}

func TestCLIHelp(t *testing.T) {
	output := captureOutput(func() {
		printUsage()
	})

	commands := []string{"episode", "memo", "validate", "version", "help"}
	for _, cmd := range commands {
		if !strings.Contains(output, cmd) {
			t.Errorf("help output should contain command %q, got: %s", cmd, output)
		}
	}
}

func TestRunMemoFromFile(t *testing.T) {
	memoFile := filepath.Join(t.TempDir(), "memo.txt")
	content := "Company: Acme Robotics\nInvestment Amount: $500k\n"
	if err := os.WriteFile(memoFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write memo file: %v", err)
	}

	output := captureOutput(func() {
		if err := runMemo(memoFile); err != nil {
			t.Errorf("runMemo failed: %v", err)
		}
	})

	if !strings.Contains(output, `"company_name": "Acme Robotics"`) {
		t.Errorf("output missing company name, got: %s", output)
	}
	if !strings.Contains(output, "500000") {
		t.Errorf("output missing coerced amount, got: %s", output)
	}
}

func TestRunMemoEmptyFile(t *testing.T) {
	memoFile := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(memoFile, []byte("  \n"), 0644); err != nil {
		t.Fatalf("failed to write memo file: %v", err)
	}

	if err := runMemo(memoFile); err == nil {
		t.Error("expected error for empty memo")
	}
}

func TestRunMemoMissingFile(t *testing.T) {
	if err := runMemo(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  address: ":9090"
source:
  allowed_hosts:
    - podcast.example.com
`
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	output := captureOutput(func() {
		if err := validateConfig(configFile); err != nil {
			t.Errorf("validateConfig failed: %v", err)
		}
	})

	if !strings.Contains(output, "valid") {
		t.Errorf("expected validation confirmation, got: %s", output)
	}
}

func TestValidateConfigRejectsMalformed(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configFile, []byte("server: [not a map"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if err := validateConfig(configFile); err == nil {
		t.Error("expected error for malformed config")
	}
}

// captureOutput captures stdout during function execution.
func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	f()
	w.Close()
	os.Stdout = old
	out := <-outC

	return out
}
