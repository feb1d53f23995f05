package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wasend/pkg/tools"
)

// runCommand builds the CLI and runs it with the given arguments, capturing
// what the framework itself writes (help, version).
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &buf

	err := cmd.Run(context.Background(), append([]string{"wasend"}, args...))
	return buf.String(), err
}

func TestVersionFlagIgnoresOtherArguments(t *testing.T) {
	out, err := runCommand(t, "--version", "mom", "hello")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("version output %q does not contain %q", out, version)
	}
}

func TestVersionFlagShortAlias(t *testing.T) {
	out, err := runCommand(t, "-v")
	if err != nil {
		t.Fatalf("-v failed: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("version output %q does not contain %q", out, version)
	}
}

func TestRunRequiresRecipient(t *testing.T) {
	_, err := runCommand(t)
	if err == nil {
		t.Fatal("running without arguments should fail")
	}
	if !strings.Contains(err.Error(), "contact or phone number") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunRequiresMessage(t *testing.T) {
	_, err := runCommand(t, "mom")
	if err == nil {
		t.Fatal("a recipient without a message should fail")
	}
	if !strings.Contains(err.Error(), "no message given for mom") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunRejectsDigitlessRecipient(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// An unknown label falls back to being parsed as a number, which has no
	// digits here, so the run fails before any browser is started.
	_, err := runCommand(t, "nobody", "hi")
	if err == nil {
		t.Fatal("an unknown digitless label should fail")
	}
	if !strings.Contains(err.Error(), "digits") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAddContactStandalone(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := runCommand(t, "--add-contact", "mom", "+49 155 1234567"); err != nil {
		t.Fatalf("--add-contact failed: %v", err)
	}

	configPath, err := tools.DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath failed: %v", err)
	}
	number, err := tools.NewContactStore(configPath).Resolve("mom")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if number != "491551234567" {
		t.Errorf("Resolve(mom) = %q, want 491551234567", number)
	}
}

func TestAddContactAlias(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := runCommand(t, "-ac", "office", "15558675309"); err != nil {
		t.Fatalf("-ac failed: %v", err)
	}

	configPath, err := tools.DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath failed: %v", err)
	}
	labels, err := tools.NewContactStore(configPath).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if labels["office"] != "15558675309" {
		t.Errorf("labels = %v, want office saved", labels)
	}
}

func TestAddContactArgumentCount(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := runCommand(t, "--add-contact", "mom"); err == nil {
		t.Error("--add-contact without a number should fail")
	}
	if _, err := runCommand(t, "--add-contact", "mom", "49155", "extra"); err == nil {
		t.Error("--add-contact with extra arguments should fail")
	}
}

func TestUpgradeRejectsArguments(t *testing.T) {
	_, err := runCommand(t, "--upgrade", "mom", "hello")
	if err == nil {
		t.Fatal("--upgrade with positional arguments should fail")
	}
}

func TestClearAloneRemovesProfile(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "profile")
	if err := os.MkdirAll(filepath.Join(profile, "Default"), 0755); err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}

	if _, err := runCommand(t, "--clear", "--profile", profile); err != nil {
		t.Fatalf("--clear failed: %v", err)
	}
	if _, err := os.Stat(profile); !os.IsNotExist(err) {
		t.Error("profile directory should be removed by --clear")
	}
}

func TestClearMissingProfileSucceeds(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "never-created")

	if _, err := runCommand(t, "--clear", "--profile", profile); err != nil {
		t.Fatalf("--clear on a missing profile failed: %v", err)
	}
}
