package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempStore(t *testing.T) *ContactStore {
	t.Helper()
	return NewContactStore(filepath.Join(t.TempDir(), "whatsapp", "config.json"))
}

func TestContactStoreAddAndResolve(t *testing.T) {
	store := tempStore(t)

	if err := store.Add("mom", "+49 155 1234567"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := store.Resolve("mom")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "491551234567" {
		t.Errorf("Resolve(mom) = %q, want 491551234567", got)
	}
}

func TestContactStoreResolveFallsBackToNumber(t *testing.T) {
	store := tempStore(t)

	got, err := store.Resolve("+1 (555) 867-5309")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "15558675309" {
		t.Errorf("Resolve = %q, want 15558675309", got)
	}
}

func TestContactStoreResolveUnknownLabelFails(t *testing.T) {
	store := tempStore(t)

	if _, err := store.Resolve("nobody"); err == nil {
		t.Fatal("resolving a digitless unknown label should fail")
	}
}

func TestContactStoreLoadMissingFile(t *testing.T) {
	store := tempStore(t)

	labels, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(labels) != 0 {
		t.Errorf("expected empty map, got %v", labels)
	}
}

func TestContactStoreLoadRejectsInvalidJSON(t *testing.T) {
	store := tempStore(t)
	writeConfig(t, store.Path(), "{not json")

	if _, err := store.Load(); err == nil {
		t.Fatal("invalid JSON should fail to load")
	}
}

func TestContactStoreLoadRejectsNonObject(t *testing.T) {
	store := tempStore(t)
	writeConfig(t, store.Path(), `["not", "an", "object"]`)

	if _, err := store.Load(); err == nil {
		t.Fatal("a non-object config should fail to load")
	}
}

func TestContactStoreLoadRejectsNonObjectLabels(t *testing.T) {
	store := tempStore(t)
	writeConfig(t, store.Path(), `{"contact_labels": ["mom"]}`)

	if _, err := store.Load(); err == nil {
		t.Fatal("a non-object contact_labels should fail to load")
	}
}

func TestContactStoreLoadToleratesNullLabels(t *testing.T) {
	store := tempStore(t)
	writeConfig(t, store.Path(), `{"contact_labels": null}`)

	labels, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(labels) != 0 {
		t.Errorf("expected empty map, got %v", labels)
	}
}

func TestContactStoreLoadToleratesNullConfig(t *testing.T) {
	store := tempStore(t)
	writeConfig(t, store.Path(), `null`)

	labels, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(labels) != 0 {
		t.Errorf("expected empty map, got %v", labels)
	}
}

func TestContactStoreLoadDropsBadEntries(t *testing.T) {
	store := tempStore(t)
	writeConfig(t, store.Path(), `{"contact_labels": {"mom": "49155", "bad": 7, "blank": "  "}}`)

	labels, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(labels) != 1 || labels["mom"] != "49155" {
		t.Errorf("expected only mom to survive, got %v", labels)
	}
}

func TestContactStoreSaveFormatting(t *testing.T) {
	store := tempStore(t)

	if err := store.Save(map[string]string{"zeta": "2", "alpha": "1"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("reading config back failed: %v", err)
	}

	text := string(data)
	if !strings.HasSuffix(text, "\n") {
		t.Error("config file should end in a newline")
	}
	if !strings.Contains(text, "  \"contact_labels\"") {
		t.Error("config file should be indented with two spaces")
	}
	if strings.Index(text, "alpha") > strings.Index(text, "zeta") {
		t.Error("labels should be saved in sorted order")
	}
}

func TestContactStoreAddPreservesUnrelatedContent(t *testing.T) {
	store := tempStore(t)
	writeConfig(t, store.Path(), `{"contact_labels": {"mom": "49155", "bad": 7}, "theme": "dark"}`)

	if err := store.Add("dad", "49156"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("reading config back failed: %v", err)
	}

	// Hand-edited extras survive the write, including entries Load drops.
	text := string(data)
	for _, want := range []string{`"theme": "dark"`, `"bad": 7`, `"mom": "49155"`, `"dad": "49156"`} {
		if !strings.Contains(text, want) {
			t.Errorf("config lost %s after Add:\n%s", want, text)
		}
	}

	labels, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(labels) != 2 {
		t.Errorf("Load should clean the bad entry, got %v", labels)
	}
}

func TestContactStoreRemove(t *testing.T) {
	store := tempStore(t)

	if err := store.Add("mom", "49155"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Remove("mom"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove("mom"); err == nil {
		t.Fatal("removing an unknown label should fail")
	}
}

func TestDefaultConfigPathHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath failed: %v", err)
	}
	want := filepath.Join(dir, "whatsapp", "config.json")
	if path != want {
		t.Errorf("DefaultConfigPath = %q, want %q", path, want)
	}
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}
