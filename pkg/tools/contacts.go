package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigDir returns the directory holding the contact config and send
// history, honoring XDG_CONFIG_HOME the way the rest of the desktop does.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "whatsapp"), nil
}

// DefaultConfigPath returns the contact label config file path.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DefaultHistoryPath returns the send history database path.
func DefaultHistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// ContactStore reads and writes the contact label map kept in config.json.
// The file may carry top-level keys other than contact_labels; those are
// round-tripped untouched so hand edits survive an add.
type ContactStore struct {
	path string
}

func NewContactStore(path string) *ContactStore {
	return &ContactStore{path: path}
}

func (cs *ContactStore) Path() string {
	return cs.path
}

// loadRoot reads the whole config object. A missing file and a JSON null both
// mean an empty config.
func (cs *ContactStore) loadRoot() (map[string]any, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", cs.path, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in config file %s: %w", cs.path, err)
	}
	if raw == nil {
		return map[string]any{}, nil
	}
	root, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config file %s must contain a JSON object", cs.path)
	}
	return root, nil
}

// saveRoot writes the config back with stable formatting so the file stays
// diffable when edited by hand.
func (cs *ContactStore) saveRoot(root map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(cs.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", cs.path, err)
	}
	return nil
}

// rawLabels returns the contact_labels object as stored, without cleaning.
// Absent and null both mean an empty map.
func (cs *ContactStore) rawLabels(root map[string]any) (map[string]any, error) {
	switch values := root["contact_labels"].(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return values, nil
	default:
		return nil, fmt.Errorf("contact_labels in %s must be a JSON object", cs.path)
	}
}

// Load reads the label map. A missing file means no labels yet. Entries whose
// value is not a non-empty string are dropped.
func (cs *ContactStore) Load() (map[string]string, error) {
	root, err := cs.loadRoot()
	if err != nil {
		return nil, err
	}
	raw, err := cs.rawLabels(root)
	if err != nil {
		return nil, err
	}

	labels := make(map[string]string, len(raw))
	for label, value := range raw {
		number, ok := value.(string)
		if !ok || strings.TrimSpace(number) == "" {
			continue
		}
		labels[label] = number
	}
	return labels, nil
}

// Save replaces the stored label map wholesale, keeping unrelated top-level
// keys. Keys come out sorted and two-space indented with a trailing newline.
func (cs *ContactStore) Save(labels map[string]string) error {
	root, err := cs.loadRoot()
	if err != nil {
		return err
	}
	root["contact_labels"] = labels
	return cs.saveRoot(root)
}

// Add stores a label for a number, creating the config file if needed.
// Existing entries are left as they are, even malformed ones.
func (cs *ContactStore) Add(label, number string) error {
	label = strings.TrimSpace(label)
	number = strings.TrimSpace(number)
	if label == "" {
		return fmt.Errorf("label must not be empty")
	}
	if number == "" {
		return fmt.Errorf("number must not be empty")
	}

	root, err := cs.loadRoot()
	if err != nil {
		return err
	}
	raw, err := cs.rawLabels(root)
	if err != nil {
		return err
	}
	raw[label] = number
	root["contact_labels"] = raw

	return cs.saveRoot(root)
}

// Remove deletes a label. Unknown labels are an error so typos are visible.
func (cs *ContactStore) Remove(label string) error {
	root, err := cs.loadRoot()
	if err != nil {
		return err
	}
	raw, err := cs.rawLabels(root)
	if err != nil {
		return err
	}
	if _, ok := raw[label]; !ok {
		return fmt.Errorf("contact label %q not found", label)
	}
	delete(raw, label)
	root["contact_labels"] = raw

	return cs.saveRoot(root)
}

// Resolve maps a CLI argument to dialable digits. Arguments that are not a
// known label are treated as a phone number directly, so both
// `wasend mom hi` and `wasend +49155512345 hi` work.
func (cs *ContactStore) Resolve(arg string) (string, error) {
	labels, err := cs.Load()
	if err != nil {
		return "", err
	}

	target, ok := labels[arg]
	if !ok {
		target = arg
	}

	return NormalizePhone(target)
}
