package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultProfileDir is where the browser keeps the WhatsApp Web login state.
const DefaultProfileDir = "~/.whatsapp-web"

// SessionManager owns the persistent browser profile directory. The directory
// itself is an opaque blob written by the browser; all we do is create and
// delete it.
type SessionManager struct {
	profileDir string
}

func NewSessionManager(profileDir string) (*SessionManager, error) {
	if profileDir == "" {
		profileDir = DefaultProfileDir
	}

	expanded, err := ExpandPath(profileDir)
	if err != nil {
		return nil, err
	}

	return &SessionManager{profileDir: expanded}, nil
}

func (sm *SessionManager) Dir() string {
	return sm.profileDir
}

// Ensure creates the profile directory so the browser can open it.
func (sm *SessionManager) Ensure() error {
	if err := os.MkdirAll(sm.profileDir, 0755); err != nil {
		return fmt.Errorf("failed to create profile directory %s: %w", sm.profileDir, err)
	}
	return nil
}

// Clear deletes the saved session. The next run has to scan the QR again.
func (sm *SessionManager) Clear() error {
	if err := os.RemoveAll(sm.profileDir); err != nil {
		return fmt.Errorf("failed to remove profile directory %s: %w", sm.profileDir, err)
	}
	return nil
}

// Locked reports whether Chromium singleton lock files are present in the
// profile, which usually means another browser instance has it open. This is
// only used to improve launch error messages; nothing coordinates on it.
func (sm *SessionManager) Locked() bool {
	for _, name := range []string{"SingletonLock", "SingletonCookie", "SingletonSocket"} {
		// Lstat because SingletonLock is a dangling symlink on Linux.
		if _, err := os.Lstat(filepath.Join(sm.profileDir, name)); err == nil {
			return true
		}
	}
	return false
}

// ExpandPath resolves a leading ~ against the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
