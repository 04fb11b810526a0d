package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultDataDirName = ".chathub"
	defaultDatabase    = "chathub.db"
)

// ResolveRoot normalizes a data directory and creates it when missing.
// An empty path resolves to ~/.chathub.
func ResolveRoot(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(homeDir, defaultDataDirName)
	}

	expanded, err := expandHome(trimmed)
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve absolute data path: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	if err := os.MkdirAll(cleanPath, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}

	return cleanPath, nil
}

// resolveDatabasePath treats an empty path or a directory as the data root
// and places chathub.db inside it.
func resolveDatabasePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == ":memory:" {
		return trimmed, nil
	}
	if trimmed != "" && filepath.Ext(trimmed) != "" {
		expanded, err := expandHome(trimmed)
		if err != nil {
			return "", err
		}
		return filepath.Abs(expanded)
	}

	root, err := ResolveRoot(trimmed)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, defaultDatabase), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
