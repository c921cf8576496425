package org

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LoadFile parses the org file at path.
func LoadFile(path string, vocab Vocabulary) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(string(data), vocab)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// WriteFile writes content to path, creating parent directories and
// guaranteeing a trailing newline.
func WriteFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// BackupFile copies path to a timestamped sibling before a rewrite,
// replacing any existing extension: tasks.org -> tasks.20250109_143000.bak.
// A missing file is a no-op; the original path is returned unchanged.
func BackupFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", err
	}
	stamp := time.Now().Format("20060102_150405")
	backup := strings.TrimSuffix(path, filepath.Ext(path)) + "." + stamp + ".bak"
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", backup, err)
	}
	return backup, nil
}
