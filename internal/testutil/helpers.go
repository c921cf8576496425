// Package testutil provides shared helpers for org-mcp integration tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestEnv provides an isolated org directory layout for a single test.
type TestEnv struct {
	Home       string // Mocked HOME directory
	OrgDir     string // $HOME/org equivalent
	TasksFile  string // OrgDir/tasks.org
	JournalDir string // OrgDir/journal
	t          *testing.T
}

// SetupTestEnv creates an isolated org tree with mocked HOME and a clean
// environment. Uses t.TempDir() for automatic cleanup and t.Setenv() for
// automatic env restoration.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpHome := t.TempDir()
	orgDir := filepath.Join(tmpHome, "org")
	journalDir := filepath.Join(orgDir, "journal")

	if err := os.MkdirAll(journalDir, 0755); err != nil {
		t.Fatalf("Failed to create journal dir: %v", err)
	}

	t.Setenv("HOME", tmpHome)
	t.Setenv("ORG_DIR", orgDir)
	t.Setenv("JOURNAL_DIR", journalDir)

	// Keep tests hermetic: no ediff reviewer, no stray section overrides.
	for _, key := range []string{
		"TASKS_FILE", "ACTIVE_SECTION", "COMPLETED_SECTION", "HIGH_LEVEL_SECTION",
		"EMACS_EDIFF_APPROVAL", "EMACSCLIENT_PATH", "EDIFF_SUPPORT_FILE", "EDIFF_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}

	return &TestEnv{
		Home:       tmpHome,
		OrgDir:     orgDir,
		TasksFile:  filepath.Join(orgDir, "tasks.org"),
		JournalDir: journalDir,
		t:          t,
	}
}

// WriteTasksFile writes content to the environment's tasks.org.
func (e *TestEnv) WriteTasksFile(content string) {
	e.t.Helper()
	e.WriteFile(e.TasksFile, content)
}

// WriteJournalFile writes a journal file with the given name (for example
// "20260828.org" or a bare "20260828") into the journal directory.
func (e *TestEnv) WriteJournalFile(name, content string) {
	e.t.Helper()
	e.WriteFile(filepath.Join(e.JournalDir, name), content)
}

// WriteFile creates a file with the given content. Relative paths resolve
// against OrgDir.
func (e *TestEnv) WriteFile(path, content string) {
	e.t.Helper()

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(e.OrgDir, path)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		e.t.Fatalf("Failed to create directory for %s: %v", fullPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		e.t.Fatalf("Failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile reads a file from the test environment. Relative paths resolve
// against OrgDir.
func (e *TestEnv) ReadFile(path string) string {
	e.t.Helper()

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(e.OrgDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		e.t.Fatalf("Failed to read file %s: %v", fullPath, err)
	}
	return string(data)
}

// FileExists checks if a file exists in the test environment.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(e.OrgDir, path)
	}

	_, err := os.Stat(fullPath)
	return err == nil
}
