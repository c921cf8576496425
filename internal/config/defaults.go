package config

import (
	"os"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Sections: SectionsConfig{
			Active:    "Tasks",
			Completed: "Completed Tasks",
			HighLevel: "High Level Tasks (in order)",
		},
		States: StatesConfig{
			Todo: []string{"TODO"},
			Done: []string{"DONE"},
		},
		Approval: ApprovalConfig{
			TimeoutSeconds: 300,
		},
	}
}

// WriteDefault writes a commented default configuration to a file
func WriteDefault(path string) error {
	content := `# org-mcp Configuration
version: "1"

# Root directory containing the org files
# org_dir: ~/org

# Tasks file; defaults to <org_dir>/tasks.org
# tasks_file: ~/org/tasks.org

# Journal directory; defaults to <org_dir>/journal
# journal_dir: ~/org/journal

# Section display names inside the tasks file
sections:
  active: Tasks
  completed: Completed Tasks
  high_level: High Level Tasks (in order)

# Status keyword vocabulary
states:
  todo: [TODO]
  done: [DONE]

# Interactive change approval via emacsclient/ediff
approval:
  enabled: false
  # reviewer_path: /usr/local/bin/emacsclient
  # support_file: ~/.emacs.d/org-mcp-ediff.el
  timeout_seconds: 300
`
	return os.WriteFile(path, []byte(content), 0644)
}
