package config

// Config represents the full org-mcp configuration
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Root directory containing the org files
	OrgDir string `yaml:"org_dir" mapstructure:"org_dir"`

	// Tasks file path; defaults to <org_dir>/tasks.org
	TasksFile string `yaml:"tasks_file" mapstructure:"tasks_file"`

	// Journal directory; defaults to <org_dir>/journal
	JournalDir string `yaml:"journal_dir" mapstructure:"journal_dir"`

	// Section display names inside the tasks file
	Sections SectionsConfig `yaml:"sections" mapstructure:"sections"`

	// Status keyword vocabulary
	States StatesConfig `yaml:"states" mapstructure:"states"`

	// Interactive change approval via emacsclient/ediff
	Approval ApprovalConfig `yaml:"approval" mapstructure:"approval"`
}

// SectionsConfig names the top-level sections the synchronizer manages
type SectionsConfig struct {
	Active    string `yaml:"active" mapstructure:"active"`
	Completed string `yaml:"completed" mapstructure:"completed"`
	HighLevel string `yaml:"high_level" mapstructure:"high_level"`
}

// StatesConfig holds the open and closed status keywords
type StatesConfig struct {
	Todo []string `yaml:"todo" mapstructure:"todo"`
	Done []string `yaml:"done" mapstructure:"done"`
}

// ApprovalConfig configures the ediff approval gate
type ApprovalConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	ReviewerPath   string `yaml:"reviewer_path" mapstructure:"reviewer_path"`
	SupportFile    string `yaml:"support_file" mapstructure:"support_file"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}
