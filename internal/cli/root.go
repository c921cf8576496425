package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/scanner/emacs-org-mcp/internal/approval"
	"github.com/scanner/emacs-org-mcp/internal/config"
	"github.com/scanner/emacs-org-mcp/internal/journal"
	"github.com/scanner/emacs-org-mcp/internal/org"
	"github.com/scanner/emacs-org-mcp/internal/tasks"
)

var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "org-mcp",
		Short: "MCP server for org-mode tasks and journal files",
		Long: `org-mcp keeps an org-mode task ledger and day-partitioned journal in
sync for an agent. Run without arguments it serves the MCP protocol on
stdio; the subcommands expose the same operations for direct use.`,
		RunE:          runServe, // Default action is serve
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// deps bundles the configured stores behind the commands.
type deps struct {
	cfg     *config.Config
	tasks   *tasks.Store
	journal *journal.Store
	gate    *approval.Gate
}

func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	vocab := org.Vocabulary{Todo: cfg.States.Todo, Done: cfg.States.Done}
	taskStore := tasks.NewStore(tasks.Options{
		Path:             cfg.TasksFile,
		Vocab:            vocab,
		ActiveSection:    cfg.Sections.Active,
		CompletedSection: cfg.Sections.Completed,
		ChecklistSection: cfg.Sections.HighLevel,
	})
	gate := approval.NewGate(approval.Config{
		Enabled:      cfg.Approval.Enabled,
		ReviewerPath: cfg.Approval.ReviewerPath,
		SupportFile:  cfg.Approval.SupportFile,
		Timeout:      time.Duration(cfg.Approval.TimeoutSeconds) * time.Second,
	})

	return &deps{
		cfg:     cfg,
		tasks:   taskStore,
		journal: journal.NewStore(cfg.JournalDir),
		gate:    gate,
	}, nil
}
