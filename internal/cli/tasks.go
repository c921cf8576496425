package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/scanner/emacs-org-mcp/internal/format"
	"github.com/scanner/emacs-org-mcp/internal/tasks"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Work with the task ledger",
}

var tasksListCmd = &cobra.Command{
	Use:   "list [section]",
	Short: "List tasks in a section (default: the active section)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTasksList,
}

var tasksGetCmd = &cobra.Command{
	Use:   "get <identifier>",
	Short: "Show one task by custom id, ticket id, or headline substring",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksGet,
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create <section>",
	Short: "Create a task from a complete org entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksCreate,
}

var tasksUpdateCmd = &cobra.Command{
	Use:   "update <identifier>",
	Short: "Replace a task with a new org entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksUpdate,
}

var tasksMoveCmd = &cobra.Command{
	Use:   "move <identifier> <from-section> <to-section>",
	Short: "Move a task between sections without changing it",
	Args:  cobra.ExactArgs(3),
	RunE:  runTasksMove,
}

var tasksSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search headlines and content across all sections",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksSearch,
}

func init() {
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksGetCmd)
	tasksCmd.AddCommand(tasksCreateCmd)
	tasksCmd.AddCommand(tasksUpdateCmd)
	tasksCmd.AddCommand(tasksMoveCmd)
	tasksCmd.AddCommand(tasksSearchCmd)

	tasksListCmd.Flags().String("format", "text", "Output format: text, json, or yaml")
	tasksGetCmd.Flags().String("section", "", "Section to search (default: all)")
	tasksGetCmd.Flags().String("format", "text", "Output format: text, json, or yaml")
	tasksCreateCmd.Flags().String("entry", "", "Task entry in org format")
	tasksCreateCmd.Flags().String("file", "", "Read the task entry from a file")
	tasksUpdateCmd.Flags().String("entry", "", "New task entry in org format")
	tasksUpdateCmd.Flags().String("file", "", "Read the new task entry from a file")
}

// readEntry resolves the --entry/--file pair; exactly one must be set.
func readEntry(cmd *cobra.Command) (string, error) {
	entry, _ := cmd.Flags().GetString("entry")
	file, _ := cmd.Flags().GetString("file")
	switch {
	case entry != "" && file != "":
		return "", fmt.Errorf("--entry and --file are mutually exclusive")
	case entry != "":
		return entry, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read entry file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("one of --entry or --file is required")
	}
}

func printStructured(v interface{}, outFormat string) error {
	switch outFormat {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
	default:
		return fmt.Errorf("unknown format %q", outFormat)
	}
	return nil
}

func runTasksList(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	section := d.cfg.Sections.Active
	if len(args) == 1 {
		section = args[0]
	}
	list, err := d.tasks.List(section)
	if err != nil {
		return err
	}
	if outFormat, _ := cmd.Flags().GetString("format"); outFormat != "text" {
		return printStructured(list, outFormat)
	}
	fmt.Println(format.TaskList(list, section))
	return nil
}

func runTasksGet(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	section, _ := cmd.Flags().GetString("section")
	task, err := d.tasks.Find(args[0], section)
	if err != nil {
		return err
	}
	if outFormat, _ := cmd.Flags().GetString("format"); outFormat != "text" {
		return printStructured(task, outFormat)
	}
	fmt.Println(format.TaskDetail(task))
	return nil
}

func runTasksCreate(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	entry, err := readEntry(cmd)
	if err != nil {
		return err
	}
	section, content, err := d.tasks.Create(args[0], entry)
	if err != nil {
		return err
	}
	fmt.Println(format.TaskCreateResult(section, content))
	return nil
}

func runTasksUpdate(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	entry, err := readEntry(cmd)
	if err != nil {
		return err
	}
	identifier := args[0]

	old, proposed, _, err := d.tasks.Preview(identifier, entry)
	if err != nil {
		return err
	}
	outcome := d.gate.Request(cmd.Context(), old.Content, proposed, tasks.ReviewContext(old, identifier))
	if !outcome.Approved {
		fmt.Printf("✗ Update rejected for '%s'; no changes written.\n", identifier)
		return nil
	}

	res, err := d.tasks.Update(identifier, outcome.Content)
	if err != nil {
		return err
	}
	fmt.Println(format.TaskUpdateResult(res))
	return nil
}

func runTasksMove(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	headline, err := d.tasks.Move(args[0], args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Println(format.MoveResult(headline, args[1], args[2]))
	return nil
}

func runTasksSearch(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	hits, err := d.tasks.Search(args[0])
	if err != nil {
		return err
	}
	fmt.Println(format.TaskSearchResults(hits))
	return nil
}
