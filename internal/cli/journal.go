package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scanner/emacs-org-mcp/internal/format"
	"github.com/scanner/emacs-org-mcp/internal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Work with the daily journal",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries for a date (default: today)",
	RunE:  runJournalList,
}

var journalCreateCmd = &cobra.Command{
	Use:   "create <headline>",
	Short: "Append an entry to a day's journal file",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalCreate,
}

var journalUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rewrite the entry at a line number",
	RunE:  runJournalUpdate,
}

var journalSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search recent journal entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalSearch,
}

func init() {
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalCreateCmd)
	journalCmd.AddCommand(journalUpdateCmd)
	journalCmd.AddCommand(journalSearchCmd)

	journalListCmd.Flags().String("date", "", "Date in YYYY-MM-DD format")
	journalCreateCmd.Flags().String("date", "", "Date in YYYY-MM-DD format (default: today)")
	journalCreateCmd.Flags().String("time", "", "Time in HH:MM format (default: now)")
	journalCreateCmd.Flags().String("content", "", "Entry body")
	journalCreateCmd.Flags().StringSlice("tag", nil, "Entry tag (repeatable)")
	journalUpdateCmd.Flags().String("date", "", "Date in YYYY-MM-DD format (required)")
	journalUpdateCmd.Flags().Int("line", -1, "Entry heading line number (required)")
	journalUpdateCmd.Flags().String("time", "", "New time in HH:MM format (required)")
	journalUpdateCmd.Flags().String("headline", "", "New headline (required)")
	journalUpdateCmd.Flags().String("content", "", "New body")
	journalUpdateCmd.Flags().StringSlice("tag", nil, "New tag (repeatable, replaces existing)")
	journalSearchCmd.Flags().Int("days", 30, "How many days back to search")
}

func flagDate(cmd *cobra.Command) (time.Time, error) {
	v, _ := cmd.Flags().GetString("date")
	if v == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), nil
	}
	return time.ParseInLocation("2006-01-02", v, time.Local)
}

func runJournalList(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	date, err := flagDate(cmd)
	if err != nil {
		return err
	}
	entries := d.journal.Entries(date)
	fmt.Println(format.JournalList(entries, date.Format("2006-01-02")))
	return nil
}

func runJournalCreate(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	date, err := flagDate(cmd)
	if err != nil {
		return err
	}
	timeStr, _ := cmd.Flags().GetString("time")
	if timeStr == "" {
		timeStr = time.Now().Format("15:04")
	}
	content, _ := cmd.Flags().GetString("content")
	tags, _ := cmd.Flags().GetStringSlice("tag")

	entry, err := d.journal.Create(date, timeStr, args[0], content, tags)
	if err != nil {
		return err
	}
	fmt.Println(format.JournalCreateResult(date, entry))
	return nil
}

func runJournalUpdate(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	dateStr, _ := cmd.Flags().GetString("date")
	line, _ := cmd.Flags().GetInt("line")
	timeStr, _ := cmd.Flags().GetString("time")
	headline, _ := cmd.Flags().GetString("headline")
	if dateStr == "" || line < 0 || timeStr == "" || headline == "" {
		return fmt.Errorf("--date, --line, --time, and --headline are required")
	}
	date, err := flagDate(cmd)
	if err != nil {
		return err
	}
	content, _ := cmd.Flags().GetString("content")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	path := d.journal.PathFor(date)
	fileDate := date.Format("20060102")

	var old journal.Entry
	oldFound := false
	for _, e := range d.journal.Entries(date) {
		if e.Line == line {
			old, oldFound = e, true
			break
		}
	}
	if !oldFound {
		return fmt.Errorf("no journal entry at line %d in %s", line, path)
	}

	proposed := journal.Entry{
		Time: timeStr, Headline: headline, Tags: tags, Content: content,
		Line: line, FileDate: fileDate,
	}
	outcome := d.gate.Request(cmd.Context(), old.Text(), proposed.Text(), "journal-"+fileDate)
	if !outcome.Approved {
		fmt.Printf("✗ Update rejected for journal entry at line %d; no changes written.\n", line)
		return nil
	}
	if outcome.Content != proposed.Text() {
		edited, err := journal.ParseEntryText(outcome.Content, fileDate)
		if err != nil {
			return err
		}
		proposed = edited
	}

	oldEntry, newEntry, day, err := d.journal.Update(path, line, proposed.Time, proposed.Headline, proposed.Content, proposed.Tags)
	if err != nil {
		return err
	}
	fmt.Println(format.JournalUpdateResult(oldEntry, newEntry, day))
	return nil
}

func runJournalSearch(cmd *cobra.Command, args []string) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	days, _ := cmd.Flags().GetInt("days")
	fmt.Println(format.JournalSearchResults(d.journal.Search(args[0], days)))
	return nil
}
