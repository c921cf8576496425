// Package format renders operation results as the human-readable text
// returned to protocol and CLI callers.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/scanner/emacs-org-mcp/internal/diff"
	"github.com/scanner/emacs-org-mcp/internal/journal"
	"github.com/scanner/emacs-org-mcp/internal/tasks"
)

// TaskUpdateResult renders a completed update with its diff and final
// content.
func TaskUpdateResult(res tasks.UpdateResult) string {
	var lines []string
	if res.Moved {
		lines = append(lines, fmt.Sprintf("✓ Task Updated and Moved: %s → %s", res.OldSection, res.NewSection))
	} else {
		lines = append(lines, fmt.Sprintf("✓ Task Updated in %s", res.NewSection))
	}
	lines = append(lines,
		"",
		"Changes:",
		diff.Lines(res.Old.Content, res.NewContent),
		"",
		"Final:",
		res.NewContent,
	)
	return strings.Join(lines, "\n")
}

// TaskCreateResult renders a creation confirmation.
func TaskCreateResult(section, content string) string {
	return strings.Join([]string{
		"✓ Task Created in " + section,
		"",
		content,
	}, "\n")
}

// TaskPreview renders proposed task changes without committing them.
func TaskPreview(old tasks.Task, newContent, oldSection, newSection string) string {
	var head string
	if oldSection != newSection {
		head = fmt.Sprintf("Preview: Task will move %s → %s", oldSection, newSection)
	} else {
		head = "Preview: Task in " + newSection
	}
	return strings.Join([]string{
		head,
		"",
		"Proposed changes:",
		diff.Lines(old.Content, newContent),
	}, "\n")
}

// TaskList renders a section's tasks as a compact listing.
func TaskList(list []tasks.Task, section string) string {
	if len(list) == 0 {
		return "No tasks in " + section
	}
	lines := []string{section, strings.Repeat("=", len(section)), ""}
	for i := range list {
		t := &list[i]
		ticket := ""
		if id := t.TicketID(); id != "" {
			ticket = "[" + id + "] "
		}
		name := ""
		if t.CustomID != "" {
			name = " (#" + t.CustomID + ")"
		}
		lines = append(lines, fmt.Sprintf("  %s  %s%s%s", t.Status, ticket, t.Headline, name))
	}
	return strings.Join(lines, "\n")
}

// TaskDetail renders one task in full.
func TaskDetail(t tasks.Task) string {
	ticket := ""
	if id := t.TicketID(); id != "" {
		ticket = "[" + id + "] "
	}
	name := ""
	if t.CustomID != "" {
		name = "\n#+NAME: " + t.CustomID
	}
	return strings.Join([]string{
		fmt.Sprintf("%s  %s%s", t.Status, ticket, t.Headline),
		"Section: " + t.Section + name,
		"",
		t.Content,
	}, "\n")
}

// TaskSearchResults renders a task search with its hit count.
func TaskSearchResults(hits []tasks.Task) string {
	lines := []string{fmt.Sprintf("Found %d %s", len(hits), plural(len(hits), "task")), ""}
	for i := range hits {
		t := &hits[i]
		ticket := ""
		if id := t.TicketID(); id != "" {
			ticket = "[" + id + "] "
		}
		lines = append(lines, fmt.Sprintf("  %s  %s%s", t.Status, ticket, t.Headline))
	}
	return strings.Join(lines, "\n")
}

// MoveResult renders a section-to-section move confirmation.
func MoveResult(headline, fromSection, toSection string) string {
	return fmt.Sprintf("✓ Task Moved: %s → %s\n  %s", fromSection, toSection, headline)
}

// JournalCreateResult renders a journal creation confirmation.
func JournalCreateResult(date time.Time, entry journal.Entry) string {
	return strings.Join([]string{
		"✓ Journal Entry Created for " + date.Format("2006-01-02"),
		"",
		entry.Text(),
	}, "\n")
}

// JournalUpdateResult renders a completed journal update with its diff.
func JournalUpdateResult(old, updated journal.Entry, date time.Time) string {
	return strings.Join([]string{
		"✓ Journal Entry Updated for " + date.Format("2006-01-02"),
		"",
		"Changes:",
		diff.Lines(old.Text(), updated.Text()),
		"",
		"Final:",
		updated.Text(),
	}, "\n")
}

// JournalPreview renders proposed journal changes without committing them.
func JournalPreview(old, proposed journal.Entry) string {
	return strings.Join([]string{
		fmt.Sprintf("Preview: Journal entry at %s on %s", old.Time, old.FileDate),
		"",
		"Proposed changes:",
		diff.Lines(old.Text(), proposed.Text()),
	}, "\n")
}

// JournalList renders one day's entries with two-line body previews.
func JournalList(entries []journal.Entry, dateStr string) string {
	if len(entries) == 0 {
		return "No journal entries for " + dateStr
	}
	lines := []string{"Journal Entries for " + dateStr, strings.Repeat("=", 30), ""}
	for i := range entries {
		e := &entries[i]
		lines = append(lines, fmt.Sprintf("  %s  %s%s", e.Time, e.Headline, tagSuffix(e.Tags)))
		body := strings.TrimSpace(e.Content)
		if body == "" {
			continue
		}
		preview := strings.Split(body, "\n")
		if len(preview) > 2 {
			preview = preview[:2]
		}
		for _, line := range preview {
			lines = append(lines, "         "+line)
		}
	}
	return strings.Join(lines, "\n")
}

// JournalDetail renders one entry in full.
func JournalDetail(e journal.Entry) string {
	return strings.Join([]string{
		fmt.Sprintf("%s  %s%s", e.Time, e.Headline, tagSuffix(e.Tags)),
		"Date: " + e.FileDate,
		"",
		e.Text(),
	}, "\n")
}

// JournalSearchResults renders a journal search with its hit count.
func JournalSearchResults(hits []journal.Entry) string {
	lines := []string{fmt.Sprintf("Found %d %s", len(hits), plural(len(hits), "journal entry")), ""}
	for i := range hits {
		e := &hits[i]
		lines = append(lines, fmt.Sprintf("  %s  %s%s (%s)", e.Time, e.Headline, tagSuffix(e.Tags), e.FileDate))
	}
	return strings.Join(lines, "\n")
}

func tagSuffix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " :" + strings.Join(tags, ":") + ":"
}

func plural(n int, noun string) string {
	if n == 1 {
		return noun
	}
	if strings.HasSuffix(noun, "y") {
		return strings.TrimSuffix(noun, "y") + "ies"
	}
	return noun + "s"
}
