package format

import (
	"strings"
	"testing"
	"time"

	"github.com/scanner/emacs-org-mcp/internal/journal"
	"github.com/scanner/emacs-org-mcp/internal/tasks"
)

func TestTaskUpdateResultMoved(t *testing.T) {
	res := tasks.UpdateResult{
		Old:        tasks.Task{Content: "** TODO X\nold body"},
		NewContent: "** DONE X\nnew body",
		Moved:      true,
		OldSection: "Tasks",
		NewSection: "Completed Tasks",
	}
	got := TaskUpdateResult(res)
	if !strings.HasPrefix(got, "✓ Task Updated and Moved: Tasks → Completed Tasks") {
		t.Errorf("header wrong:\n%s", got)
	}
	for _, want := range []string{"Changes:", "− ** TODO X", "+ ** DONE X", "Final:", "new body"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestTaskUpdateResultInPlace(t *testing.T) {
	res := tasks.UpdateResult{
		Old:        tasks.Task{Content: "same"},
		NewContent: "same",
		NewSection: "Tasks",
	}
	got := TaskUpdateResult(res)
	if !strings.HasPrefix(got, "✓ Task Updated in Tasks") {
		t.Errorf("header wrong:\n%s", got)
	}
	if !strings.Contains(got, "(no changes)") {
		t.Errorf("missing no-changes sentinel:\n%s", got)
	}
}

func TestTaskListFormatting(t *testing.T) {
	list := []tasks.Task{
		{Status: "TODO", Headline: "GH-9 Fix the build", CustomID: "task-gh-9"},
		{Status: "TODO", Headline: "Plain chore"},
	}
	got := TaskList(list, "Tasks")
	if !strings.Contains(got, "  TODO  [GH-9] GH-9 Fix the build (#task-gh-9)") {
		t.Errorf("ticketed line wrong:\n%s", got)
	}
	if !strings.Contains(got, "  TODO  Plain chore") {
		t.Errorf("plain line wrong:\n%s", got)
	}
	if TaskList(nil, "Tasks") != "No tasks in Tasks" {
		t.Error("empty list message wrong")
	}
}

func TestSearchResultCounts(t *testing.T) {
	if got := TaskSearchResults(nil); !strings.HasPrefix(got, "Found 0 tasks") {
		t.Errorf("zero = %q", got)
	}
	one := []tasks.Task{{Status: "TODO", Headline: "x"}}
	if got := TaskSearchResults(one); !strings.HasPrefix(got, "Found 1 task\n") {
		t.Errorf("one = %q", got)
	}
	entries := []journal.Entry{{Time: "09:00", Headline: "a"}, {Time: "10:00", Headline: "b"}}
	if got := JournalSearchResults(entries); !strings.HasPrefix(got, "Found 2 journal entries") {
		t.Errorf("two = %q", got)
	}
}

func TestJournalListPreviewTruncation(t *testing.T) {
	entries := []journal.Entry{{
		Time:     "09:00",
		Headline: "Long notes",
		Tags:     []string{"deep"},
		Content:  "one\ntwo\nthree\nfour",
	}}
	got := JournalList(entries, "2026-08-28")
	if !strings.Contains(got, "  09:00  Long notes :deep:") {
		t.Errorf("heading line wrong:\n%s", got)
	}
	if !strings.Contains(got, "         two") || strings.Contains(got, "three") {
		t.Errorf("preview should stop after two lines:\n%s", got)
	}
}

func TestJournalUpdateResult(t *testing.T) {
	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	old := journal.Entry{Time: "09:00", Headline: "Standup", Content: "before"}
	updated := journal.Entry{Time: "09:00", Headline: "Standup", Content: "after"}
	got := JournalUpdateResult(old, updated, day)
	if !strings.HasPrefix(got, "✓ Journal Entry Updated for 2026-08-28") {
		t.Errorf("header wrong:\n%s", got)
	}
	if !strings.Contains(got, "− before") || !strings.Contains(got, "+ after") {
		t.Errorf("diff missing:\n%s", got)
	}
}

func TestMoveResult(t *testing.T) {
	got := MoveResult("Fix it", "Tasks", "Completed Tasks")
	want := "✓ Task Moved: Tasks → Completed Tasks\n  Fix it"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
