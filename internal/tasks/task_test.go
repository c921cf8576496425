package tasks

import "testing"

func TestDescribe(t *testing.T) {
	keywords := []string{"TODO", "DONE"}
	cases := []struct {
		headline string
		want     string
	}{
		{"GH-12 Fix the flaky watcher", "Fix the flaky watcher"},
		{"TODO GH-12 Fix the flaky watcher", "Fix the flaky watcher"},
		{"Fix the flaky watcher", "Fix the flaky watcher"},
		{"DONE Ship it", "Ship it"},
	}
	for _, c := range cases {
		if got := Describe(c.headline, keywords); got != c.want {
			t.Errorf("Describe(%q) = %q, want %q", c.headline, got, c.want)
		}
	}
}

func TestTicketID(t *testing.T) {
	task := Task{Headline: "GH-42 Fix the flaky watcher"}
	if got := task.TicketID(); got != "GH-42" {
		t.Errorf("TicketID = %q, want GH-42", got)
	}
	none := Task{Headline: "Fix the flaky watcher"}
	if got := none.TicketID(); got != "" {
		t.Errorf("TicketID = %q, want empty", got)
	}
}

func TestReviewContext(t *testing.T) {
	withID := Task{CustomID: "task-gh-42"}
	if got := ReviewContext(withID, "whatever"); got != "task-gh-42" {
		t.Errorf("ReviewContext = %q, want task-gh-42", got)
	}

	// Headline-substring identifiers must come out filesystem-safe.
	noID := Task{}
	if got := ReviewContext(noID, " Fix The Parser "); got != "fix-the-parser" {
		t.Errorf("ReviewContext = %q, want fix-the-parser", got)
	}
}
