// Package tasks maintains the org task ledger: find/create/update/move
// operations on task records, the TODO/DONE lifecycle bookkeeping, and
// the derived High Level checklist.
package tasks

import (
	"regexp"
	"strings"
)

// Task is one ledger record parsed out of the tasks file.
type Task struct {
	CustomID string // :CUSTOM_ID: slug, e.g. "task-gh-28"
	Headline string // headline text without the todo keyword
	Status   string // "TODO" or "DONE" (or a configured keyword)
	Section  string // section the task currently lives in
	Content  string // full canonical org text of the record
	ID       string // :ID: UUID
	Created  string // :CREATED: active timestamp, set once
	Modified string // :MODIFIED: inactive timestamp, set on every update
	Closed   string // :CLOSED: active timestamp, present iff DONE via transition
}

var (
	ticketRe       = regexp.MustCompile(`\b([A-Z]+-\d+)\b`)
	ticketPrefixRe = regexp.MustCompile(`^[A-Z]+-\d+\s+`)
)

// TicketID extracts a GH/JIRA-style ticket token from the headline, or
// returns the empty string when none is present.
func (t *Task) TicketID() string {
	m := ticketRe.FindStringSubmatch(t.Headline)
	if m == nil {
		return ""
	}
	return m[1]
}

// ReviewContext names the review artifacts for a task update: the
// CUSTOM_ID when the task has one, otherwise the lowered identifier.
// Spaces become hyphens so the name is safe in a file name.
func ReviewContext(t Task, identifier string) string {
	name := t.CustomID
	if name == "" {
		name = strings.ToLower(identifier)
	}
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
}

// Describe strips a leading todo keyword and ticket token from a
// headline, leaving the plain description used to key checklist lines.
//
//	"TODO GH-178 Add multi-provider support" -> "Add multi-provider support"
//	"DONE Fix authentication bug"            -> "Fix authentication bug"
func Describe(headline string, keywords []string) string {
	text := headline
	for _, kw := range keywords {
		if strings.HasPrefix(text, kw+" ") {
			text = text[len(kw)+1:]
			break
		}
	}
	text = ticketPrefixRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
