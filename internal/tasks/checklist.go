package tasks

import (
	"strings"

	"github.com/scanner/emacs-org-mcp/internal/org"
)

// The High Level checklist mirrors active tasks as plain-list checkboxes
// in its section body. All mirror operations are best-effort: a missing
// section is silently ignored and matching is exact on the description
// string.

func (s *Store) checklistSection(doc *org.Document) *org.Heading {
	if s.opts.ChecklistSection == "" {
		return nil
	}
	return doc.FindSection(s.opts.ChecklistSection)
}

// checklistAdd appends an unchecked item after the last non-blank body
// line of the checklist section.
func checklistAdd(section *org.Heading, description string) {
	if section == nil || description == "" {
		return
	}
	body := section.Body
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	section.Body = append(body, "- [ ] "+description)
}

// checklistSetCompleted rewrites the first checklist line containing the
// description, in either checked state, to the requested state.
func checklistSetCompleted(section *org.Heading, description string, completed bool) {
	if section == nil || description == "" {
		return
	}
	unchecked := "- [ ] " + description
	checked := "- [X] " + description
	want := unchecked
	if completed {
		want = checked
	}
	for i, line := range section.Body {
		if strings.Contains(line, unchecked) || strings.Contains(line, checked) {
			section.Body[i] = want
			return
		}
	}
}
