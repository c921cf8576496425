package testutil

import "fmt"

// SampleTasksOrg returns a tasks.org fixture with one checklist item, two
// active tasks, and one completed task.
func SampleTasksOrg() string {
	return `* High Level Tasks (in order)
- [ ] Ship the importer
* Tasks
** TODO GH-1 Ship the importer
:PROPERTIES:
:CUSTOM_ID: task-gh-1
:ID: 5E2F1D1C-0000-4000-8000-000000000001
:CREATED: <2026-08-01 Sat 09:00>
:END:
- parse the feed
** TODO Refactor parser
:PROPERTIES:
:CUSTOM_ID: task-refactor-parser
:END:
* Completed Tasks
** DONE Old cleanup
:PROPERTIES:
:CUSTOM_ID: task-old-cleanup
:CLOSED: <2026-07-15 Wed 17:30>
:END:
`
}

// SampleJournalDay returns a journal file body for the given ISO date
// ("2006-01-02") with two timed entries.
func SampleJournalDay(isoDate string) string {
	return fmt.Sprintf(`* %s

** 09:00 Standup :team:
- discussed the importer

** 14:30 Code review
left comments on the parser PR
`, isoDate)
}
