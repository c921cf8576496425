// Package journal manages day-partitioned journal files: one file per
// calendar day named YYYYMMDD (optionally with a .org extension, matching
// the directory's existing convention), each holding a date heading and a
// sequence of timestamped entries.
package journal

import (
	"strings"
	"time"
)

// Entry is a single journal note. Its identity is (FileDate, Line): the
// 0-based offset of the heading line within its file. Line is not stable
// across edits to other entries in the same file, so callers must
// re-resolve it with a fresh parse before every update.
type Entry struct {
	Time     string   // HH:MM
	Headline string   // single line
	Tags     []string // ordered, may be empty
	Content  string   // body text, may be empty
	Line     int
	FileDate string // YYYYMMDD
}

// Text serializes the entry: a "** HH:MM headline :tags:" heading line
// followed by the right-trimmed body when one exists.
func (e *Entry) Text() string {
	head := "** " + e.Time + " " + e.Headline
	if len(e.Tags) > 0 {
		head += " :" + strings.Join(e.Tags, ":") + ":"
	}
	if strings.TrimSpace(e.Content) == "" {
		return head
	}
	return head + "\n" + strings.TrimRight(e.Content, " \t\r\n")
}

// Date returns the calendar day the entry belongs to.
func (e *Entry) Date() (time.Time, error) {
	return time.Parse("20060102", e.FileDate)
}
