package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/scanner/emacs-org-mcp/internal/org"
)

// ErrEntryNotFound is returned when a line number does not address an entry.
var ErrEntryNotFound = errors.New("journal entry not found")

var (
	entryRe    = regexp.MustCompile(`^\*\*\s+(\d{2}:\d{2})\s+(.+?)(?:\s+:([^:]+(?::[^:]+)*):)?$`)
	clockRe    = regexp.MustCompile(`^\d{2}:\d{2}$`)
	datedOrgRe = regexp.MustCompile(`^\d{8}\.org$`)
	datedRe    = regexp.MustCompile(`^\d{8}$`)
)

// validEntryFields guards against writing a heading that entryRe can no
// longer parse, which would make the entry invisible to every reader.
func validEntryFields(timeStr, headline string) error {
	if !clockRe.MatchString(timeStr) {
		return fmt.Errorf("%w: entry time must be HH:MM, got %q", org.ErrParse, timeStr)
	}
	if strings.TrimSpace(headline) == "" {
		return fmt.Errorf("%w: entry headline must not be empty", org.ErrParse)
	}
	return nil
}

// Store reads and rewrites journal files under a single directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a journal store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the journal directory.
func (s *Store) Dir() string { return s.dir }

// detectExtension picks the extension for new files from the directory's
// majority convention. Ties and empty directories default to no extension.
func (s *Store) detectExtension() string {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return ""
	}
	var withOrg, bare int
	for _, f := range files {
		switch {
		case datedOrgRe.MatchString(f.Name()):
			withOrg++
		case datedRe.MatchString(f.Name()):
			bare++
		}
	}
	if withOrg > bare {
		return ".org"
	}
	return ""
}

// PathFor resolves the journal file path for a date. An existing file
// wins regardless of convention, .org checked first; otherwise the
// directory's detected convention decides.
func (s *Store) PathFor(date time.Time) string {
	base := filepath.Join(s.dir, date.Format("20060102"))
	if fileExists(base + ".org") {
		return base + ".org"
	}
	if fileExists(base) {
		return base
	}
	return base + s.detectExtension()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// dateOf extracts the YYYYMMDD portion of a journal file path.
func dateOf(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".org")
}

func isHeadingLine(line string) bool {
	return strings.HasPrefix(line, "** ") || strings.HasPrefix(line, "* ")
}

// parseAt parses the entry whose heading sits at lines[start]. The body
// runs until the next heading line or end of file. The returned index is
// the first line past the entry.
func parseAt(lines []string, start int, fileDate string) (Entry, int, error) {
	m := entryRe.FindStringSubmatch(lines[start])
	if m == nil {
		return Entry{}, start, fmt.Errorf("%w: invalid journal entry at line %d", org.ErrParse, start)
	}
	var tags []string
	if m[3] != "" {
		tags = strings.Split(m[3], ":")
	}
	end := start + 1
	for end < len(lines) && !isHeadingLine(lines[end]) {
		end++
	}
	return Entry{
		Time:     m[1],
		Headline: strings.TrimSpace(m[2]),
		Tags:     tags,
		Content:  strings.Join(lines[start+1:end], "\n"),
		Line:     start,
		FileDate: fileDate,
	}, end, nil
}

// Entries parses every entry in the given day's file. Parsing is
// best-effort: a missing file yields no entries and malformed heading
// lines are skipped rather than aborting the file.
func (s *Store) Entries(date time.Time) []Entry {
	return s.entriesIn(s.PathFor(date))
}

// Today returns today's entries.
func (s *Store) Today() []Entry {
	return s.Entries(s.now())
}

func (s *Store) entriesIn(path string) []Entry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	fileDate := dateOf(path)

	var entries []Entry
	for i := 0; i < len(lines); {
		if !strings.HasPrefix(lines[i], "** ") {
			i++
			continue
		}
		entry, next, err := parseAt(lines, i, fileDate)
		if err != nil {
			i++
			continue
		}
		entries = append(entries, entry)
		i = next
	}
	return entries
}

// Create appends an entry to the day's file, creating the file with a
// "* YYYY-MM-DD" heading when it does not exist yet. The prior file
// content, if any, gets a timestamped backup first.
func (s *Store) Create(date time.Time, timeStr, headline, content string, tags []string) (Entry, error) {
	if err := validEntryFields(timeStr, headline); err != nil {
		return Entry{}, err
	}
	path := s.PathFor(date)
	entry := Entry{
		Time:     timeStr,
		Headline: headline,
		Tags:     tags,
		Content:  content,
		FileDate: date.Format("20060102"),
	}

	var text string
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		text = strings.TrimRight(string(existing), " \t\r\n") + "\n\n" + entry.Text()
	case errors.Is(err, fs.ErrNotExist):
		text = date.Format("* 2006-01-02") + "\n\n" + entry.Text()
	default:
		return Entry{}, fmt.Errorf("failed to read journal file: %w", err)
	}

	_, _ = org.BackupFile(path)
	if err := org.WriteFile(path, text); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Update replaces the entry whose heading is at line, splicing the new
// serialized entry into exactly that line range. Entries outside the
// range pass through verbatim, though their line numbers may shift; the
// caller must re-parse before any further update.
func (s *Store) Update(path string, line int, timeStr, headline, content string, tags []string) (old, updated Entry, date time.Time, err error) {
	if err := validEntryFields(timeStr, headline); err != nil {
		return Entry{}, Entry{}, time.Time{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, Entry{}, time.Time{}, fmt.Errorf("failed to read journal file: %w", err)
	}
	lines := strings.Split(string(data), "\n")
	if line < 0 || line >= len(lines) {
		return Entry{}, Entry{}, time.Time{}, fmt.Errorf("%w: line %d out of range", ErrEntryNotFound, line)
	}

	fileDate := dateOf(path)
	old, end, err := parseAt(lines, line, fileDate)
	if err != nil {
		return Entry{}, Entry{}, time.Time{}, err
	}

	updated = Entry{
		Time:     timeStr,
		Headline: headline,
		Tags:     tags,
		Content:  content,
		Line:     line,
		FileDate: fileDate,
	}

	spliced := make([]string, 0, len(lines))
	spliced = append(spliced, lines[:line]...)
	spliced = append(spliced, strings.Split(updated.Text(), "\n")...)
	spliced = append(spliced, lines[end:]...)

	_, _ = org.BackupFile(path)
	if err := org.WriteFile(path, strings.Join(spliced, "\n")); err != nil {
		return Entry{}, Entry{}, time.Time{}, err
	}

	date, err = time.Parse("20060102", fileDate)
	if err != nil {
		return Entry{}, Entry{}, time.Time{}, fmt.Errorf("%w: journal file name %q is not a date", org.ErrParse, filepath.Base(path))
	}
	return old, updated, date, nil
}

// Search scans daysBack consecutive days ending today, newest first,
// matching query case-insensitively against headline and content.
// Missing files are skipped.
func (s *Store) Search(query string, daysBack int) []Entry {
	q := strings.ToLower(query)
	var matches []Entry
	for i := 0; i < daysBack; i++ {
		day := s.now().AddDate(0, 0, -i)
		for _, e := range s.entriesIn(s.PathFor(day)) {
			if strings.Contains(strings.ToLower(e.Headline+" "+e.Content), q) {
				matches = append(matches, e)
			}
		}
	}
	return matches
}

// ParseEntryText parses a serialized entry fragment, the inverse of
// Entry.Text. Used to accept reviewer-edited entry content.
func ParseEntryText(text, fileDate string) (Entry, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	entry, _, err := parseAt(lines, 0, fileDate)
	return entry, err
}
