package tasks

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scanner/emacs-org-mcp/internal/org"
)

var (
	// ErrTaskNotFound is returned when no record matches an identifier.
	ErrTaskNotFound = errors.New("task not found")
	// ErrSectionNotFound is returned when a named section is missing.
	ErrSectionNotFound = errors.New("section not found")
)

// Options configures a Store.
type Options struct {
	Path             string // path to the tasks org file
	Vocab            org.Vocabulary
	ActiveSection    string
	CompletedSection string
	ChecklistSection string // High Level checklist; empty disables the mirror
}

// Store performs read-modify-write operations on the tasks file. Each
// operation loads the whole document, mutates the record in place, and
// rewrites the file; there is no internal locking (single-writer model).
type Store struct {
	opts  Options
	now   func() time.Time
	newID func() string
}

// NewStore creates a task store over the given tasks file.
func NewStore(opts Options) *Store {
	if len(opts.Vocab.Todo) == 0 && len(opts.Vocab.Done) == 0 {
		opts.Vocab = org.DefaultVocabulary()
	}
	return &Store{
		opts:  opts,
		now:   time.Now,
		newID: func() string { return strings.ToUpper(uuid.New().String()) },
	}
}

// UpdateResult describes the outcome of an Update.
type UpdateResult struct {
	Old        Task
	NewContent string
	Moved      bool
	OldSection string
	NewSection string
}

func (s *Store) load() (*org.Document, error) {
	doc, err := org.LoadFile(s.opts.Path, s.opts.Vocab)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks file: %w", err)
	}
	return doc, nil
}

func (s *Store) save(doc *org.Document) error {
	// Backups are best-effort; a failed backup never blocks the write.
	_, _ = org.BackupFile(s.opts.Path)
	return org.WriteFile(s.opts.Path, doc.Render())
}

func (s *Store) isTask(h *org.Heading) bool {
	return h.Level == 2 && s.opts.Vocab.Contains(h.Status)
}

func (s *Store) taskFromHeading(h *org.Heading, section string) Task {
	props := h.Properties()
	get := func(key string) string {
		v, _ := props.Get(key)
		return v
	}
	return Task{
		CustomID: get("CUSTOM_ID"),
		Headline: h.Title,
		Status:   h.Status,
		Section:  section,
		Content:  h.Text(),
		ID:       get("ID"),
		Created:  get("CREATED"),
		Modified: get("MODIFIED"),
		Closed:   get("CLOSED"),
	}
}

// sectionsToSearch resolves the requested section name, defaulting to
// Active then Completed.
func (s *Store) sectionsToSearch(section string) []string {
	if section != "" {
		return []string{section}
	}
	return []string{s.opts.ActiveSection, s.opts.CompletedSection}
}

// find locates a task heading. Match order, first hit wins across all
// requested sections: exact :CUSTOM_ID:, then "task-"-prefixed slug, then
// case-insensitive headline substring. The ordered passes keep slugs
// authoritative: an exact custom-id match always beats a looser match on
// an earlier task.
func (s *Store) find(doc *org.Document, identifier string, sections []string) (task, section *org.Heading, sectionName string, err error) {
	slug := "task-" + strings.ToLower(strings.TrimSpace(identifier))
	needle := strings.ToLower(strings.TrimSpace(identifier))

	passes := []func(h *org.Heading) bool{
		func(h *org.Heading) bool {
			cid, ok := h.Properties().Get("CUSTOM_ID")
			return ok && cid == identifier
		},
		func(h *org.Heading) bool {
			cid, ok := h.Properties().Get("CUSTOM_ID")
			return ok && cid == slug
		},
		func(h *org.Heading) bool {
			return strings.Contains(strings.ToLower(h.Title), needle)
		},
	}

	for _, match := range passes {
		for _, name := range sections {
			sec := doc.FindSection(name)
			if sec == nil {
				continue
			}
			for _, h := range sec.Children {
				if s.isTask(h) && match(h) {
					return h, sec, name, nil
				}
			}
		}
	}
	return nil, nil, "", fmt.Errorf("%w: %q", ErrTaskNotFound, identifier)
}

// Find returns the task matching identifier. When section is empty, the
// Active section is searched before the Completed one.
func (s *Store) Find(identifier, section string) (Task, error) {
	doc, err := s.load()
	if err != nil {
		return Task{}, err
	}
	h, _, name, err := s.find(doc, identifier, s.sectionsToSearch(section))
	if err != nil {
		return Task{}, err
	}
	return s.taskFromHeading(h, name), nil
}

// List returns every task in a section, in file order. A missing section
// yields an empty list, not an error.
func (s *Store) List(section string) ([]Task, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return s.tasksInSection(doc, section), nil
}

func (s *Store) tasksInSection(doc *org.Document, section string) []Task {
	sec := doc.FindSection(section)
	if sec == nil {
		return nil
	}
	var out []Task
	for _, h := range sec.Children {
		if s.isTask(h) {
			out = append(out, s.taskFromHeading(h, section))
		}
	}
	return out
}

// parseEntry parses a raw org fragment as a single task record.
func (s *Store) parseEntry(raw string) (*org.Heading, error) {
	doc, err := org.Parse(raw, s.opts.Vocab)
	if err != nil {
		return nil, err
	}
	if h := firstLevel2(doc.Children); h != nil {
		return h, nil
	}
	return nil, fmt.Errorf("%w: task entry must contain a level-2 heading (** TODO ...)", org.ErrParse)
}

func firstLevel2(headings []*org.Heading) *org.Heading {
	for _, h := range headings {
		if h.Level == 2 {
			return h
		}
		if c := firstLevel2(h.Children); c != nil {
			return c
		}
	}
	return nil
}

// Create parses rawEntry as one record and appends it as the last child
// of the named section. A missing :ID: gets a fresh upper-cased UUID and
// a missing :CREATED: gets the current time as an active timestamp.
// Creating in the Active section also adds a checklist line.
func (s *Store) Create(sectionName, rawEntry string) (string, string, error) {
	doc, err := s.load()
	if err != nil {
		return "", "", err
	}

	entry, err := s.parseEntry(rawEntry)
	if err != nil {
		return "", "", err
	}

	target := doc.FindSection(sectionName)
	if target == nil {
		return "", "", fmt.Errorf("%w: %q", ErrSectionNotFound, sectionName)
	}

	props := entry.Properties()
	if _, ok := props.Get("ID"); !ok {
		props.Set("ID", s.newID())
	}
	if _, ok := props.Get("CREATED"); !ok {
		props.Set("CREATED", org.Timestamp(s.now(), true))
	}

	target.AppendChild(entry)

	if sectionName == s.opts.ActiveSection {
		checklistAdd(s.checklistSection(doc), Describe(entry.Title, s.opts.Vocab.All()))
	}

	if err := s.save(doc); err != nil {
		return "", "", err
	}
	return sectionName, entry.Text(), nil
}

// Update replaces the task matching identifier with rawEntry, stamping
// :MODIFIED:, maintaining :CLOSED: across TODO/DONE transitions, and
// moving the record to the section its new status dictates. A record that
// stays in its section keeps its ordinal position among siblings; a moved
// record is appended to the end of the target section.
func (s *Store) Update(identifier, rawEntry string) (UpdateResult, error) {
	doc, err := s.load()
	if err != nil {
		return UpdateResult{}, err
	}

	oldHeading, oldSection, oldName, err := s.find(doc, identifier, s.sectionsToSearch(""))
	if err != nil {
		return UpdateResult{}, err
	}
	old := s.taskFromHeading(oldHeading, oldName)

	entry, err := s.parseEntry(rawEntry)
	if err != nil {
		return UpdateResult{}, err
	}

	props := entry.Properties()
	props.Set("MODIFIED", org.Timestamp(s.now(), false))
	if old.Created != "" {
		if _, ok := props.Get("CREATED"); !ok {
			props.Set("CREATED", old.Created)
		}
	}
	if old.Closed != "" {
		if _, ok := props.Get("CLOSED"); !ok {
			props.Set("CLOSED", old.Closed)
		}
	}

	// TODO -> DONE stamps :CLOSED:, DONE -> TODO clears it, anything
	// else leaves it alone.
	oldDone := s.opts.Vocab.IsDone(old.Status)
	newDone := s.opts.Vocab.IsDone(entry.Status)
	switch {
	case !oldDone && newDone:
		props.Set("CLOSED", org.Timestamp(s.now(), true))
	case oldDone && !newDone:
		props.Delete("CLOSED")
	}

	targetName := s.opts.ActiveSection
	if newDone {
		targetName = s.opts.CompletedSection
	}
	target := doc.FindSection(targetName)
	if target == nil {
		return UpdateResult{}, fmt.Errorf("%w: target section %q for status %q", ErrSectionNotFound, targetName, entry.Status)
	}

	moved := targetName != oldName
	if moved {
		oldSection.RemoveChild(oldHeading)
		target.AppendChild(entry)
		checklistSetCompleted(s.checklistSection(doc), Describe(entry.Title, s.opts.Vocab.All()), newDone)
	} else {
		idx := oldSection.IndexOf(oldHeading)
		oldSection.RemoveChild(oldHeading)
		target.InsertChild(idx, entry)
	}

	if err := s.save(doc); err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{
		Old:        old,
		NewContent: entry.Text(),
		Moved:      moved,
		OldSection: oldName,
		NewSection: targetName,
	}, nil
}

// Preview computes what Update would write without touching the file: the
// current record, the candidate's canonical content, and the section the
// new status would place it in. No timestamps are stamped.
func (s *Store) Preview(identifier, rawEntry string) (Task, string, string, error) {
	doc, err := s.load()
	if err != nil {
		return Task{}, "", "", err
	}
	h, _, name, err := s.find(doc, identifier, s.sectionsToSearch(""))
	if err != nil {
		return Task{}, "", "", err
	}
	entry, err := s.parseEntry(rawEntry)
	if err != nil {
		return Task{}, "", "", err
	}
	targetName := s.opts.ActiveSection
	if s.opts.Vocab.IsDone(entry.Status) {
		targetName = s.opts.CompletedSection
	}
	return s.taskFromHeading(h, name), entry.Text(), targetName, nil
}

// Move relocates a task between sections without altering its content,
// status, or timestamps.
func (s *Store) Move(identifier, fromSection, toSection string) (string, error) {
	doc, err := s.load()
	if err != nil {
		return "", err
	}
	h, from, _, err := s.find(doc, identifier, []string{fromSection})
	if err != nil {
		return "", err
	}
	target := doc.FindSection(toSection)
	if target == nil {
		return "", fmt.Errorf("%w: %q", ErrSectionNotFound, toSection)
	}
	from.RemoveChild(h)
	target.AppendChild(h)
	if err := s.save(doc); err != nil {
		return "", err
	}
	return h.Title, nil
}

// Search returns every task whose headline or content contains query,
// case-insensitively, scanning Active then Completed in file order.
func (s *Store) Search(query string) ([]Task, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []Task
	for _, section := range []string{s.opts.ActiveSection, s.opts.CompletedSection} {
		for _, t := range s.tasksInSection(doc, section) {
			if strings.Contains(strings.ToLower(t.Headline), q) ||
				strings.Contains(strings.ToLower(t.Content), q) {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

// ActiveSection returns the configured Active section name.
func (s *Store) ActiveSection() string { return s.opts.ActiveSection }

// CompletedSection returns the configured Completed section name.
func (s *Store) CompletedSection() string { return s.opts.CompletedSection }
