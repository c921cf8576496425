package org

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParse marks structural failures in org input. There is no recovery:
// a malformed fragment is surfaced immediately to the caller.
var ErrParse = errors.New("org parse error")

// Vocabulary is the set of todo keywords recognized on headline lines.
type Vocabulary struct {
	Todo []string
	Done []string
}

// DefaultVocabulary returns the stock TODO/DONE keyword set.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{Todo: []string{"TODO"}, Done: []string{"DONE"}}
}

// All returns every keyword, todo states first.
func (v Vocabulary) All() []string {
	all := make([]string, 0, len(v.Todo)+len(v.Done))
	all = append(all, v.Todo...)
	all = append(all, v.Done...)
	return all
}

// Contains reports whether word is a recognized todo or done keyword.
func (v Vocabulary) Contains(word string) bool {
	for _, s := range v.All() {
		if s == word {
			return true
		}
	}
	return false
}

// IsDone reports whether word is one of the done-state keywords.
func (v Vocabulary) IsDone(word string) bool {
	for _, s := range v.Done {
		if s == word {
			return true
		}
	}
	return false
}

// Document is a parsed org file: any preamble lines (#+TITLE: and
// friends) followed by a tree of headings.
type Document struct {
	Preamble []string
	Children []*Heading
}

var (
	headlineRe = regexp.MustCompile(`^(\*+)\s+(.*?)\s*$`)
	tagSuffixRe = regexp.MustCompile(`\s+:([A-Za-z0-9_@#%]+(?::[A-Za-z0-9_@#%]+)*):$`)
	propertyRe  = regexp.MustCompile(`^\s*:([A-Za-z0-9_]+):\s*(.*?)\s*$`)
)

// Parse reads org text into a heading tree. Headline todo keywords are
// recognized against vocab; everything between headings is kept as raw
// body lines so untouched records survive a rewrite byte-for-byte.
func Parse(text string, vocab Vocabulary) (*Document, error) {
	doc := &Document{}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if text == "" {
		lines = nil
	}

	// stack[i] is the most recent heading at level i+1
	var stack []*Heading

	i := 0
	for i < len(lines) {
		line := lines[i]
		m := headlineRe.FindStringSubmatch(line)
		if m == nil {
			if len(stack) == 0 {
				doc.Preamble = append(doc.Preamble, line)
			} else {
				top := stack[len(stack)-1]
				top.Body = append(top.Body, line)
			}
			i++
			continue
		}

		h := &Heading{Level: len(m[1]), raw: line}
		h.Status, h.Title, h.Tags = splitHeadline(m[2], vocab)

		// Attach to the nearest shallower heading, or the document root.
		for len(stack) >= h.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			doc.Children = append(doc.Children, h)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, h)
		}
		stack = append(stack, h)
		i++

		// Property drawer, when present, sits directly under the headline.
		if i < len(lines) && strings.TrimSpace(lines[i]) == ":PROPERTIES:" {
			drawer, next, err := parseDrawer(lines, i)
			if err != nil {
				return nil, err
			}
			h.props = drawer
			i = next
		}
	}

	return doc, nil
}

// splitHeadline separates an optional todo keyword and a tag suffix from
// the headline text.
func splitHeadline(rest string, vocab Vocabulary) (status, title string, tags []string) {
	title = rest
	if m := tagSuffixRe.FindStringSubmatch(title); m != nil {
		tags = strings.Split(m[1], ":")
		title = title[:len(title)-len(m[0])]
	}
	word, remainder, found := strings.Cut(title, " ")
	if found && vocab.Contains(word) {
		status = word
		title = strings.TrimSpace(remainder)
	} else if !found && vocab.Contains(title) {
		status = title
		title = ""
	}
	return status, strings.TrimSpace(title), tags
}

// parseDrawer reads lines[start:] as a :PROPERTIES: drawer and returns
// the index of the first line after :END:.
func parseDrawer(lines []string, start int) (*Drawer, int, error) {
	d := &Drawer{}
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == ":END:" {
			return d, i + 1, nil
		}
		m := propertyRe.FindStringSubmatch(lines[i])
		if m == nil {
			return nil, 0, fmt.Errorf("%w: bad property line %q", ErrParse, lines[i])
		}
		d.props = append(d.props, property{key: m[1], value: m[2], raw: lines[i]})
	}
	return nil, 0, fmt.Errorf("%w: property drawer not terminated", ErrParse)
}

// FindSection returns the top-level heading whose title is exactly name,
// or nil when no such section exists.
func (d *Document) FindSection(name string) *Heading {
	for _, h := range d.Children {
		if h.Level == 1 && h.Title == name {
			return h
		}
	}
	return nil
}

// Render serializes the whole document back to org text. Records that
// were never mutated come back with their original bytes.
func (d *Document) Render() string {
	lines := append([]string(nil), d.Preamble...)
	for _, h := range d.Children {
		lines = h.renderLines(lines)
	}
	return strings.Join(lines, "\n")
}
