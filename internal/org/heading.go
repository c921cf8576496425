package org

import (
	"strings"
)

// Heading is one node of an org heading tree. Raw lines read from disk are
// kept alongside the parsed fields so that records nobody mutated
// round-trip byte-for-byte through a whole-file rewrite.
type Heading struct {
	Level    int
	Status   string // todo keyword, empty when the heading carries none
	Title    string
	Tags     []string
	Body     []string // raw lines between the property drawer and the first child
	Children []*Heading

	props *Drawer
	raw   string // original headline line, dropped once the headline changes
}

// Properties returns the heading's property drawer, creating an empty one
// if the heading has none yet.
func (h *Heading) Properties() *Drawer {
	if h.props == nil {
		h.props = &Drawer{}
	}
	return h.props
}

// HasProperties reports whether the heading has a non-empty drawer.
func (h *Heading) HasProperties() bool {
	return h.props != nil && h.props.Len() > 0
}

// SetStatus replaces the todo keyword and invalidates the cached headline.
func (h *Heading) SetStatus(status string) {
	h.Status = status
	h.raw = ""
}

// SetTitle replaces the title and invalidates the cached headline.
func (h *Heading) SetTitle(title string) {
	h.Title = title
	h.raw = ""
}

// HeadlineText renders the headline line: stars, optional todo keyword,
// title, and a tag suffix.
func (h *Heading) HeadlineText() string {
	if h.raw != "" {
		return h.raw
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("*", h.Level))
	b.WriteByte(' ')
	if h.Status != "" {
		b.WriteString(h.Status)
		b.WriteByte(' ')
	}
	b.WriteString(h.Title)
	if len(h.Tags) > 0 {
		b.WriteString(" :" + strings.Join(h.Tags, ":") + ":")
	}
	return b.String()
}

// Text is the canonical serialization of the heading and its subtree:
// headline, property drawer, body with trailing whitespace trimmed, then
// each child recursively.
func (h *Heading) Text() string {
	lines := []string{h.HeadlineText()}
	if h.HasProperties() {
		lines = append(lines, h.props.render()...)
	}
	if body := strings.TrimRight(strings.Join(h.Body, "\n"), " \t\n"); body != "" {
		lines = append(lines, body)
	}
	for _, child := range h.Children {
		lines = append(lines, child.Text())
	}
	return strings.Join(lines, "\n")
}

// renderLines appends the heading's verbatim file representation,
// preserving raw body lines (including blank separators) untouched.
func (h *Heading) renderLines(out []string) []string {
	out = append(out, h.HeadlineText())
	if h.HasProperties() {
		out = append(out, h.props.render()...)
	}
	out = append(out, h.Body...)
	for _, child := range h.Children {
		out = child.renderLines(out)
	}
	return out
}

// RemoveChild deletes the given child heading; it reports whether the
// child was present.
func (h *Heading) RemoveChild(child *Heading) bool {
	for i, c := range h.Children {
		if c == child {
			h.Children = append(h.Children[:i], h.Children[i+1:]...)
			return true
		}
	}
	return false
}

// InsertChild places child at position idx among the heading's children,
// clamping to the valid range.
func (h *Heading) InsertChild(idx int, child *Heading) {
	if idx < 0 {
		idx = 0
	}
	if idx > len(h.Children) {
		idx = len(h.Children)
	}
	h.Children = append(h.Children, nil)
	copy(h.Children[idx+1:], h.Children[idx:])
	h.Children[idx] = child
}

// AppendChild adds child as the last child of the heading.
func (h *Heading) AppendChild(child *Heading) {
	h.Children = append(h.Children, child)
}

// IndexOf returns the ordinal position of child among the heading's
// children, or -1 if it is not a child.
func (h *Heading) IndexOf(child *Heading) int {
	for i, c := range h.Children {
		if c == child {
			return i
		}
	}
	return -1
}
