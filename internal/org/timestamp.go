package org

import "time"

// timestampLayout matches org-mode timestamps: 2025-12-26 Thu 01:45.
// Go always renders "Mon" with the English three-letter abbreviation,
// which is what org-mode expects regardless of locale.
const timestampLayout = "2006-01-02 Mon 15:04"

// Timestamp formats t as an org-mode timestamp. Active timestamps use
// angle brackets, inactive ones square brackets. Org timestamps carry no
// timezone; t is taken as local wall-clock time.
func Timestamp(t time.Time, active bool) string {
	s := t.Format(timestampLayout)
	if active {
		return "<" + s + ">"
	}
	return "[" + s + "]"
}

// Now returns the current time as an org-mode timestamp.
func Now(active bool) string {
	return Timestamp(time.Now(), active)
}

// ParseTimestamp parses an active or inactive org-mode timestamp and
// reports whether it was active.
func ParseTimestamp(s string) (t time.Time, active bool, err error) {
	if len(s) >= 2 {
		switch {
		case s[0] == '<' && s[len(s)-1] == '>':
			active = true
			s = s[1 : len(s)-1]
		case s[0] == '[' && s[len(s)-1] == ']':
			s = s[1 : len(s)-1]
		}
	}
	t, err = time.ParseInLocation(timestampLayout, s, time.Local)
	return t, active, err
}
