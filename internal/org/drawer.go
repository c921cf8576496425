package org

import (
	"fmt"
	"strings"
)

// Drawer is an ordered org :PROPERTIES: drawer. A key that is absent is
// distinct from a key holding an empty value, so callers can tell "never
// set" from "cleared". Unrecognized keys pass through untouched.
type Drawer struct {
	props []property
}

type property struct {
	key   string
	value string
	raw   string // original line, re-emitted verbatim until the value changes
}

// Get returns the value for key and whether the key is present.
func (d *Drawer) Get(key string) (string, bool) {
	for _, p := range d.props {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// Set stores value under key, replacing any existing value and keeping
// the key's position in the drawer.
func (d *Drawer) Set(key, value string) {
	for i := range d.props {
		if d.props[i].key == key {
			d.props[i].value = value
			d.props[i].raw = ""
			return
		}
	}
	d.props = append(d.props, property{key: key, value: value})
}

// Delete removes key from the drawer; it reports whether the key existed.
func (d *Drawer) Delete(key string) bool {
	for i := range d.props {
		if d.props[i].key == key {
			d.props = append(d.props[:i], d.props[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of properties in the drawer.
func (d *Drawer) Len() int {
	return len(d.props)
}

// Keys returns the property keys in drawer order.
func (d *Drawer) Keys() []string {
	keys := make([]string, len(d.props))
	for i, p := range d.props {
		keys[i] = p.key
	}
	return keys
}

// render emits the full drawer including the :PROPERTIES:/:END: markers.
// Untouched property lines keep their original bytes.
func (d *Drawer) render() []string {
	lines := make([]string, 0, len(d.props)+2)
	lines = append(lines, ":PROPERTIES:")
	for _, p := range d.props {
		if p.raw != "" {
			lines = append(lines, p.raw)
			continue
		}
		lines = append(lines, propertyLine(p.key, p.value))
	}
	lines = append(lines, ":END:")
	return lines
}

// propertyLine formats one drawer line, aligning values at column 12 the
// way org-mode's own property editing does for short keys.
func propertyLine(key, value string) string {
	prefix := fmt.Sprintf(":%s:", key)
	pad := 11 - len(prefix)
	if pad < 1 {
		pad = 1
	}
	if value == "" {
		return prefix
	}
	return prefix + strings.Repeat(" ", pad) + value
}
