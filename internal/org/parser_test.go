package org

import (
	"errors"
	"strings"
	"testing"
)

const sampleDoc = `#+TITLE: Tasks

* Tasks
** TODO GH-127 Implement OAuth2 authentication
:PROPERTIES:
:ID:       C79031AC-94FE-4FDD-BBBF-7D3EE1A881E9
:CUSTOM_ID: task-gh-127
:CREATED:  <2025-01-09 Thu 10:30>
:END:

*** Description

Implement OAuth2 authentication flow for user login.

** TODO Fix login redirect :urgent:web:
Some body text.

* Completed Tasks
** DONE Ship release notes
:PROPERTIES:
:CLOSED:   <2025-01-08 Wed 16:00>
:END:
`

func TestParseHeadingTree(t *testing.T) {
	t.Parallel()

	doc, err := Parse(sampleDoc, DefaultVocabulary())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(doc.Preamble) != 2 {
		t.Errorf("Expected 2 preamble lines, got %d", len(doc.Preamble))
	}
	if len(doc.Children) != 2 {
		t.Fatalf("Expected 2 top-level sections, got %d", len(doc.Children))
	}

	tasks := doc.FindSection("Tasks")
	if tasks == nil {
		t.Fatal("Tasks section not found")
	}
	if len(tasks.Children) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks.Children))
	}

	first := tasks.Children[0]
	if first.Status != "TODO" {
		t.Errorf("Expected status TODO, got %q", first.Status)
	}
	if first.Title != "GH-127 Implement OAuth2 authentication" {
		t.Errorf("Unexpected title: %q", first.Title)
	}
	if id, ok := first.Properties().Get("CUSTOM_ID"); !ok || id != "task-gh-127" {
		t.Errorf("Expected CUSTOM_ID task-gh-127, got %q (present=%v)", id, ok)
	}
	if len(first.Children) != 1 || first.Children[0].Title != "Description" {
		t.Errorf("Expected one Description child, got %+v", first.Children)
	}

	second := tasks.Children[1]
	if len(second.Tags) != 2 || second.Tags[0] != "urgent" || second.Tags[1] != "web" {
		t.Errorf("Unexpected tags: %v", second.Tags)
	}
	if second.Title != "Fix login redirect" {
		t.Errorf("Tag suffix should not be part of the title: %q", second.Title)
	}
}

func TestParseAbsentVsEmptyProperty(t *testing.T) {
	t.Parallel()

	doc, err := Parse("** TODO Thing\n:PROPERTIES:\n:MODIFIED:\n:END:\n", DefaultVocabulary())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	h := doc.Children[0]

	if v, ok := h.Properties().Get("MODIFIED"); !ok || v != "" {
		t.Errorf("MODIFIED should be present and empty, got %q (present=%v)", v, ok)
	}
	if _, ok := h.Properties().Get("CREATED"); ok {
		t.Error("CREATED should be absent, not empty")
	}
}

func TestParseUnterminatedDrawerFails(t *testing.T) {
	t.Parallel()

	_, err := Parse("** TODO Broken\n:PROPERTIES:\n:ID: x\n", DefaultVocabulary())
	if !errors.Is(err, ErrParse) {
		t.Fatalf("Expected ErrParse, got %v", err)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	t.Parallel()

	doc, err := Parse(sampleDoc, DefaultVocabulary())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := doc.Render()
	want := strings.TrimSuffix(sampleDoc, "\n")
	if got != want {
		t.Errorf("Render is not byte-identical to input:\n--- want ---\n%s\n--- got ---\n%s", want, got)
	}
}

func TestHeadingTextCanonical(t *testing.T) {
	t.Parallel()

	h := &Heading{Level: 2, Status: "TODO", Title: "Do it", Tags: []string{"a", "b"}}
	h.Properties().Set("ID", "ABC")
	h.Body = []string{"line one", ""}

	want := "** TODO Do it :a:b:\n:PROPERTIES:\n:ID:       ABC\n:END:\nline one"
	if got := h.Text(); got != want {
		t.Errorf("Text mismatch:\nwant %q\ngot  %q", want, got)
	}
}

func TestDrawerSetPreservesOrder(t *testing.T) {
	t.Parallel()

	doc, err := Parse("** TODO X\n:PROPERTIES:\n:CUSTOM_ID: task-x\n:CREATED:  <2025-01-01 Wed 09:00>\n:END:\n", DefaultVocabulary())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d := doc.Children[0].Properties()
	d.Set("CREATED", "<2025-02-02 Sun 10:00>")
	d.Set("MODIFIED", "[2025-02-02 Sun 10:00]")

	keys := d.Keys()
	want := []string{"CUSTOM_ID", "CREATED", "MODIFIED"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("Key order: want %v, got %v", want, keys)
		}
	}

	// CUSTOM_ID untouched: original bytes preserved.
	lines := d.render()
	if lines[1] != ":CUSTOM_ID: task-x" {
		t.Errorf("Untouched property line changed: %q", lines[1])
	}
}
