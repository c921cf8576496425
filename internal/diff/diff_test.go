package diff

import (
	"strings"
	"testing"
)

func TestLinesIdentical(t *testing.T) {
	texts := []string{
		"",
		"single line",
		"** TODO Fix parser\n:PROPERTIES:\n:ID: X\n:END:\nbody\n",
	}
	for _, x := range texts {
		if got := Lines(x, x); got != NoChanges {
			t.Errorf("Lines(%q, same) = %q, want %q", x, got, NoChanges)
		}
	}
}

func TestLinesTrailingNewlineInsensitive(t *testing.T) {
	if got := Lines("a\nb", "a\nb\n"); got != NoChanges {
		t.Errorf("Lines = %q, want %q", got, NoChanges)
	}
}

func TestLinesReplaceOrdersRemovalsFirst(t *testing.T) {
	old := "keep\nold one\nold two\nkeep end\n"
	new := "keep\nnew one\nnew two\nkeep end\n"
	want := strings.Join([]string{
		"− old one",
		"− old two",
		"+ new one",
		"+ new two",
	}, "\n")
	if got := Lines(old, new); got != want {
		t.Errorf("Lines =\n%s\nwant\n%s", got, want)
	}
}

func TestLinesInsertOnly(t *testing.T) {
	got := Lines("a\nc\n", "a\nb\nc\n")
	if got != "+ b" {
		t.Errorf("Lines = %q, want %q", got, "+ b")
	}
}

func TestLinesDeleteOnly(t *testing.T) {
	got := Lines("a\nb\nc\n", "a\nc\n")
	if got != "− b" {
		t.Errorf("Lines = %q", got)
	}
}

func TestLinesDisjointRegions(t *testing.T) {
	old := "one\nsame\ntwo\n"
	new := "ONE\nsame\nTWO\n"
	want := strings.Join([]string{
		"− one",
		"+ ONE",
		"− two",
		"+ TWO",
	}, "\n")
	if got := Lines(old, new); got != want {
		t.Errorf("Lines =\n%s\nwant\n%s", got, want)
	}
}
