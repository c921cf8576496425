package approval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fakeReviewer(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emacsclient")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write fake reviewer: %v", err)
	}
	return path
}

func TestDisabledApprovesWithoutSubprocess(t *testing.T) {
	gate := NewGate(Config{Enabled: false})
	calls := 0
	gate.run = func(ctx context.Context, name string, args ...string) (string, error) {
		calls++
		return "", nil
	}

	out := gate.Request(context.Background(), "old", "new", "t1")
	if !out.Approved || out.Content != "new" || out.State != StateDisabled {
		t.Errorf("outcome = %+v", out)
	}
	if calls != 0 {
		t.Errorf("subprocess invoked %d times while disabled", calls)
	}
}

func TestMissingReviewerFallsBack(t *testing.T) {
	gate := NewGate(Config{Enabled: true, ReviewerPath: "/nonexistent/emacsclient"})
	gate.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	out := gate.Request(context.Background(), "old", "new", "t1")
	if !out.Approved || out.Content != "new" || out.State != StateAutoFallback {
		t.Errorf("outcome = %+v", out)
	}
}

func TestApprovedVerdict(t *testing.T) {
	gate := NewGate(Config{Enabled: true, ReviewerPath: fakeReviewer(t)})
	var gotArgs []string
	gate.run = func(ctx context.Context, name string, args ...string) (string, error) {
		gotArgs = args
		return `"approved"`, nil
	}

	out := gate.Request(context.Background(), "old text", "new text", "gh-127")
	if !out.Approved || out.Content != "new text" || out.State != StateApproved {
		t.Errorf("outcome = %+v", out)
	}
	if len(gotArgs) != 2 ||
		!strings.HasSuffix(gotArgs[0], "old-gh-127.org") ||
		!strings.HasSuffix(gotArgs[1], "new-gh-127.org") {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestApprovedVerdictPicksUpEdits(t *testing.T) {
	gate := NewGate(Config{Enabled: true, ReviewerPath: fakeReviewer(t)})
	gate.run = func(ctx context.Context, name string, args ...string) (string, error) {
		// Simulate a hand-edit during the review session.
		if err := os.WriteFile(args[1], []byte("edited text"), 0o600); err != nil {
			t.Fatalf("edit new file: %v", err)
		}
		return `"approved"`, nil
	}

	out := gate.Request(context.Background(), "old", "proposed", "t1")
	if !out.Approved || out.Content != "edited text" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestRejectedVerdict(t *testing.T) {
	gate := NewGate(Config{Enabled: true, ReviewerPath: fakeReviewer(t)})
	gate.run = func(ctx context.Context, name string, args ...string) (string, error) {
		return `"rejected"`, nil
	}

	out := gate.Request(context.Background(), "old", "new", "t1")
	if out.Approved || out.Content != "new" || out.State != StateRejected {
		t.Errorf("outcome = %+v", out)
	}
}

func TestTimeoutRejects(t *testing.T) {
	gate := NewGate(Config{Enabled: true, ReviewerPath: fakeReviewer(t), Timeout: 5 * time.Millisecond})
	gate.run = func(ctx context.Context, name string, args ...string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	out := gate.Request(context.Background(), "old", "new", "t1")
	if out.Approved || out.State != StateRejected {
		t.Errorf("outcome = %+v, want timeout rejection", out)
	}
}

func TestExecutionFailureFailsOpen(t *testing.T) {
	gate := NewGate(Config{Enabled: true, ReviewerPath: fakeReviewer(t)})
	gate.run = func(ctx context.Context, name string, args ...string) (string, error) {
		return "", errors.New("exec format error")
	}

	out := gate.Request(context.Background(), "old", "new", "t1")
	if !out.Approved || out.Content != "new" {
		t.Errorf("outcome = %+v, want fail-open approval", out)
	}
}

func TestMalformedVerdictFailsOpen(t *testing.T) {
	gate := NewGate(Config{Enabled: true, ReviewerPath: fakeReviewer(t)})
	for _, stdout := range []string{"", "approved", `{"status": "approved"}`, `"maybe"`} {
		gate.run = func(ctx context.Context, name string, args ...string) (string, error) {
			return stdout, nil
		}
		out := gate.Request(context.Background(), "old", "new", "t1")
		if !out.Approved || out.Content != "new" {
			t.Errorf("stdout %q: outcome = %+v, want fail-open approval", stdout, out)
		}
	}
}

func TestTempDirFailureFallsBack(t *testing.T) {
	gate := NewGate(Config{Enabled: true, ReviewerPath: fakeReviewer(t)})
	calls := 0
	gate.run = func(ctx context.Context, name string, args ...string) (string, error) {
		calls++
		return `"approved"`, nil
	}
	t.Setenv("TMPDIR", filepath.Join(t.TempDir(), "missing"))

	out := gate.Request(context.Background(), "old", "new", "t1")
	if !out.Approved || out.Content != "new" || out.State != StateAutoFallback {
		t.Errorf("outcome = %+v, want auto-fallback approval", out)
	}
	if calls != 0 {
		t.Errorf("reviewer invoked %d times without review files", calls)
	}
}

func TestBootstrapRetriesWhenReviewerAppears(t *testing.T) {
	support := filepath.Join(t.TempDir(), "ediff.el")
	if err := os.WriteFile(support, []byte("(defun noop ())"), 0o644); err != nil {
		t.Fatalf("write support file: %v", err)
	}
	gate := NewGate(Config{Enabled: true, SupportFile: support})
	gate.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	loads := 0
	gate.run = func(ctx context.Context, name string, args ...string) (string, error) {
		if len(args) > 0 && args[0] == "--eval" {
			loads++
			return "", nil
		}
		return `"approved"`, nil
	}

	// No reviewer yet: auto-fallback, and bootstrap must not latch.
	out := gate.Request(context.Background(), "a", "b", "t1")
	if out.State != StateAutoFallback || loads != 0 {
		t.Fatalf("state = %v, loads = %d", out.State, loads)
	}

	// Reviewer installed later: the support file loads on the next request.
	reviewer := fakeReviewer(t)
	gate.lookPath = func(string) (string, error) { return reviewer, nil }

	out = gate.Request(context.Background(), "a", "b", "t2")
	if out.State != StateApproved {
		t.Errorf("state = %v, want approved", out.State)
	}
	if loads != 1 {
		t.Errorf("support code loaded %d times, want 1", loads)
	}
}

func TestBootstrapRunsOnce(t *testing.T) {
	support := filepath.Join(t.TempDir(), "ediff.el")
	if err := os.WriteFile(support, []byte("(defun noop ())"), 0o644); err != nil {
		t.Fatalf("write support file: %v", err)
	}
	gate := NewGate(Config{Enabled: true, ReviewerPath: fakeReviewer(t), SupportFile: support})

	loads := 0
	gate.run = func(ctx context.Context, name string, args ...string) (string, error) {
		if len(args) > 0 && args[0] == "--eval" {
			loads++
			return "", nil
		}
		return `"approved"`, nil
	}

	gate.Request(context.Background(), "a", "b", "t1")
	gate.Request(context.Background(), "a", "b", "t2")
	if loads != 1 {
		t.Errorf("support code loaded %d times, want 1", loads)
	}

	gate.Bootstrap(context.Background(), true)
	if loads != 2 {
		t.Errorf("force reload did not re-run bootstrap, loads = %d", loads)
	}
}
