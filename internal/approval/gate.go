// Package approval routes proposed content changes through an external
// interactive reviewer (emacsclient running an ediff session) before they
// are committed. The gate resolves every request to a plain
// approve/reject decision; reviewer breakage never surfaces as an error.
package approval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// State records how a request was resolved.
type State string

const (
	StateDisabled     State = "disabled"      // feature off, auto-approved
	StateAutoFallback State = "auto-fallback" // reviewer unavailable, auto-approved
	StatePending      State = "pending"       // reviewer session in progress
	StateApproved     State = "approved"
	StateRejected     State = "rejected"
)

// DefaultTimeout bounds how long a reviewer session may block the caller.
const DefaultTimeout = 300 * time.Second

const reviewerBinary = "emacsclient"

// Config controls the gate.
type Config struct {
	Enabled      bool
	ReviewerPath string        // explicit reviewer path; ignored when not on disk
	SupportFile  string        // reviewer-side support code, loaded once
	Timeout      time.Duration // zero means DefaultTimeout
}

// Outcome is the gate's decision for one request.
type Outcome struct {
	Approved bool
	Content  string // content to commit; may be reviewer-edited on approval
	State    State
}

// Gate owns the reviewer bootstrap state for one process lifetime.
type Gate struct {
	cfg Config

	mu     sync.Mutex
	loaded bool

	// Overridable in tests.
	run      func(ctx context.Context, name string, args ...string) (string, error)
	lookPath func(name string) (string, error)
}

// NewGate creates a gate with the given configuration.
func NewGate(cfg Config) *Gate {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Gate{
		cfg:      cfg,
		run:      runCommand,
		lookPath: exec.LookPath,
	}
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	err := cmd.Run()
	return out.String(), err
}

// reviewer locates the reviewer executable: the configured path when it
// exists on disk, otherwise a search-path lookup. Empty means unavailable.
func (g *Gate) reviewer() string {
	if g.cfg.ReviewerPath != "" {
		if info, err := os.Stat(g.cfg.ReviewerPath); err == nil && !info.IsDir() {
			return g.cfg.ReviewerPath
		}
	}
	path, err := g.lookPath(reviewerBinary)
	if err != nil {
		return ""
	}
	return path
}

// Bootstrap loads the reviewer-side support code. It runs at most once
// per process unless force is set; failures are swallowed since a broken
// bootstrap resolves later as an execution failure.
func (g *Gate) Bootstrap(ctx context.Context, force bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loaded && !force {
		return
	}
	if g.cfg.SupportFile == "" {
		g.loaded = true
		return
	}
	reviewer := g.reviewer()
	if reviewer == "" {
		// Not marked loaded: a reviewer that appears later still gets
		// the support file.
		return
	}
	g.loaded = true
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, _ = g.run(loadCtx, reviewer, "--eval", fmt.Sprintf("(load %q)", g.cfg.SupportFile))
}

// Request asks the reviewer to approve replacing oldContent with
// newContent. contextName distinguishes concurrent requests; it becomes
// part of the temp file names shown in the review session.
//
// Resolution policy: feature off or reviewer missing approves unchanged;
// reviewer timeout rejects; reviewer crash or malformed output fails open
// and approves; an explicit "approved" verdict re-reads the new-content
// file so reviewer-side edits survive.
func (g *Gate) Request(ctx context.Context, oldContent, newContent, contextName string) Outcome {
	if !g.cfg.Enabled {
		return Outcome{Approved: true, Content: newContent, State: StateDisabled}
	}
	reviewer := g.reviewer()
	if reviewer == "" {
		return Outcome{Approved: true, Content: newContent, State: StateAutoFallback}
	}

	g.Bootstrap(ctx, false)

	// No review session happened in these two branches, so they resolve
	// as auto-fallback rather than approved.
	dir, err := os.MkdirTemp("", "emacs-org-mcp-ediff-")
	if err != nil {
		return Outcome{Approved: true, Content: newContent, State: StateAutoFallback}
	}
	defer os.RemoveAll(dir)

	oldFile := filepath.Join(dir, "old-"+contextName+".org")
	newFile := filepath.Join(dir, "new-"+contextName+".org")
	if os.WriteFile(oldFile, []byte(oldContent), 0o600) != nil ||
		os.WriteFile(newFile, []byte(newContent), 0o600) != nil {
		return Outcome{Approved: true, Content: newContent, State: StateAutoFallback}
	}

	runCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	stdout, runErr := g.run(runCtx, reviewer, oldFile, newFile)

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		// A stalled reviewer must neither block forever nor commit.
		return Outcome{Approved: false, Content: newContent, State: StateRejected}
	}
	if runErr != nil {
		return Outcome{Approved: true, Content: newContent, State: StateApproved}
	}

	var verdict string
	if err := json.Unmarshal(bytes.TrimSpace([]byte(stdout)), &verdict); err != nil {
		return Outcome{Approved: true, Content: newContent, State: StateApproved}
	}
	switch verdict {
	case "approved":
		content := newContent
		if edited, err := os.ReadFile(newFile); err == nil {
			content = string(edited)
		}
		return Outcome{Approved: true, Content: content, State: StateApproved}
	case "rejected":
		return Outcome{Approved: false, Content: newContent, State: StateRejected}
	default:
		return Outcome{Approved: true, Content: newContent, State: StateApproved}
	}
}
