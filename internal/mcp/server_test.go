package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scanner/emacs-org-mcp/internal/approval"
	"github.com/scanner/emacs-org-mcp/internal/journal"
	"github.com/scanner/emacs-org-mcp/internal/tasks"
)

const tasksFixture = `* High Level Tasks (in order)

- [ ] Ship the importer

* Tasks

** TODO GH-1 Ship the importer
:PROPERTIES:
:CUSTOM_ID: task-gh-1
:END:

Importer work.

* Completed Tasks

** DONE Old cleanup
:PROPERTIES:
:CUSTOM_ID: task-old-cleanup
:END:
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	tasksPath := filepath.Join(dir, "tasks.org")
	if err := os.WriteFile(tasksPath, []byte(tasksFixture), 0o644); err != nil {
		t.Fatalf("write tasks fixture: %v", err)
	}
	journalDir := filepath.Join(dir, "journal")
	if err := os.MkdirAll(journalDir, 0o755); err != nil {
		t.Fatalf("mkdir journal: %v", err)
	}

	taskStore := tasks.NewStore(tasks.Options{
		Path:             tasksPath,
		ActiveSection:    "Tasks",
		CompletedSection: "Completed Tasks",
		ChecklistSection: "High Level Tasks (in order)",
	})
	srv := NewServer(taskStore, journal.NewStore(journalDir), approval.NewGate(approval.Config{}), "test")
	srv.now = func() time.Time {
		return time.Date(2026, 8, 28, 11, 30, 0, 0, time.Local)
	}
	return srv
}

func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) CallToolResult {
	t.Helper()
	params, err := json.Marshal(CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if resp == nil {
		t.Fatal("nil response")
	}
	if resp.Error != nil {
		t.Fatalf("rpc error: %+v", resp.Error)
	}
	result, ok := resp.Result.(CallToolResult)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	return result
}

func toolText(t *testing.T, res CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 || res.Content[0].Type != "text" {
		t.Fatalf("content = %+v", res.Content)
	}
	return res.Content[0].Text
}

func TestInitialize(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	result, ok := resp.Result.(InitializeResult)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	if result.ProtocolVersion != "2024-11-05" {
		t.Errorf("protocol = %q", result.ProtocolVersion)
	}
	if result.ServerInfo.Name != "emacs-org-mode" {
		t.Errorf("name = %q", result.ServerInfo.Name)
	}
	if result.Capabilities.Resources == nil {
		t.Error("resources capability missing")
	}
}

func TestListToolsExposesAll(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	result, ok := resp.Result.(ListToolsResult)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	if len(result.Tools) != 13 {
		t.Errorf("tools = %d, want 13", len(result.Tools))
	}
	names := map[string]bool{}
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"list_tasks", "update_task", "preview_task_update", "search_journal"} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}
}

func TestListTasksTool(t *testing.T) {
	s := newTestServer(t)
	text := toolText(t, callTool(t, s, "list_tasks", map[string]interface{}{"section": "Tasks"}))
	if !strings.Contains(text, "GH-1 Ship the importer") {
		t.Errorf("output:\n%s", text)
	}
}

func TestGetTaskNotFoundIsText(t *testing.T) {
	s := newTestServer(t)
	res := callTool(t, s, "get_task", map[string]interface{}{"identifier": "ghost"})
	if res.IsError {
		t.Error("not-found must not be an error result")
	}
	if got := toolText(t, res); got != "Task 'ghost' not found" {
		t.Errorf("text = %q", got)
	}
}

func TestUpdateTaskToolMovesTask(t *testing.T) {
	s := newTestServer(t)
	text := toolText(t, callTool(t, s, "update_task", map[string]interface{}{
		"identifier": "task-gh-1",
		"task_entry": "** DONE GH-1 Ship the importer\n\nShipped.\n",
	}))
	if !strings.Contains(text, "✓ Task Updated and Moved: Tasks → Completed Tasks") {
		t.Errorf("output:\n%s", text)
	}

	listed := toolText(t, callTool(t, s, "list_tasks", map[string]interface{}{"section": "Completed Tasks"}))
	if !strings.Contains(listed, "DONE  [GH-1] GH-1 Ship the importer") {
		t.Errorf("completed list:\n%s", listed)
	}
}

func TestPreviewTaskUpdateDoesNotWrite(t *testing.T) {
	s := newTestServer(t)
	text := toolText(t, callTool(t, s, "preview_task_update", map[string]interface{}{
		"identifier": "task-gh-1",
		"task_entry": "** DONE GH-1 Ship the importer\n",
	}))
	if !strings.Contains(text, "Preview: Task will move Tasks → Completed Tasks") {
		t.Errorf("output:\n%s", text)
	}

	listed := toolText(t, callTool(t, s, "list_tasks", map[string]interface{}{"section": "Tasks"}))
	if !strings.Contains(listed, "TODO  [GH-1]") {
		t.Errorf("preview must not commit:\n%s", listed)
	}
}

func TestJournalToolsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	created := toolText(t, callTool(t, s, "create_journal_entry", map[string]interface{}{
		"date":     "2026-08-28",
		"time":     "09:00",
		"headline": "Standup notes",
		"content":  "- importer on track",
		"tags":     []interface{}{"team"},
	}))
	if !strings.Contains(created, "✓ Journal Entry Created for 2026-08-28") {
		t.Errorf("create output:\n%s", created)
	}

	listed := toolText(t, callTool(t, s, "list_journal_entries", map[string]interface{}{"date": "2026-08-28"}))
	if !strings.Contains(listed, "09:00  Standup notes :team:") {
		t.Errorf("list output:\n%s", listed)
	}

	// The entry heading sits at line 2 (after the date heading and a blank).
	updated := toolText(t, callTool(t, s, "update_journal_entry", map[string]interface{}{
		"date":        "2026-08-28",
		"line_number": float64(2),
		"time":        "09:05",
		"headline":    "Standup notes",
		"content":     "- importer shipped",
	}))
	if !strings.Contains(updated, "✓ Journal Entry Updated for 2026-08-28") {
		t.Errorf("update output:\n%s", updated)
	}
	if !strings.Contains(updated, "+ - importer shipped") {
		t.Errorf("diff missing:\n%s", updated)
	}

	got := toolText(t, callTool(t, s, "get_journal_entry", map[string]interface{}{
		"date":       "2026-08-28",
		"identifier": "09:05",
	}))
	if !strings.Contains(got, "- importer shipped") {
		t.Errorf("get output:\n%s", got)
	}
}

func TestUpdateJournalEntryRejectsMissingFields(t *testing.T) {
	s := newTestServer(t)
	toolText(t, callTool(t, s, "create_journal_entry", map[string]interface{}{
		"date":     "2026-08-28",
		"time":     "09:00",
		"headline": "Standup",
		"content":  "- notes",
	}))

	// Omitting time and headline must fail before anything is written;
	// splicing in a bare "** " heading would erase the entry.
	res := callTool(t, s, "update_journal_entry", map[string]interface{}{
		"date":        "2026-08-28",
		"line_number": float64(2),
		"content":     "new body",
	})
	if !res.IsError {
		t.Error("missing time/headline must be an error result")
	}
	if got := toolText(t, res); !strings.Contains(got, "required") {
		t.Errorf("text = %q", got)
	}

	res = callTool(t, s, "update_journal_entry", map[string]interface{}{
		"date":        "2026-08-28",
		"line_number": float64(2),
		"time":        "9:00",
		"headline":    "Standup",
		"content":     "new body",
	})
	if !res.IsError {
		t.Error("unpadded clock must be an error result")
	}

	listed := toolText(t, callTool(t, s, "list_journal_entries", map[string]interface{}{"date": "2026-08-28"}))
	if !strings.Contains(listed, "09:00  Standup") {
		t.Errorf("entry lost after rejected updates:\n%s", listed)
	}
}

func TestPreviewJournalUpdateRejectsMissingFields(t *testing.T) {
	s := newTestServer(t)
	toolText(t, callTool(t, s, "create_journal_entry", map[string]interface{}{
		"date":     "2026-08-28",
		"time":     "09:00",
		"headline": "Standup",
		"content":  "- notes",
	}))

	res := callTool(t, s, "preview_journal_update", map[string]interface{}{
		"date":        "2026-08-28",
		"line_number": float64(2),
		"headline":    "Standup",
	})
	if !res.IsError {
		t.Error("missing time/content must be an error result")
	}
}

func TestReadResourceActiveTasks(t *testing.T) {
	s := newTestServer(t)
	params, _ := json.Marshal(ReadResourceParams{URI: "org://tasks/active"})
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0", ID: 1, Method: "resources/read", Params: params,
	})
	result, ok := resp.Result.(ReadResourceResult)
	if !ok {
		t.Fatalf("result type %T", resp.Result)
	}
	var payload []taskJSON
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(payload) != 1 || payload[0].Name != "task-gh-1" || payload[0].TicketID != "GH-1" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestRunSpeaksLineDelimitedJSON(t *testing.T) {
	s := newTestServer(t)
	in := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n" +
			`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
			`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n")
	var out bytes.Buffer

	if err := s.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("responses = %d, want 2 (notification gets none)", len(lines))
	}
	for _, line := range lines {
		var resp map[string]interface{}
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Errorf("bad response line %q: %v", line, err)
		}
	}
}
