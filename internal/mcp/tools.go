package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/scanner/emacs-org-mcp/internal/format"
	"github.com/scanner/emacs-org-mcp/internal/journal"
	"github.com/scanner/emacs-org-mcp/internal/tasks"
)

func (s *Server) handleListTools(req *MCPRequest) *MCPResponse {
	active := s.tasks.ActiveSection()
	completed := s.tasks.CompletedSection()
	sectionEnum := []string{active, completed}

	tools := []Tool{
		// ----- Task Tools -----
		{
			Name:        "list_tasks",
			Description: "List all tasks in a section of tasks.org. Returns task names, headlines, status, and full content.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"section": map[string]interface{}{
						"type":        "string",
						"description": "Section name",
						"enum":        sectionEnum,
					},
				},
				"required": []string{"section"},
			},
		},
		{
			Name:        "get_task",
			Description: "Get a specific task by identifier (:CUSTOM_ID: like 'task-gh-28', ticket ID like 'GH-28', or headline substring). Returns full task content.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"identifier": map[string]interface{}{
						"type":        "string",
						"description": "Task identifier: :CUSTOM_ID: value, ticket ID, or headline substring",
					},
					"section": map[string]interface{}{
						"type":        "string",
						"description": "Section to search (optional, searches all if omitted)",
						"enum":        sectionEnum,
					},
				},
				"required": []string{"identifier"},
			},
		},
		{
			Name:        "create_task",
			Description: "Create a new task in a section. Provide the complete org-formatted task entry.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"section": map[string]interface{}{
						"type":        "string",
						"description": "Section to add the task to",
						"enum":        sectionEnum,
					},
					"task_entry": map[string]interface{}{
						"type":        "string",
						"description": "Complete task in org format: '** TODO headline\\n:PROPERTIES:\\n:CUSTOM_ID: task-id\\n:END:\\n*** Task items [/]\\n- [ ] item'",
					},
				},
				"required": []string{"section", "task_entry"},
			},
		},
		{
			Name:        "update_task",
			Description: "Update an existing task. Provide complete new task entry. Task will be moved to appropriate section if status changes (TODO->DONE moves to Completed).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"identifier": map[string]interface{}{
						"type":        "string",
						"description": "Task identifier to find the task",
					},
					"task_entry": map[string]interface{}{
						"type":        "string",
						"description": "Complete new task in org format",
					},
				},
				"required": []string{"identifier", "task_entry"},
			},
		},
		{
			Name:        "preview_task_update",
			Description: "Preview changes to a task WITHOUT modifying the file. Shows diff of what would change. Use this before update_task to verify changes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"identifier": map[string]interface{}{
						"type":        "string",
						"description": "Task identifier to find the task",
					},
					"task_entry": map[string]interface{}{
						"type":        "string",
						"description": "Complete new task in org format (to compare against current)",
					},
				},
				"required": []string{"identifier", "task_entry"},
			},
		},
		{
			Name:        "move_task",
			Description: "Move a task between sections (e.g., Active to Completed) without modifying content.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"identifier": map[string]interface{}{
						"type":        "string",
						"description": "Task identifier (:CUSTOM_ID:, ticket ID, or headline)",
					},
					"from_section": map[string]interface{}{
						"type": "string",
						"enum": sectionEnum,
					},
					"to_section": map[string]interface{}{
						"type": "string",
						"enum": sectionEnum,
					},
				},
				"required": []string{"identifier", "from_section", "to_section"},
			},
		},
		{
			Name:        "search_tasks",
			Description: "Search tasks by query string across all sections. Returns complete matching tasks.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search query (matches headline and content)",
					},
				},
				"required": []string{"query"},
			},
		},
		// ----- Journal Tools -----
		{
			Name:        "list_journal_entries",
			Description: "List all journal entries for a specific date.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"date": map[string]interface{}{
						"type":        "string",
						"description": "Date in YYYY-MM-DD format. Defaults to today.",
					},
				},
			},
		},
		{
			Name:        "get_journal_entry",
			Description: "Get a specific journal entry by date and time or headline.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"date": map[string]interface{}{
						"type":        "string",
						"description": "Date in YYYY-MM-DD format",
					},
					"identifier": map[string]interface{}{
						"type":        "string",
						"description": "Time (HH:MM) or headline substring to find the entry",
					},
				},
				"required": []string{"date", "identifier"},
			},
		},
		{
			Name:        "create_journal_entry",
			Description: "Create a new journal entry. Format: ** HH:MM headline :tags:",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"date": map[string]interface{}{
						"type":        "string",
						"description": "Date in YYYY-MM-DD format. Defaults to today.",
					},
					"time": map[string]interface{}{
						"type":        "string",
						"description": "Time in HH:MM format. Defaults to current time.",
					},
					"headline": map[string]interface{}{
						"type":        "string",
						"description": "Entry headline (e.g., 'GH-28 Completed migration')",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Entry body (bullet points with details)",
					},
					"tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Tags like 'daily_summary'",
					},
				},
				"required": []string{"headline", "content"},
			},
		},
		{
			Name:        "update_journal_entry",
			Description: "Update an existing journal entry.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"date": map[string]interface{}{
						"type":        "string",
						"description": "Date in YYYY-MM-DD format",
					},
					"line_number": map[string]interface{}{
						"type":        "integer",
						"description": "Line number of entry to update (from list_journal_entries)",
					},
					"time": map[string]interface{}{
						"type":        "string",
						"description": "Time in HH:MM format",
					},
					"headline": map[string]interface{}{
						"type":        "string",
						"description": "New headline",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "New body content",
					},
					"tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Updated tags (replaces existing)",
					},
				},
				"required": []string{"date", "line_number", "time", "headline", "content"},
			},
		},
		{
			Name:        "preview_journal_update",
			Description: "Preview changes to a journal entry WITHOUT modifying the file. Shows diff of what would change. Use this before update_journal_entry to verify changes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"date": map[string]interface{}{
						"type":        "string",
						"description": "Date in YYYY-MM-DD format",
					},
					"line_number": map[string]interface{}{
						"type":        "integer",
						"description": "Line number of entry to preview (from list_journal_entries)",
					},
					"time": map[string]interface{}{
						"type":        "string",
						"description": "New time in HH:MM format",
					},
					"headline": map[string]interface{}{
						"type":        "string",
						"description": "New headline",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "New body content",
					},
					"tags": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "New tags",
					},
				},
				"required": []string{"date", "line_number", "time", "headline", "content"},
			},
		},
		{
			Name:        "search_journal",
			Description: "Search journal entries by query. Returns complete matching entries.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search query",
					},
					"days_back": map[string]interface{}{
						"type":        "integer",
						"description": "Days to search back (default 30)",
					},
				},
				"required": []string{"query"},
			},
		},
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  ListToolsResult{Tools: tools},
	}
}

func (s *Server) handleCallTool(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32602, Message: "Invalid params"},
		}
	}

	var text string
	var err error

	args := params.Arguments
	switch params.Name {
	case "list_tasks":
		text, err = s.toolListTasks(args)
	case "get_task":
		text, err = s.toolGetTask(args)
	case "create_task":
		text, err = s.toolCreateTask(args)
	case "update_task":
		text, err = s.toolUpdateTask(ctx, args)
	case "preview_task_update":
		text, err = s.toolPreviewTaskUpdate(args)
	case "move_task":
		text, err = s.toolMoveTask(args)
	case "search_tasks":
		text, err = s.toolSearchTasks(args)
	case "list_journal_entries":
		text, err = s.toolListJournalEntries(args)
	case "get_journal_entry":
		text, err = s.toolGetJournalEntry(args)
	case "create_journal_entry":
		text, err = s.toolCreateJournalEntry(args)
	case "update_journal_entry":
		text, err = s.toolUpdateJournalEntry(ctx, args)
	case "preview_journal_update":
		text, err = s.toolPreviewJournalUpdate(args)
	case "search_journal":
		text, err = s.toolSearchJournal(args)
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32601, Message: "Unknown tool"},
		}
	}

	if err != nil {
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: CallToolResult{
				Content: []ToolContent{{Type: "text", Text: fmt.Sprintf("Error: %v", err)}},
				IsError: true,
			},
		}
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: CallToolResult{
			Content: []ToolContent{{Type: "text", Text: text}},
		},
	}
}

// Argument helpers. JSON numbers arrive as float64.

func argString(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func argInt(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key].(float64)
	return int(v), ok
}

func argStrings(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

func (s *Server) argDate(args map[string]interface{}, key string) (time.Time, error) {
	v := argString(args, key)
	if v == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), nil
	}
	return time.ParseInLocation("2006-01-02", v, time.Local)
}

func (s *Server) toolListTasks(args map[string]interface{}) (string, error) {
	section := argString(args, "section")
	if section == "" {
		return "", fmt.Errorf("section is required")
	}
	list, err := s.tasks.List(section)
	if err != nil {
		return "", err
	}
	return format.TaskList(list, section), nil
}

func (s *Server) toolGetTask(args map[string]interface{}) (string, error) {
	identifier := argString(args, "identifier")
	if identifier == "" {
		return "", fmt.Errorf("identifier is required")
	}
	task, err := s.tasks.Find(identifier, argString(args, "section"))
	if errors.Is(err, tasks.ErrTaskNotFound) {
		return fmt.Sprintf("Task '%s' not found", identifier), nil
	}
	if err != nil {
		return "", err
	}
	return format.TaskDetail(task), nil
}

func (s *Server) toolCreateTask(args map[string]interface{}) (string, error) {
	section := argString(args, "section")
	entry := argString(args, "task_entry")
	if section == "" || entry == "" {
		return "", fmt.Errorf("section and task_entry are required")
	}
	created, content, err := s.tasks.Create(section, entry)
	if err != nil {
		return "", err
	}
	return format.TaskCreateResult(created, content), nil
}

func (s *Server) toolUpdateTask(ctx context.Context, args map[string]interface{}) (string, error) {
	identifier := argString(args, "identifier")
	entry := argString(args, "task_entry")
	if identifier == "" || entry == "" {
		return "", fmt.Errorf("identifier and task_entry are required")
	}

	old, proposed, _, err := s.tasks.Preview(identifier, entry)
	if errors.Is(err, tasks.ErrTaskNotFound) {
		return fmt.Sprintf("Task '%s' not found", identifier), nil
	}
	if err != nil {
		return "", err
	}

	outcome := s.gate.Request(ctx, old.Content, proposed, tasks.ReviewContext(old, identifier))
	if !outcome.Approved {
		return fmt.Sprintf("✗ Update rejected for '%s'; no changes written.", identifier), nil
	}

	res, err := s.tasks.Update(identifier, outcome.Content)
	if err != nil {
		return "", err
	}
	return format.TaskUpdateResult(res), nil
}

func (s *Server) toolPreviewTaskUpdate(args map[string]interface{}) (string, error) {
	identifier := argString(args, "identifier")
	entry := argString(args, "task_entry")
	if identifier == "" || entry == "" {
		return "", fmt.Errorf("identifier and task_entry are required")
	}
	old, proposed, newSection, err := s.tasks.Preview(identifier, entry)
	if errors.Is(err, tasks.ErrTaskNotFound) {
		return fmt.Sprintf("Task '%s' not found", identifier), nil
	}
	if err != nil {
		return "", err
	}
	return format.TaskPreview(old, proposed, old.Section, newSection), nil
}

func (s *Server) toolMoveTask(args map[string]interface{}) (string, error) {
	identifier := argString(args, "identifier")
	from := argString(args, "from_section")
	to := argString(args, "to_section")
	if identifier == "" || from == "" || to == "" {
		return "", fmt.Errorf("identifier, from_section, and to_section are required")
	}
	headline, err := s.tasks.Move(identifier, from, to)
	if err != nil {
		return "", err
	}
	return format.MoveResult(headline, from, to), nil
}

func (s *Server) toolSearchTasks(args map[string]interface{}) (string, error) {
	query := argString(args, "query")
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	hits, err := s.tasks.Search(query)
	if err != nil {
		return "", err
	}
	return format.TaskSearchResults(hits), nil
}

func (s *Server) toolListJournalEntries(args map[string]interface{}) (string, error) {
	date, err := s.argDate(args, "date")
	if err != nil {
		return "", err
	}
	entries := s.journal.Entries(date)
	return format.JournalList(entries, date.Format("2006-01-02")), nil
}

func (s *Server) toolGetJournalEntry(args map[string]interface{}) (string, error) {
	identifier := argString(args, "identifier")
	if argString(args, "date") == "" || identifier == "" {
		return "", fmt.Errorf("date and identifier are required")
	}
	date, err := s.argDate(args, "date")
	if err != nil {
		return "", err
	}
	for _, e := range s.journal.Entries(date) {
		if e.Time == identifier ||
			strings.Contains(strings.ToLower(e.Headline), strings.ToLower(identifier)) {
			return format.JournalDetail(e), nil
		}
	}
	return fmt.Sprintf("Entry '%s' not found", identifier), nil
}

func (s *Server) toolCreateJournalEntry(args map[string]interface{}) (string, error) {
	headline := argString(args, "headline")
	content, hasContent := args["content"].(string)
	if headline == "" || !hasContent {
		return "", fmt.Errorf("headline and content are required")
	}
	date, err := s.argDate(args, "date")
	if err != nil {
		return "", err
	}
	timeStr := argString(args, "time")
	if timeStr == "" {
		timeStr = s.now().Format("15:04")
	}
	entry, err := s.journal.Create(date, timeStr, headline, content, argStrings(args, "tags"))
	if err != nil {
		return "", err
	}
	return format.JournalCreateResult(date, entry), nil
}

func (s *Server) toolUpdateJournalEntry(ctx context.Context, args map[string]interface{}) (string, error) {
	line, ok := argInt(args, "line_number")
	if argString(args, "date") == "" || !ok {
		return "", fmt.Errorf("date and line_number are required")
	}
	timeStr, headline, content, err := journalEntryArgs(args)
	if err != nil {
		return "", err
	}
	date, err := s.argDate(args, "date")
	if err != nil {
		return "", err
	}
	path := s.journal.PathFor(date)
	fileDate := date.Format("20060102")

	old, found := entryAtLine(s.journal.Entries(date), line)
	if !found {
		return fmt.Sprintf("Entry at line %d not found", line), nil
	}

	proposed := journal.Entry{
		Time:     timeStr,
		Headline: headline,
		Tags:     argStrings(args, "tags"),
		Content:  content,
		Line:     line,
		FileDate: fileDate,
	}

	outcome := s.gate.Request(ctx, old.Text(), proposed.Text(), "journal-"+fileDate)
	if !outcome.Approved {
		return fmt.Sprintf("✗ Update rejected for journal entry at line %d; no changes written.", line), nil
	}
	if outcome.Content != proposed.Text() {
		edited, err := journal.ParseEntryText(outcome.Content, fileDate)
		if err != nil {
			return "", err
		}
		proposed.Time = edited.Time
		proposed.Headline = edited.Headline
		proposed.Tags = edited.Tags
		proposed.Content = edited.Content
	}

	oldEntry, newEntry, day, err := s.journal.Update(path, line, proposed.Time, proposed.Headline, proposed.Content, proposed.Tags)
	if err != nil {
		return "", err
	}
	return format.JournalUpdateResult(oldEntry, newEntry, day), nil
}

func (s *Server) toolPreviewJournalUpdate(args map[string]interface{}) (string, error) {
	line, ok := argInt(args, "line_number")
	if argString(args, "date") == "" || !ok {
		return "", fmt.Errorf("date and line_number are required")
	}
	timeStr, headline, content, err := journalEntryArgs(args)
	if err != nil {
		return "", err
	}
	date, err := s.argDate(args, "date")
	if err != nil {
		return "", err
	}

	existing, found := entryAtLine(s.journal.Entries(date), line)
	if !found {
		return fmt.Sprintf("Entry at line %d not found", line), nil
	}

	proposed := journal.Entry{
		Time:     timeStr,
		Headline: headline,
		Tags:     argStrings(args, "tags"),
		Content:  content,
		Line:     line,
		FileDate: date.Format("20060102"),
	}
	return format.JournalPreview(existing, proposed), nil
}

var clockRe = regexp.MustCompile(`^\d{2}:\d{2}$`)

// journalEntryArgs extracts the entry fields the update and preview tools
// both require. Rejecting them here keeps a half-specified call from ever
// reaching the file.
func journalEntryArgs(args map[string]interface{}) (timeStr, headline, content string, err error) {
	timeStr = argString(args, "time")
	headline = argString(args, "headline")
	content, hasContent := args["content"].(string)
	if timeStr == "" || headline == "" || !hasContent {
		return "", "", "", fmt.Errorf("time, headline, and content are required")
	}
	if !clockRe.MatchString(timeStr) {
		return "", "", "", fmt.Errorf("time must be HH:MM, got %q", timeStr)
	}
	return timeStr, headline, content, nil
}

func entryAtLine(entries []journal.Entry, line int) (journal.Entry, bool) {
	for _, e := range entries {
		if e.Line == line {
			return e, true
		}
	}
	return journal.Entry{}, false
}

func (s *Server) toolSearchJournal(args map[string]interface{}) (string, error) {
	query := argString(args, "query")
	if query == "" {
		return "", fmt.Errorf("query is required")
	}
	daysBack, ok := argInt(args, "days_back")
	if !ok || daysBack <= 0 {
		daysBack = 30
	}
	return format.JournalSearchResults(s.journal.Search(query, daysBack)), nil
}
