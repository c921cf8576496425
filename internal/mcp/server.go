// Package mcp implements the stdio MCP server exposing the task and
// journal stores as tools and resources. Messages are line-delimited
// JSON-RPC 2.0.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/scanner/emacs-org-mcp/internal/approval"
	"github.com/scanner/emacs-org-mcp/internal/journal"
	"github.com/scanner/emacs-org-mcp/internal/tasks"
)

// Server implements the MCP server for the org task and journal stores
type Server struct {
	tasks   *tasks.Store
	journal *journal.Store
	gate    *approval.Gate
	version string

	now func() time.Time
}

// NewServer creates a new org-mcp server
func NewServer(taskStore *tasks.Store, journalStore *journal.Store, gate *approval.Gate, version string) *Server {
	return &Server{
		tasks:   taskStore,
		journal: journalStore,
		gate:    gate,
		version: version,
		now:     time.Now,
	}
}

// MCP Protocol Types
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ServerCapabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ResourcesCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema"`
}

type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type CallToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
}

type ReadResourceParams struct {
	URI string `json:"uri"`
}

type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// Run serves MCP requests from r until EOF or context cancellation
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.sendError(w, nil, -32700, "Parse error")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := s.sendResponse(w, resp); err != nil {
				return err
			}
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleListTools(req)
	case "tools/call":
		return s.handleCallTool(ctx, req)
	case "resources/list":
		return s.handleListResources(req)
	case "resources/read":
		return s.handleReadResource(req)
	case "notifications/initialized":
		return nil // Notification, no response
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32601, Message: "Method not found"},
		}
	}
}

func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: "2024-11-05",
			ServerInfo: ServerInfo{
				Name:    "emacs-org-mode",
				Version: s.version,
			},
			Capabilities: ServerCapabilities{
				Tools:     &ToolsCapability{},
				Resources: &ResourcesCapability{},
			},
		},
	}
}

func (s *Server) handleListResources(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: ListResourcesResult{Resources: []Resource{
			{
				URI:         "org://tasks/active",
				Name:        "Active Tasks",
				Description: "Tasks in the Active Task List",
			},
			{
				URI:         "org://tasks/completed",
				Name:        "Completed Tasks",
				Description: "Tasks in the Completed Task List",
			},
			{
				URI:         "org://journal/today",
				Name:        "Today's Journal",
				Description: "Journal entries for today",
			},
		}},
	}
}

type taskJSON struct {
	Name     string `json:"name"`
	Headline string `json:"headline"`
	Status   string `json:"status"`
	Section  string `json:"section"`
	TicketID string `json:"ticket_id"`
	Content  string `json:"content"`
}

type entryJSON struct {
	Time       string   `json:"time"`
	Headline   string   `json:"headline"`
	Tags       []string `json:"tags"`
	Content    string   `json:"content"`
	FileDate   string   `json:"file_date"`
	LineNumber int      `json:"line_number"`
}

func (s *Server) handleReadResource(req *MCPRequest) *MCPResponse {
	var params ReadResourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32602, Message: "Invalid params"},
		}
	}

	var payload interface{}
	switch params.URI {
	case "org://tasks/active", "org://tasks/completed":
		section := s.tasks.ActiveSection()
		if params.URI == "org://tasks/completed" {
			section = s.tasks.CompletedSection()
		}
		list, err := s.tasks.List(section)
		if err != nil {
			return &MCPResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &MCPError{Code: -32603, Message: err.Error()},
			}
		}
		out := make([]taskJSON, 0, len(list))
		for i := range list {
			t := &list[i]
			out = append(out, taskJSON{
				Name:     t.CustomID,
				Headline: t.Headline,
				Status:   t.Status,
				Section:  t.Section,
				TicketID: t.TicketID(),
				Content:  t.Content,
			})
		}
		payload = out
	case "org://journal/today":
		entries := s.journal.Entries(s.now())
		out := make([]entryJSON, 0, len(entries))
		for i := range entries {
			e := &entries[i]
			out = append(out, entryJSON{
				Time:       e.Time,
				Headline:   e.Headline,
				Tags:       e.Tags,
				Content:    e.Content,
				FileDate:   e.FileDate,
				LineNumber: e.Line,
			})
		}
		payload = out
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32602, Message: fmt.Sprintf("Unknown resource: %s", params.URI)},
		}
	}

	text, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32603, Message: err.Error()},
		}
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: ReadResourceResult{Contents: []ResourceContents{{
			URI:      params.URI,
			MimeType: "application/json",
			Text:     string(text),
		}}},
	}
}

func (s *Server) sendResponse(w io.Writer, resp *MCPResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func (s *Server) sendError(w io.Writer, id interface{}, code int, message string) error {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: message},
	}
	return s.sendResponse(w, resp)
}
