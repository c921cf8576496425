package testutil

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scanner/emacs-org-mcp/internal/mcp"
)

// MCPTestClient drives an in-process server over pipes, speaking the same
// line-delimited JSON-RPC the stdio transport uses.
type MCPTestClient struct {
	stdin   *io.PipeWriter
	stdout  *bufio.Reader
	cancel  context.CancelFunc
	done    chan error
	nextID  int64
	mu      sync.Mutex
	closed  sync.Once
	timeout time.Duration
}

// clientResponse keeps the result raw so callers can decode it into the
// method-specific shape.
type clientResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *mcp.MCPError   `json:"error,omitempty"`
}

// NewMCPTestClient starts srv on a pair of pipes and returns a client wired
// to it. The server is shut down during test cleanup.
func NewMCPTestClient(t *testing.T, srv *mcp.Server) *MCPTestClient {
	t.Helper()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		err := srv.Run(ctx, inR, outW)
		outW.Close()
		done <- err
	}()

	c := &MCPTestClient{
		stdin:   inW,
		stdout:  bufio.NewReader(outR),
		cancel:  cancel,
		done:    done,
		timeout: 5 * time.Second,
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// SetTimeout sets the per-request response timeout.
func (c *MCPTestClient) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Close shuts the server down and waits for its loop to exit. Safe to call
// more than once.
func (c *MCPTestClient) Close() error {
	var err error
	c.closed.Do(func() {
		c.stdin.Close()

		select {
		case err = <-c.done:
			c.cancel()
		case <-time.After(2 * time.Second):
			c.cancel()
			err = <-c.done
		}
	})
	return err
}

// Initialize performs the MCP initialize handshake and sends the
// initialized notification.
func (c *MCPTestClient) Initialize() (*mcp.InitializeResult, error) {
	params := map[string]interface{}{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]interface{}{},
		"clientInfo": map[string]interface{}{
			"name":    "test-client",
			"version": "1.0.0",
		},
	}

	resp, err := c.sendRequest("initialize", params)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("initialize error: %s (code: %d)", resp.Error.Message, resp.Error.Code)
	}

	var result mcp.InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse initialize result: %w", err)
	}

	if err := c.sendNotification("notifications/initialized", nil); err != nil {
		return nil, fmt.Errorf("failed to send initialized notification: %w", err)
	}

	return &result, nil
}

// ListTools retrieves the list of available tools from the server.
func (c *MCPTestClient) ListTools() ([]mcp.Tool, error) {
	resp, err := c.sendRequest("tools/list", nil)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("tools/list error: %s (code: %d)", resp.Error.Message, resp.Error.Code)
	}

	var result mcp.ListToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse tools/list result: %w", err)
	}
	return result.Tools, nil
}

// CallTool calls a tool with the given arguments and returns the result.
func (c *MCPTestClient) CallTool(name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}

	resp, err := c.sendRequest("tools/call", params)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("tools/call error: %s (code: %d)", resp.Error.Message, resp.Error.Code)
	}

	var result mcp.CallToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse tools/call result: %w", err)
	}
	return &result, nil
}

// CallToolText calls a tool and returns the first text content block,
// failing if the tool reported an error.
func (c *MCPTestClient) CallToolText(name string, args map[string]interface{}) (string, error) {
	result, err := c.CallTool(name, args)
	if err != nil {
		return "", err
	}
	if result.IsError {
		text := ""
		if len(result.Content) > 0 {
			text = result.Content[0].Text
		}
		return "", fmt.Errorf("tool %s failed: %s", name, text)
	}
	if len(result.Content) == 0 {
		return "", nil
	}
	return result.Content[0].Text, nil
}

// ReadResource reads a resource by URI and returns its text contents.
func (c *MCPTestClient) ReadResource(uri string) (string, error) {
	resp, err := c.sendRequest("resources/read", map[string]interface{}{"uri": uri})
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("resources/read error: %s (code: %d)", resp.Error.Message, resp.Error.Code)
	}

	var result mcp.ReadResourceResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return "", fmt.Errorf("failed to parse resources/read result: %w", err)
	}
	if len(result.Contents) == 0 {
		return "", nil
	}
	return result.Contents[0].Text, nil
}

func (c *MCPTestClient) sendRequest(method string, params interface{}) (*clientResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req := mcp.MCPRequest{
		JSONRPC: "2.0",
		ID:      atomic.AddInt64(&c.nextID, 1),
		Method:  method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = raw
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := c.stdin.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	return c.readResponse()
}

func (c *MCPTestClient) sendNotification(method string, params interface{}) error {
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
	}
	if params != nil {
		req["params"] = params
	}

	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if _, err := c.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

func (c *MCPTestClient) readResponse() (*clientResponse, error) {
	type readResult struct {
		line []byte
		err  error
	}

	resultCh := make(chan readResult, 1)
	go func() {
		line, err := c.stdout.ReadBytes('\n')
		resultCh <- readResult{line, err}
	}()

	select {
	case result := <-resultCh:
		if result.err != nil {
			return nil, fmt.Errorf("failed to read response: %w", result.err)
		}
		var resp clientResponse
		if err := json.Unmarshal(result.line, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w (raw: %s)", err, string(result.line))
		}
		return &resp, nil

	case <-time.After(c.timeout):
		return nil, fmt.Errorf("timeout waiting for response after %v", c.timeout)
	}
}
