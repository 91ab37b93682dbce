// ABOUTME: Pooled tool-execution transport with acquire/release discipline
// ABOUTME: Enforces per-identity filtering on identity-scoped queries before dispatch
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

var (
	// ErrReleased is returned when a query is executed on a connection that
	// has already been handed back to the pool.
	ErrReleased = errors.New("tools: connection already released")

	// ErrIdentityFilter is returned when an identity-scoped query arrives
	// without the exact identity filter of the borrower.
	ErrIdentityFilter = errors.New("tools: identity-scoped query missing exact identity filter")
)

// Query is a structured data lookup dispatched over the transport.
type Query struct {
	Tool string
	Args map[string]any
}

// Result carries the text payload of a tool call.
type Result struct {
	Text string
}

// Executor is the underlying tool-call seam. The production implementation
// speaks MCP; tests substitute a fake.
type Executor interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Pool hands out the shared transport to at most one borrower at a time.
// Borrowers must release on every exit path, including error paths.
type Pool struct {
	sem            chan struct{}
	exec           Executor
	identityScoped map[string]bool
}

// NewPool wraps an executor. identityScoped names the tools whose queries
// touch identity-scoped data and therefore require the exact identity
// filter.
func NewPool(exec Executor, identityScoped []string) *Pool {
	scoped := make(map[string]bool, len(identityScoped))
	for _, name := range identityScoped {
		scoped[name] = true
	}
	return &Pool{
		sem:            make(chan struct{}, 1),
		exec:           exec,
		identityScoped: scoped,
	}
}

// Acquire borrows the transport for the given identity, blocking until it
// is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context, identity string) (*Conn, error) {
	select {
	case p.sem <- struct{}{}:
		return &Conn{pool: p, identity: identity}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("tools: acquire: %w", ctx.Err())
	}
}

// Conn is a borrowed transport bound to one identity.
type Conn struct {
	pool     *Pool
	identity string

	mu       sync.Mutex
	released bool
}

// Release returns the transport to the pool. Safe to call more than once.
func (c *Conn) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true
	<-c.pool.sem
}

// Execute dispatches a query. Identity-scoped tools are rejected before
// dispatch unless the arguments carry the borrower's exact identity.
func (c *Conn) Execute(ctx context.Context, q Query) (Result, error) {
	c.mu.Lock()
	released := c.released
	c.mu.Unlock()
	if released {
		return Result{}, ErrReleased
	}

	if c.pool.identityScoped[q.Tool] {
		id, _ := q.Args["identity"].(string)
		if id == "" || id != c.identity {
			return Result{}, ErrIdentityFilter
		}
	}

	text, err := c.pool.exec.CallTool(ctx, q.Tool, q.Args)
	if err != nil {
		return Result{}, fmt.Errorf("tools: %s: %w", q.Tool, err)
	}
	return Result{Text: text}, nil
}

// MCPExecutor dispatches tool calls to an external MCP server over stdio.
type MCPExecutor struct {
	client *mcpclient.Client
}

// NewMCPExecutor spawns the tool server command and completes the MCP
// handshake.
func NewMCPExecutor(ctx context.Context, command string, args ...string) (*MCPExecutor, error) {
	c, err := mcpclient.NewStdioMCPClient(command, nil, args...)
	if err != nil {
		return nil, fmt.Errorf("tools: start tool server: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "coverly-advisor", Version: "0.1.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("tools: initialize tool server: %w", err)
	}
	return &MCPExecutor{client: c}, nil
}

// Close shuts down the tool server connection.
func (e *MCPExecutor) Close() error {
	return e.client.Close()
}

// CallTool invokes one MCP tool and concatenates its text content.
func (e *MCPExecutor) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := e.client.CallTool(ctx, req)
	if err != nil {
		return "", err
	}
	if result.IsError {
		return "", fmt.Errorf("tool %s returned an error", name)
	}

	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
