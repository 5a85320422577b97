// Package agent implements the permission-checked, tool-looping conversation
// turn: the state machine at the center of the assistant. Every incoming
// query is classified for criticality, checked against the role policy,
// optionally run through bounded generator/tool iterations, and reflected in
// the audit log.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sasilab/medbot/internal/domain/audit"
	"github.com/sasilab/medbot/internal/domain/policy"
	"github.com/sasilab/medbot/internal/platform/llm"
)

// auditLogCommand short-circuits the permission machinery for Supervisor
// sessions and prints the audit trail without consuming a query turn.
const auditLogCommand = "auditlog"

const (
	defaultMaxToolIterations = 8
	defaultCallTimeout       = 60 * time.Second
)

// ErrToolLoopLimit is returned when the generator keeps requesting tools
// past the configured iteration cap. The cap guarantees termination against
// a misbehaving generator; the session itself survives the error.
var ErrToolLoopLimit = errors.New("tool loop iteration limit reached")

// Config assembles an Agent. Generator, Tool, and Audit are required.
type Config struct {
	Username          string
	Role              policy.Role
	Generator         llm.Generator
	Tool              Tool
	Audit             *audit.Log
	Logger            zerolog.Logger
	MaxToolIterations int
	CallTimeout       time.Duration
}

// Agent owns one conversation session: its message history, role, and the
// last permission decision. One agent serves one session; turns are strictly
// sequential and the agent is not safe for concurrent use.
type Agent struct {
	username    string
	role        policy.Role
	generator   llm.Generator
	tool        Tool
	auditLog    *audit.Log
	logger      zerolog.Logger
	system      string
	maxIters    int
	callTimeout time.Duration

	messages    []llm.Message
	lastAllowed bool
}

// New creates a session agent for the given role.
func New(cfg Config) (*Agent, error) {
	if cfg.Generator == nil {
		return nil, errors.New("agent: generator is required")
	}
	if cfg.Tool == nil {
		return nil, errors.New("agent: tool is required")
	}
	if cfg.Audit == nil {
		return nil, errors.New("agent: audit log is required")
	}
	if _, _, err := describeRole(cfg.Role); err != nil {
		return nil, err
	}

	maxIters := cfg.MaxToolIterations
	if maxIters <= 0 {
		maxIters = defaultMaxToolIterations
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &Agent{
		username:    cfg.Username,
		role:        cfg.Role,
		generator:   cfg.Generator,
		tool:        cfg.Tool,
		auditLog:    cfg.Audit,
		logger:      cfg.Logger.With().Str("component", "agent").Str("role", string(cfg.Role)).Logger(),
		system:      SystemPrompt(cfg.Role),
		maxIters:    maxIters,
		callTimeout: timeout,
	}, nil
}

// describeRole verifies the role exists in the policy table. An unknown role
// here is a configuration bug: authenticated sessions draw from the same
// enumeration the policy is keyed by.
func describeRole(role policy.Role) ([]string, bool, error) {
	fields, all := policy.AllowedFields(role)
	if fields == nil && !all {
		return nil, false, fmt.Errorf("agent: no policy entry for role %q", role)
	}
	return fields, all, nil
}

// Role returns the session role.
func (a *Agent) Role() policy.Role { return a.role }

// Messages returns a snapshot of the conversation history.
func (a *Agent) Messages() []llm.Message {
	out := make([]llm.Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// LastAllowed reports the most recent permission-check result.
func (a *Agent) LastAllowed() bool { return a.lastAllowed }

// HandleInput runs one full turn for the given user input and returns the
// reply text to surface. Collaborator failures and the tool-loop cap come
// back as errors; callers print them and keep the session alive.
func (a *Agent) HandleInput(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(input)

	// Supervisor audit view bypasses the permission machinery entirely and
	// does not touch the conversation state or the log itself.
	if a.role == policy.RoleSupervisor && strings.EqualFold(query, auditLogCommand) {
		return a.auditLog.Render(), nil
	}

	// Criticality is recorded before and independent of the allow/deny
	// branch: a denied critical query still leaves a critical audit entry.
	if policy.ClassifyCriticality(query) == policy.CriticalityCritical {
		a.auditLog.Append(a.username, a.role, "Critical query: "+query, true)
		a.logger.Warn().Str("query", query).Msg("critical query")
	}

	allowed, err := policy.CheckPermission(a.role, query)
	if err != nil {
		// Unknown role: configuration bug, not a recoverable turn failure.
		return "", err
	}
	a.lastAllowed = allowed

	if !allowed {
		a.auditLog.Append(a.username, a.role, "Denied query: "+query, false)
		a.logger.Info().Str("query", query).Msg("query denied")
		denial := fmt.Sprintf("Access denied: As a %s, you do not have permission to access this information.", a.role)
		a.messages = append(a.messages, llm.UserMessage(query))
		a.messages = append(a.messages, llm.AssistantMessage(denial, nil))
		return denial, nil
	}

	a.messages = append(a.messages, llm.UserMessage(query))
	return a.toolLoop(ctx)
}

// toolLoop drives generator calls until a reply carries no tool requests or
// the iteration cap trips. Each tool call is resolved into exactly one tool
// result message matched by request ID.
func (a *Agent) toolLoop(ctx context.Context) (string, error) {
	tools := []llm.ToolSpec{a.tool.Spec()}

	for iter := 0; iter < a.maxIters; iter++ {
		reply, err := a.generate(ctx, tools)
		if err != nil {
			return "", err
		}

		if len(reply.ToolCalls) == 0 {
			a.messages = append(a.messages, llm.AssistantMessage(reply.Content, nil))
			return reply.Content, nil
		}

		a.messages = append(a.messages, llm.AssistantMessage(reply.Content, reply.ToolCalls))
		var toolErr error
		for _, call := range reply.ToolCalls {
			if toolErr != nil {
				// Every request still gets a result so the history stays
				// well-formed for the next turn.
				a.messages = append(a.messages, llm.ToolResultMessage(call.ID, "Tool call skipped: an earlier tool call in this turn failed."))
				continue
			}
			result, err := a.invokeTool(ctx, call.Query)
			if err != nil {
				toolErr = err
				a.messages = append(a.messages, llm.ToolResultMessage(call.ID, fmt.Sprintf("Tool call failed: %v", err)))
				continue
			}
			a.messages = append(a.messages, llm.ToolResultMessage(call.ID, result))
		}
		if toolErr != nil {
			return "", toolErr
		}
	}

	a.auditLog.Append(a.username, a.role, fmt.Sprintf("Tool loop aborted after %d iterations", a.maxIters), false)
	return "", fmt.Errorf("%w (%d iterations)", ErrToolLoopLimit, a.maxIters)
}

func (a *Agent) generate(ctx context.Context, tools []llm.ToolSpec) (*llm.Reply, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()
	reply, err := a.generator.Generate(callCtx, a.system, a.messages, tools)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	return reply, nil
}

func (a *Agent) invokeTool(ctx context.Context, query string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()
	return a.tool.Invoke(callCtx, query)
}
