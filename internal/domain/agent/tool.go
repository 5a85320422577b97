package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sasilab/medbot/internal/domain/policy"
	"github.com/sasilab/medbot/internal/platform/llm"
	"github.com/sasilab/medbot/internal/platform/vectorstore"
)

// ToolName is the single retrieval tool declared to the generator.
const ToolName = "medical_rag_tool"

// toolDeniedMessage is returned by the tool when its own re-validation
// refuses the query.
const toolDeniedMessage = "Access denied: You are not allowed to view this information."

// Tool resolves one tool-call request into result text.
type Tool interface {
	Spec() llm.ToolSpec
	Invoke(ctx context.Context, query string) (string, error)
}

// RetrievalTool adapts the vector store into a generator tool bound to the
// session role's allowed fields. The tool re-validates every query against
// the same canonical keyword set used by the outer permission check, so a
// generator that rewrites the query cannot widen the session's access.
type RetrievalTool struct {
	searcher vectorstore.Searcher
	fields   []string
	all      bool
	topK     int
}

// NewRetrievalTool binds searcher to role's allowed-field keywords.
func NewRetrievalTool(searcher vectorstore.Searcher, role policy.Role, topK int) *RetrievalTool {
	fields, all := policy.AllowedFields(role)
	return &RetrievalTool{searcher: searcher, fields: fields, all: all, topK: topK}
}

// Spec implements Tool.
func (t *RetrievalTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name: ToolName,
		Description: "Retrieve allowed patient information from hospital records. " +
			"Only answers questions about fields permitted for the current role.",
	}
}

// Invoke implements Tool. Queries failing re-validation return an
// access-denied string without touching the retriever. Retriever failures
// propagate as errors for the agent to downgrade.
func (t *RetrievalTool) Invoke(ctx context.Context, query string) (string, error) {
	if !t.permitted(query) {
		return toolDeniedMessage, nil
	}

	docs, err := t.searcher.Search(ctx, query, t.topK)
	if err != nil {
		return "", fmt.Errorf("retriever: %w", err)
	}
	if len(docs) == 0 {
		return "No matching patient records found.", nil
	}

	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	return strings.Join(parts, "\n\n"), nil
}

// permitted reports whether the tool query matches the session's allowed
// fields. ALL-access roles pass unconditionally; the outer permission check
// has already applied their deny set.
func (t *RetrievalTool) permitted(query string) bool {
	if t.all {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range t.fields {
		if strings.Contains(q, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
