// Package fixer asks the reasoning model for a first-pass fix: root cause,
// fix description and coarse code changes. The clone/reasoning stage refines
// this into the line-level edit list that actually gets applied.
package fixer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bugout-ai/bugout/internal/llm"
	"github.com/bugout-ai/bugout/internal/parser"
	"github.com/bugout-ai/bugout/internal/report"
)

const systemPrompt = "You are an expert software engineer. You output strict JSON with code fixes. " +
	"You are not conversational."

// CodeChange is one coarse change suggested by the proposal.
type CodeChange struct {
	File    string `json:"file"`
	Action  string `json:"action"` // modify | create | delete
	OldCode string `json:"old_code,omitempty"`
	NewCode string `json:"new_code,omitempty"`
}

// Proposal is the fix-proposal artifact (bug_fix.json).
type Proposal struct {
	RootCause           string       `json:"root_cause"`
	FixDescription      string       `json:"fix_description"`
	CodeChanges         []CodeChange `json:"code_changes,omitempty"`
	TestingInstructions string       `json:"testing_instructions,omitempty"`
}

// Fixer runs the proposal call.
type Fixer struct {
	Client llm.Client
}

// Propose builds the prompt from the requirements document and analysis and
// parses the model's JSON reply.
func (f *Fixer) Propose(ctx context.Context, prd string, analysis *report.Analysis) (*Proposal, error) {
	reply, err := f.Client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(prd, analysis),
		Temperature: 0.2,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, fmt.Errorf("fix proposal call failed: %w", err)
	}

	payload, err := parser.ExtractJSON(reply)
	if err != nil {
		return nil, fmt.Errorf("fix proposal reply: %w", err)
	}
	var proposal Proposal
	if err := json.Unmarshal([]byte(payload), &proposal); err != nil {
		return nil, fmt.Errorf("fix proposal reply is not valid JSON: %w", err)
	}
	if strings.TrimSpace(proposal.RootCause) == "" {
		return nil, fmt.Errorf("fix proposal is missing a root cause")
	}
	return &proposal, nil
}

func buildPrompt(prd string, analysis *report.Analysis) string {
	var b strings.Builder

	b.WriteString("You are an expert software engineer tasked with fixing a bug.\n\n")
	b.WriteString("## PRD (Product Requirements Document)\n")
	b.WriteString(prd)
	fmt.Fprintf(&b, "\n\n## Bug Reports Summary\nTotal reports: %d\n\n", analysis.TotalReports)

	b.WriteString("### Technical Descriptions from Users:\n")
	for i, desc := range head(analysis.TextAggregate["technical_description"], 5) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, desc)
	}
	b.WriteString("\n### Expected Behaviour:\n")
	for i, exp := range head(analysis.TextAggregate["expected_behaviour"], 5) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, exp)
	}

	b.WriteString(`
## Your Task
1. Analyze the bug reports and PRD
2. Identify the root cause
3. Propose a fix with code changes
4. Provide a clear explanation

## Output Format
Respond with a JSON object:
{
    "root_cause": "Description of the root cause",
    "fix_description": "Description of the fix",
    "code_changes": [
        {
            "file": "path/to/file",
            "action": "modify|create|delete",
            "old_code": "...",
            "new_code": "..."
        }
    ],
    "testing_instructions": "How to test the fix"
}
`)
	return b.String()
}

func head(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
