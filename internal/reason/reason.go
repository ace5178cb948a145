// Package reason runs the reasoning pass over a cloned repository: it shows
// the model the requirements document, the first-pass proposal and the
// relevant source, and asks for the line-level edit list the patch applier
// consumes.
package reason

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bugout-ai/bugout/internal/fixer"
	"github.com/bugout-ai/bugout/internal/llm"
	"github.com/bugout-ai/bugout/internal/parser"
	"github.com/bugout-ai/bugout/model"
)

const systemPrompt = "You are an expert software engineer agent. You output strict JSON with code " +
	"fixes. You are not conversational. Always respond with valid JSON only."

var sourceExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".ts": {}, ".tsx": {}, ".rs": {}, ".go": {},
	".java": {}, ".c": {}, ".cpp": {}, ".h": {}, ".hpp": {},
}

const (
	maxSampleFiles   = 20
	maxFileBytes     = 10000
	maxPromptedFiles = 10
)

// Analysis is the model's stated understanding of the bug.
type Analysis struct {
	RootCause     string   `json:"root_cause"`
	AffectedFiles []string `json:"affected_files,omitempty"`
	FixStrategy   string   `json:"fix_strategy,omitempty"`
}

// Testing carries the model's verification guidance, passed through opaque
// to the application log.
type Testing struct {
	UnitTests          string `json:"unit_tests,omitempty"`
	IntegrationTests   string `json:"integration_tests,omitempty"`
	ManualVerification string `json:"manual_verification,omitempty"`
}

// Response is the reasoning artifact (agent_response.json): the validated
// edit list plus analysis context.
type Response struct {
	Analysis   Analysis             `json:"analysis"`
	Changes    []model.ProposedEdit `json:"changes"`
	Testing    Testing              `json:"testing"`
	Confidence float64              `json:"confidence"`
}

// sourceFile is one file shown to the model.
type sourceFile struct {
	Path    string
	Content string
}

// Reasoner drives the reasoning call against a clone.
type Reasoner struct {
	Client llm.Client
}

// Run summarizes the clone, prompts the model and validates the returned
// edit list. Validation failures are fatal for the whole list: applying
// half-validated edits would leave the tree in an ambiguous state.
func (r *Reasoner) Run(ctx context.Context, clonePath, prd string, proposal *fixer.Proposal) (*Response, []byte, error) {
	structure, err := Structure(clonePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to summarize clone: %w", err)
	}
	files := relevantFiles(clonePath, prd, proposal)

	reply, err := r.Client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(prd, proposal, structure, files),
		Temperature: 0.1,
		MaxTokens:   4096,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("reasoning call failed: %w", err)
	}

	payload, err := parser.ExtractJSON(reply)
	if err != nil {
		return nil, nil, fmt.Errorf("reasoning reply: %w", err)
	}
	var resp Response
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, nil, fmt.Errorf("reasoning reply is not valid JSON: %w", err)
	}
	for i, edit := range resp.Changes {
		if err := edit.Validate(); err != nil {
			return nil, nil, fmt.Errorf("proposed edit %d (%s): %w", i+1, edit.File, err)
		}
	}

	raw, err := json.MarshalIndent(&resp, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &resp, raw, nil
}

// Structure summarizes the clone: file counts per extension and a sample of
// source paths.
func Structure(root string) (string, error) {
	counts := make(map[string]int)
	var sample []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable entries are not interesting
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if _, ok := sourceExtensions[ext]; !ok {
			return nil
		}
		counts[ext]++
		if len(sample) < maxSampleFiles {
			if rel, err := filepath.Rel(root, path); err == nil {
				sample = append(sample, rel)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	var b strings.Builder
	b.WriteString("File counts by type:\n")
	for _, ext := range exts {
		fmt.Fprintf(&b, "  %s: %d\n", ext, counts[ext])
	}
	b.WriteString("\nSample files:\n")
	for _, f := range sample {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	return b.String(), nil
}

// relevantFiles picks the source files most likely involved: first any file
// the proposal or the requirements document names, then a fill of source
// files up to the prompt budget.
func relevantFiles(root, prd string, proposal *fixer.Proposal) []sourceFile {
	wanted := make(map[string]struct{})
	if proposal != nil {
		for _, ch := range proposal.CodeChanges {
			wanted[filepath.Base(strings.TrimSpace(ch.File))] = struct{}{}
		}
	}
	for _, word := range strings.Fields(strings.ToLower(prd)) {
		word = strings.Trim(word, "`*:,()[]")
		if strings.Contains(word, ".") && len(word) > 3 {
			wanted[filepath.Base(word)] = struct{}{}
		}
	}

	var named, rest []sourceFile
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			if err == nil && info.IsDir() && info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := sourceExtensions[filepath.Ext(path)]; !ok {
			return nil
		}
		if info.Size() < 100 || info.Size() > 50000 {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		content := string(data)
		if len(content) > maxFileBytes {
			content = content[:maxFileBytes]
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		sf := sourceFile{Path: rel, Content: content}
		if _, ok := wanted[strings.ToLower(filepath.Base(path))]; ok {
			named = append(named, sf)
		} else if len(rest) < maxPromptedFiles {
			rest = append(rest, sf)
		}
		return nil
	})

	files := append(named, rest...)
	if len(files) > maxPromptedFiles {
		files = files[:maxPromptedFiles]
	}
	return files
}

func buildPrompt(prd string, proposal *fixer.Proposal, structure string, files []sourceFile) string {
	var b strings.Builder

	b.WriteString("You are an expert software engineer agent. Your task is to analyze a bug and generate a precise code fix.\n\n")
	b.WriteString("## Context\n\n### Product Requirements Document (PRD)\n")
	b.WriteString(prd)

	if proposal != nil {
		b.WriteString("\n\n### Previous Bug Fix Analysis\n")
		fmt.Fprintf(&b, "Root Cause: %s\n", proposal.RootCause)
		fmt.Fprintf(&b, "Fix Description: %s\n", proposal.FixDescription)
		if proposal.TestingInstructions != "" {
			fmt.Fprintf(&b, "Testing Instructions: %s\n", proposal.TestingInstructions)
		}
	}

	b.WriteString("\n### Repository Structure\n")
	b.WriteString(structure)

	b.WriteString("\n### Relevant Source Files\n")
	for i, f := range files {
		lang := strings.TrimPrefix(filepath.Ext(f.Path), ".")
		fmt.Fprintf(&b, "\n#### File %d: %s\n```%s\n%s\n```\n", i+1, f.Path, lang, f.Content)
	}

	b.WriteString(`
## Your Task

1. Identify the root cause in the codebase
2. Design a minimal, targeted fix
3. Output the exact line-level changes needed

## Output Format

Respond with a JSON object:

{
    "analysis": {
        "root_cause": "Detailed explanation of the root cause",
        "affected_files": ["list", "of", "affected", "files"],
        "fix_strategy": "Description of the fix approach"
    },
    "changes": [
        {
            "file": "path/relative/to/repo/root",
            "type": "replace-range|insert|delete-range|create-file|delete-file",
            "start_line": 42,
            "end_line": 55,
            "new_content": "replacement text",
            "description": "Why this change fixes the bug"
        }
    ],
    "testing": {
        "unit_tests": "...",
        "integration_tests": "...",
        "manual_verification": "..."
    },
    "confidence": 0.95
}

## Guidelines

1. Line numbers are 1-indexed and inclusive
2. "replace-range" and "delete-range" need start_line and end_line; "insert" splices before start_line
3. "new_content" is required for replace-range, insert and create-file, and forbidden otherwise
4. Minimize the scope of changes - only fix what's necessary
5. Preserve existing code style and conventions

Begin your analysis now.
`)
	return b.String()
}
