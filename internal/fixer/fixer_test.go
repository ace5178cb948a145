package fixer

import (
	"context"
	"strings"
	"testing"

	"github.com/bugout-ai/bugout/internal/llm"
	"github.com/bugout-ai/bugout/internal/report"
)

type fakeClient struct {
	reply      string
	lastPrompt string
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.lastPrompt = req.Prompt
	return f.reply, nil
}

func sampleAnalysis() *report.Analysis {
	return &report.Analysis{
		TotalReports: 3,
		PrimaryBug:   "crash on export",
		TextAggregate: map[string][]string{
			"technical_description": {"segfault in exporter", "nil pointer in writer"},
			"expected_behaviour":    {"export completes"},
		},
	}
}

func TestPropose(t *testing.T) {
	client := &fakeClient{reply: "Here's my analysis:\n\n```json\n" +
		`{"root_cause": "unchecked nil writer", "fix_description": "guard the writer",
		  "code_changes": [{"file": "exporter.go", "action": "modify", "new_code": "if w == nil { return }"}],
		  "testing_instructions": "run export twice"}` + "\n```"}
	f := &Fixer{Client: client}

	proposal, err := f.Propose(context.Background(), "# PRD\nfix the crash", sampleAnalysis())
	if err != nil {
		t.Fatalf("Propose failed: %v", err)
	}

	if proposal.RootCause != "unchecked nil writer" {
		t.Errorf("RootCause = %q", proposal.RootCause)
	}
	if len(proposal.CodeChanges) != 1 || proposal.CodeChanges[0].File != "exporter.go" {
		t.Errorf("CodeChanges = %+v", proposal.CodeChanges)
	}

	// The prompt carries the PRD and the aggregated user evidence.
	for _, want := range []string{"# PRD\nfix the crash", "segfault in exporter", "export completes"} {
		if !strings.Contains(client.lastPrompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestProposeRejectsEmptyRootCause(t *testing.T) {
	f := &Fixer{Client: &fakeClient{reply: `{"fix_description": "something"}`}}

	_, err := f.Propose(context.Background(), "prd", sampleAnalysis())
	if err == nil || !strings.Contains(err.Error(), "root cause") {
		t.Fatalf("Expected root-cause error, got %v", err)
	}
}

func TestProposeRejectsNonJSON(t *testing.T) {
	f := &Fixer{Client: &fakeClient{reply: "I cannot help with that."}}

	if _, err := f.Propose(context.Background(), "prd", sampleAnalysis()); err == nil {
		t.Fatal("Expected error for reply without JSON")
	}
}
