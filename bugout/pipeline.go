package bugout

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bugout-ai/bugout/internal/bundle"
	"github.com/bugout-ai/bugout/internal/extract"
	"github.com/bugout-ai/bugout/internal/fixer"
	"github.com/bugout-ai/bugout/internal/fs"
	"github.com/bugout-ai/bugout/internal/github"
	"github.com/bugout-ai/bugout/internal/history"
	"github.com/bugout-ai/bugout/internal/llm"
	"github.com/bugout-ai/bugout/internal/reason"
	"github.com/bugout-ai/bugout/internal/report"
	"github.com/bugout-ai/bugout/internal/reviewer"
	"github.com/bugout-ai/bugout/internal/ui"
	"github.com/bugout-ai/bugout/internal/vcs"
	"github.com/bugout-ai/bugout/model"
)

// Upstream artifact file names. Each stage writes its artifact as soon as it
// completes, so a failed run still leaves everything produced so far.
const (
	artifactExtract  = "bugs_with_features.json"
	artifactPRD      = "prd.md"
	artifactAnalysis = "prd.analysis.json"
	artifactProposal = "bug_fix.json"
	artifactReviewer = "reviewer.json"
	artifactResponse = "agent_response.json"
	artifactPRBody   = "pr_description.md"
)

// runPipeline executes the full issue-to-patch flow.
func (a *App) runPipeline() (model.Summary, error) {
	ctx := context.Background()
	runID := uuid.NewString()
	startedAt := time.Now()

	outDir := a.cfg.OutputDir
	if outDir == "" {
		outDir = filepath.Join(a.conf.OutputRoot,
			strings.ReplaceAll(a.cfg.Repo, "/", "_"), a.cfg.Issue)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return model.Summary{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Fetch the issue and its comment thread.
	a.progress(StepFetch, 0, 0)
	issue, rawIssue, err := github.FetchIssue(ctx, a.cfg.Repo, a.cfg.Issue)
	if err != nil {
		return model.Summary{}, err
	}
	issueArtifact := fmt.Sprintf("issue_%s_comments.json", a.cfg.Issue)
	if err := writeArtifact(outDir, issueArtifact, rawIssue); err != nil {
		return model.Summary{}, err
	}

	// Extract structured bug features from every text in the thread.
	extClient, err := llm.New(a.conf.Extractor)
	if err != nil {
		return model.Summary{}, fmt.Errorf("extractor provider: %w", err)
	}
	extractor := &extract.Extractor{
		Client: extClient,
		Progress: func(current, total int) {
			a.progress(StepExtract, current, total)
		},
	}
	result, err := extractor.Run(ctx, issue)
	if err != nil {
		return model.Summary{}, err
	}
	if err := writeJSONArtifact(outDir, artifactExtract, result); err != nil {
		return model.Summary{}, err
	}

	// Aggregate the reports into a requirements document.
	a.progress(StepReport, 0, 0)
	analysis := report.Analyze(result)
	prd := report.Render(analysis)
	if err := writeArtifact(outDir, artifactPRD, []byte(prd)); err != nil {
		return model.Summary{}, err
	}
	if err := writeJSONArtifact(outDir, artifactAnalysis, analysis); err != nil {
		return model.Summary{}, err
	}

	// Ask the model for a high-level fix proposal.
	a.progress(StepPropose, 0, 0)
	reasonClient, err := llm.New(a.conf.Reasoner)
	if err != nil {
		return model.Summary{}, fmt.Errorf("reasoner provider: %w", err)
	}
	fx := &fixer.Fixer{Client: reasonClient}
	proposal, err := fx.Propose(ctx, prd, analysis)
	if err != nil {
		return model.Summary{}, err
	}
	if err := writeJSONArtifact(outDir, artifactProposal, proposal); err != nil {
		return model.Summary{}, err
	}

	// Scout the issue commenters for a qualified reviewer. Best effort: a
	// missing API key or a dead endpoint never sinks the run.
	bestReviewer := a.scoutReviewers(ctx, issue, outDir)

	// Clone the target repository and run the edit-list reasoning pass.
	a.progress(StepClone, 0, 0)
	clonePath, err := vcs.Clone(ctx, a.cfg.Repo, outDir)
	if err != nil {
		return model.Summary{}, err
	}

	a.progress(StepReason, 0, 0)
	rs := &reason.Reasoner{Client: reasonClient}
	resp, rawResp, err := rs.Run(ctx, clonePath, prd, proposal)
	if err != nil {
		return model.Summary{}, err
	}
	if err := writeArtifact(outDir, artifactResponse, rawResp); err != nil {
		return model.Summary{}, err
	}

	if a.cfg.DryRun {
		return a.dryRun(clonePath, resp.Changes)
	}

	// Apply the edits and emit the patch artifacts.
	a.progress(StepApply, 0, len(resp.Changes))
	extra := map[string]any{
		"confidence": resp.Confidence,
		"analysis":   resp.Analysis,
		"testing":    resp.Testing,
	}
	summary, err := a.ApplyEdits(clonePath, resp.Changes, extra, outDir)
	if err != nil {
		return model.Summary{}, err
	}
	a.progress(StepApply, len(resp.Changes), len(resp.Changes))

	// Bundle everything reviewers need into the patch folder.
	a.progress(StepBundle, 0, 0)
	prBody := bundle.PRDescription(a.cfg.Issue, bestReviewer, prd)
	if err := writeArtifact(outDir, artifactPRBody, []byte(prBody)); err != nil {
		return model.Summary{}, err
	}
	builder := &bundle.Builder{OutputDir: outDir, RunID: runID}
	folder, err := builder.Collect([]string{
		issueArtifact,
		artifactExtract,
		artifactPRD,
		artifactAnalysis,
		artifactProposal,
		artifactReviewer,
		artifactResponse,
		artifactPRBody,
		artifactSynthetic,
		artifactGitPatch,
		artifactLog,
	})
	if err != nil {
		return model.Summary{}, err
	}
	if err := fs.CopyTree(clonePath, filepath.Join(folder, bundle.SnapshotDir), ".git"); err != nil {
		return model.Summary{}, fmt.Errorf("failed to snapshot the clone: %w", err)
	}

	a.recordRun(ctx, history.Run{
		RunID:        runID,
		Repo:         a.cfg.Repo,
		Issue:        a.cfg.Issue,
		Applied:      summary.Applied,
		Total:        summary.Total,
		Confidence:   resp.Confidence,
		BestReviewer: bestReviewer,
		OutputDir:    outDir,
		StartedAt:    startedAt,
		FinishedAt:   time.Now(),
	})

	summary.Message = fmt.Sprintf("Applied %d/%d changes. Patch folder: %s", summary.Applied, summary.Total, folder)
	return summary, nil
}

// scoutReviewers checks the issue commenters against the reviewer-research
// service. Returns the best reviewer's username, or "" when scouting was
// skipped or found no one.
func (a *App) scoutReviewers(ctx context.Context, issue *github.Issue, outDir string) string {
	if a.conf.ReviewerAPI == "" || a.conf.ReviewerKey() == "" {
		ui.Warning("Reviewer scouting skipped: no endpoint or API key configured.")
		return ""
	}
	candidates := issue.Commenters()
	if len(candidates) == 0 {
		return ""
	}

	a.progress(StepReviewers, 0, len(candidates))
	client := &reviewer.Client{BaseURL: a.conf.ReviewerAPI, APIKey: a.conf.ReviewerKey()}
	rep := client.CheckCandidates(ctx, a.cfg.Repo, candidates, a.cfg.WaitReviewers)
	a.progress(StepReviewers, len(candidates), len(candidates))

	if err := writeJSONArtifact(outDir, artifactReviewer, rep); err != nil {
		ui.Warning("Failed to write reviewer report: %v", err)
	}
	return rep.BestReviewer
}

// recordRun appends the run to the local history database. History is an
// index, not an artifact: failures only warn.
func (a *App) recordRun(ctx context.Context, run history.Run) {
	store, err := history.Open(a.conf.HistoryDB)
	if err != nil {
		ui.Warning("Run history unavailable: %v", err)
		return
	}
	defer store.Close()

	if err := store.Record(ctx, run); err != nil {
		ui.Warning("Failed to record run: %v", err)
	}
}

// listHistory handles --history.
func (a *App) listHistory() (model.Summary, error) {
	store, err := history.Open(a.conf.HistoryDB)
	if err != nil {
		return model.Summary{}, err
	}
	defer store.Close()

	runs, err := store.List(context.Background(), a.cfg.Repo, a.cfg.Issue, 20)
	if err != nil {
		return model.Summary{}, err
	}
	if len(runs) == 0 {
		return model.Summary{Message: "No recorded runs."}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recent runs for %s:\n", a.cfg.Repo)
	for _, r := range runs {
		fmt.Fprintf(&b, "  %s  issue %-6s  applied %d/%d  %s\n",
			r.FinishedAt.Format("2006-01-02 15:04"), r.Issue, r.Applied, r.Total, r.OutputDir)
	}
	return model.Summary{Message: strings.TrimRight(b.String(), "\n")}, nil
}

func writeJSONArtifact(dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return writeArtifact(dir, name, data)
}
