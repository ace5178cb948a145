package bugout

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bugout-ai/bugout/internal/fs"
	"github.com/bugout-ai/bugout/internal/patch"
	"github.com/bugout-ai/bugout/internal/source"
	"github.com/bugout-ai/bugout/internal/vcs"
	"github.com/bugout-ai/bugout/model"
)

// Patch artifact file names, shared by the full pipeline and apply-only mode.
const (
	artifactSynthetic = "generated.patch"
	artifactGitPatch  = "git.patch"
	artifactLog       = "applied_changes.json"
)

// ApplyEdits applies the edit list to the working tree and emits the three
// patch artifacts into outDir: the synthetic diff built from the edits
// themselves, the git-native diff of the mutated tree, and the application
// log. Individual edit failures are recorded, never fatal; only missing
// trees and artifact write failures abort.
func (a *App) ApplyEdits(tree string, edits []model.ProposedEdit, extra map[string]any, outDir string) (model.Summary, error) {
	if _, err := os.Stat(tree); err != nil {
		return model.Summary{}, fmt.Errorf("working tree unavailable: %w", err)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return model.Summary{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := patch.Apply(tree, edits)

	// The tree may not be a repository in apply-only mode; the git-native
	// artifact is then empty rather than missing.
	native := ""
	if vcs.IsRepo(tree) {
		native, _ = vcs.Git{}.DiffAgainstHead(tree)
	}

	artifacts := []model.PatchArtifact{
		{Format: model.FormatSynthetic, Content: patch.SyntheticDiff(results), Source: "application results"},
		{Format: model.FormatGitNative, Content: native, Source: "git state"},
	}
	names := map[model.PatchFormat]string{
		model.FormatSynthetic: artifactSynthetic,
		model.FormatGitNative: artifactGitPatch,
	}
	for _, art := range artifacts {
		if err := writeArtifact(outDir, names[art.Format], []byte(art.Content)); err != nil {
			return model.Summary{}, err
		}
	}

	logData, err := patch.BuildLog(results, extra)
	if err != nil {
		return model.Summary{}, fmt.Errorf("failed to build application log: %w", err)
	}
	if err := writeArtifact(outDir, artifactLog, logData); err != nil {
		return model.Summary{}, err
	}

	return summarize(results), nil
}

// applyFromSource handles --apply-only: the edit list comes from a file,
// piped stdin or the clipboard instead of the reasoning stage.
func (a *App) applyFromSource() (model.Summary, error) {
	raw, err := source.ReadEditList(a.cfg.EditsPath)
	if err != nil {
		return model.Summary{}, err
	}
	edits, err := model.DecodeEdits(raw)
	if err != nil {
		return model.Summary{}, fmt.Errorf("invalid edit list: %w", err)
	}
	if len(edits) == 0 {
		return model.Summary{Message: "Edit list is empty. Nothing to apply."}, nil
	}

	if a.cfg.DryRun {
		return a.dryRun(a.cfg.WorkingTree, edits)
	}

	outDir := a.cfg.OutputDir
	if outDir == "" {
		outDir = "."
	}

	a.progress(StepApply, 0, len(edits))
	summary, err := a.ApplyEdits(a.cfg.WorkingTree, edits, nil, outDir)
	a.progress(StepApply, len(edits), len(edits))
	return summary, err
}

// dryRun applies the edits against a throwaway copy of the tree and prints
// the synthetic diff to stdout. The original tree is never touched.
func (a *App) dryRun(tree string, edits []model.ProposedEdit) (model.Summary, error) {
	tmp, err := os.MkdirTemp("", "bugout-dry-")
	if err != nil {
		return model.Summary{}, err
	}
	defer os.RemoveAll(tmp)

	if err := fs.CopyTree(tree, tmp, ".git"); err != nil {
		return model.Summary{}, fmt.Errorf("failed to stage dry-run copy: %w", err)
	}

	results := patch.Apply(tmp, edits)
	fmt.Print(patch.SyntheticDiff(results))

	summary := summarize(results)
	summary.Message = fmt.Sprintf("Dry run: %d/%d changes would apply.", summary.Applied, summary.Total)
	return summary, nil
}

// summarize folds per-edit results into display counts. A file modified by
// several edits is listed once.
func summarize(results []model.ApplicationResult) model.Summary {
	s := model.Summary{
		Applied: patch.CountApplied(results),
		Total:   len(results),
	}

	seen := make(map[string]struct{}, len(results))
	for _, res := range results {
		if !res.Succeeded {
			s.Failed = append(s.Failed, fmt.Sprintf("%s: %s", res.Edit.File, res.Error))
			continue
		}
		switch res.Edit.Type {
		case model.CreateFile:
			s.Created = append(s.Created, res.Edit.File)
		case model.DeleteFile:
			s.Deleted = append(s.Deleted, res.Edit.File)
		default:
			if _, ok := seen[res.Edit.File]; !ok {
				seen[res.Edit.File] = struct{}{}
				s.Modified = append(s.Modified, res.Edit.File)
			}
		}
	}

	s.Message = fmt.Sprintf("Applied %d/%d changes.", s.Applied, s.Total)
	return s
}

func writeArtifact(dir, name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
