// Package bundle assembles the reviewer-facing patch folder from the
// artifacts the pipeline stages produced.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bugout-ai/bugout/internal/fs"
)

// Artifact names inside the patch folder.
const (
	ManifestName = "patch_manifest.json"
	SnapshotDir  = "repo_snapshot"
)

// Manifest is the patch_manifest.json document. Checksums let a reviewer
// verify an artifact was not altered between generation and review.
type Manifest struct {
	RunID     string            `json:"run_id,omitempty"`
	Artifacts []string          `json:"artifacts"`
	Checksums map[string]string `json:"checksums,omitempty"`
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
}

// Builder collects artifacts into outputDir/patch.
type Builder struct {
	OutputDir string
	RunID     string
}

// Folder returns the patch folder path.
func (b *Builder) Folder() string {
	return filepath.Join(b.OutputDir, "patch")
}

// Collect copies each named artifact from the run output directory into the
// patch folder and writes the manifest. Missing optional artifacts are
// skipped silently; the manifest lists only what was actually bundled.
func (b *Builder) Collect(names []string) (string, error) {
	folder := b.Folder()
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", fmt.Errorf("failed to create patch folder: %w", err)
	}

	var bundled []string
	checksums := make(map[string]string)
	for _, name := range names {
		src := filepath.Join(b.OutputDir, name)
		data, err := os.ReadFile(src)
		if err != nil {
			continue
		}
		dst := filepath.Join(folder, name)
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return "", fmt.Errorf("failed to copy %s into patch folder: %w", name, err)
		}
		if sum, err := fs.GetFileSHA256(dst); err == nil {
			checksums[name] = sum
		}
		bundled = append(bundled, name)
	}

	manifest := Manifest{
		RunID:     b.RunID,
		Artifacts: bundled,
		Checksums: checksums,
		Status:    "ready_for_review",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(folder, ManifestName), raw, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return folder, nil
}

// PRDescription renders a pull-request body from the requirements document
// and reviewer recommendation.
func PRDescription(issueNumber, bestReviewer, prd string) string {
	if bestReviewer == "" {
		bestReviewer = "TBD"
	}
	return fmt.Sprintf(`# Fix for Issue #%s

## Summary
This PR addresses the bug described in issue #%s.

## Proposed Reviewer
@%s

## Changes
See attached patch for detailed changes.

## PRD Reference
A full Product Requirements Document has been generated based on analysis of all issue comments.

---

%s
`, issueNumber, issueNumber, bestReviewer, prd)
}
