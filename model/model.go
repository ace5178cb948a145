package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ChangeType identifies what kind of mutation a ProposedEdit describes.
type ChangeType string

const (
	ReplaceRange ChangeType = "replace-range"
	Insert       ChangeType = "insert"
	DeleteRange  ChangeType = "delete-range"
	CreateFile   ChangeType = "create-file"
	DeleteFile   ChangeType = "delete-file"
)

// ProposedEdit is one model-proposed change to a file in the working tree.
// It is produced by the reasoning stage and is read-only from then on.
// Line numbers are 1-indexed and inclusive; 0 means "not set".
type ProposedEdit struct {
	File        string     `json:"file"`
	Type        ChangeType `json:"type"`
	StartLine   int        `json:"start_line,omitempty"`
	EndLine     int        `json:"end_line,omitempty"`
	NewContent  string     `json:"new_content,omitempty"`
	Description string     `json:"description,omitempty"`
}

// HasContent reports whether the change type carries replacement text.
func (t ChangeType) HasContent() bool {
	switch t {
	case ReplaceRange, Insert, CreateFile:
		return true
	}
	return false
}

// Validate checks the structural invariants of a single edit.
func (e ProposedEdit) Validate() error {
	if strings.TrimSpace(e.File) == "" {
		return fmt.Errorf("missing file path")
	}

	switch e.Type {
	case ReplaceRange, DeleteRange:
		if e.StartLine < 1 {
			return fmt.Errorf("%s requires start_line", e.Type)
		}
		if e.EndLine < 1 {
			return fmt.Errorf("%s requires end_line", e.Type)
		}
		if e.EndLine < e.StartLine {
			return fmt.Errorf("end_line %d is before start_line %d", e.EndLine, e.StartLine)
		}
	case Insert:
		if e.StartLine < 1 {
			return fmt.Errorf("insert requires start_line")
		}
	case CreateFile, DeleteFile:
		// Line numbers are meaningless for whole-file changes.
	case "":
		return fmt.Errorf("missing change type")
	default:
		return fmt.Errorf("unknown change type %q", e.Type)
	}

	if e.Type.HasContent() && e.NewContent == "" {
		return fmt.Errorf("%s requires new_content", e.Type)
	}
	if !e.Type.HasContent() && e.NewContent != "" {
		return fmt.Errorf("%s must not carry new_content", e.Type)
	}
	return nil
}

// DecodeEdits parses and validates an ordered edit list. Any malformed entry
// fails the whole list: partial validation would leave the working tree in an
// ambiguous state once applying starts.
func DecodeEdits(data []byte) ([]ProposedEdit, error) {
	var edits []ProposedEdit
	if err := json.Unmarshal(data, &edits); err != nil {
		return nil, fmt.Errorf("edit list is not valid JSON: %w", err)
	}
	for i, e := range edits {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("edit %d (%s): %w", i+1, e.File, err)
		}
	}
	return edits, nil
}

// ApplicationResult records the outcome of one ProposedEdit. Results are
// created in input order, exactly one per edit, and are immutable afterward.
type ApplicationResult struct {
	Edit      ProposedEdit
	Index     int
	Succeeded bool
	Error     string
	AppliedAt time.Time

	// OldLines is the pre-image of the affected line range, captured before
	// the file was mutated. The synthetic diff is built from this so it never
	// has to re-read the tree. Nil when the range could not be read.
	OldLines []string
}

// PatchFormat names one of the two diff representations the emitter produces.
type PatchFormat string

const (
	FormatSynthetic PatchFormat = "unified-synthetic"
	FormatGitNative PatchFormat = "git-native"
)

// PatchArtifact is one emitted diff. Source names what the diff was derived
// from: the application results for the synthetic form, live git state for
// the native form.
type PatchArtifact struct {
	Format  PatchFormat
	Content string
	Source  string
}

// Summary holds per-run counts for display.
type Summary struct {
	Applied  int
	Total    int
	Created  []string
	Modified []string
	Deleted  []string
	Failed   []string
	Message  string
}
