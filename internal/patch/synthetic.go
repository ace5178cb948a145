package patch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bugout-ai/bugout/model"
)

// SyntheticDiff builds a unified diff purely from the edit list and the
// pre-images captured during the apply pass. It represents intent: every
// attempted edit gets a hunk, whether or not it landed on disk, so the diff
// is reproducible even after a partial failure. Files appear in edit-list
// order; hunks within a file are ordered by ascending start line. Edits
// carry line numbers in the file's evolving (post-splice) coordinates, so
// the new-side start is the edit's start line unshifted and the old-side
// start subtracts the cumulative line delta of the earlier applied hunks.
func SyntheticDiff(results []model.ApplicationResult) string {
	byFile := make(map[string][]model.ApplicationResult)
	var order []string
	for _, res := range results {
		if _, seen := byFile[res.Edit.File]; !seen {
			order = append(order, res.Edit.File)
		}
		byFile[res.Edit.File] = append(byFile[res.Edit.File], res)
	}

	var b strings.Builder
	for _, file := range order {
		writeFileDiff(&b, file, byFile[file])
	}
	return b.String()
}

func writeFileDiff(b *strings.Builder, file string, results []model.ApplicationResult) {
	if len(results) > 1 && results[0].Succeeded && results[0].Edit.Type == model.CreateFile {
		// A file created and then edited in the same run has no old side at
		// all; fold every hunk into one creation of the final content so the
		// diff stays consumable by a patch tool.
		writeCreatedFileDiff(b, file, results)
		return
	}

	sort.SliceStable(results, func(i, j int) bool {
		return hunkSortKey(results[i].Edit) < hunkSortKey(results[j].Edit)
	})

	switch results[0].Edit.Type {
	case model.CreateFile:
		fmt.Fprintf(b, "--- /dev/null\n+++ b/%s\n", file)
	case model.DeleteFile:
		fmt.Fprintf(b, "--- a/%s\n+++ /dev/null\n", file)
	default:
		fmt.Fprintf(b, "--- a/%s\n+++ b/%s\n", file, file)
	}

	offset := 0
	for _, res := range results {
		delta := writeHunk(b, res, offset)
		if res.Succeeded {
			// Only landed edits shifted the coordinates of the edits after
			// them.
			offset += delta
		}
	}
}

// writeCreatedFileDiff replays a create-then-edit sequence to the file's final
// line content and emits it as a single creation hunk. Failed edits left no
// trace on disk and are skipped.
func writeCreatedFileDiff(b *strings.Builder, file string, results []model.ApplicationResult) {
	var lines []string
	deleted := false
	for _, res := range results {
		if !res.Succeeded {
			continue
		}
		switch res.Edit.Type {
		case model.CreateFile:
			lines, _, _ = splitLines(res.Edit.NewContent)
			deleted = false
		case model.DeleteFile:
			lines = nil
			deleted = true
		default:
			lines = spliceReplay(lines, res.Edit)
		}
	}
	if deleted {
		// Created and removed within the run: no net change to record.
		return
	}
	fmt.Fprintf(b, "--- /dev/null\n+++ b/%s\n", file)
	fmt.Fprintf(b, "@@ -0,0 +1,%d @@\n", len(lines))
	for _, line := range lines {
		fmt.Fprintf(b, "+%s\n", line)
	}
}

// spliceReplay re-runs one line splice on an in-memory copy of the file. The
// edit already applied on disk, so its coordinates are known to be in range.
func spliceReplay(lines []string, edit model.ProposedEdit) []string {
	at := edit.StartLine - 1
	remove := 0
	if edit.Type != model.Insert {
		remove = edit.EndLine - edit.StartLine + 1
	}
	var insert []string
	if edit.Type != model.DeleteRange {
		insert = strings.Split(edit.NewContent, "\n")
	}
	out := make([]string, 0, len(lines)-remove+len(insert))
	out = append(out, lines[:at]...)
	out = append(out, insert...)
	out = append(out, lines[at+remove:]...)
	return out
}

func hunkSortKey(e model.ProposedEdit) int {
	switch e.Type {
	case model.CreateFile, model.DeleteFile:
		return 0
	}
	return e.StartLine
}

// writeHunk emits one zero-context hunk for an attempted edit and returns the
// line delta it contributes to the file's running offset.
func writeHunk(b *strings.Builder, res model.ApplicationResult, offset int) int {
	edit := res.Edit

	var oldLines, newLines []string
	if res.OldLines != nil {
		oldLines = res.OldLines
	}
	switch {
	case edit.Type == model.CreateFile:
		newLines, _, _ = splitLines(edit.NewContent)
	case edit.Type.HasContent():
		newLines = strings.Split(edit.NewContent, "\n")
	}

	var oldStart, newStart int
	switch edit.Type {
	case model.CreateFile:
		oldStart, newStart = 0, 1
	case model.DeleteFile:
		oldStart, newStart = 1, 0
		if len(oldLines) == 0 {
			// Nothing readable to remove; the header alone records intent.
			return 0
		}
	case model.Insert:
		oldStart = edit.StartLine - 1 - offset
		newStart = edit.StartLine
	case model.DeleteRange:
		oldStart = edit.StartLine - offset
		newStart = edit.StartLine - 1
	default: // replace-range
		oldStart = edit.StartLine - offset
		newStart = edit.StartLine
	}

	fmt.Fprintf(b, "@@ -%d,%d +%d,%d @@\n", oldStart, len(oldLines), newStart, len(newLines))
	for _, line := range oldLines {
		fmt.Fprintf(b, "-%s\n", line)
	}
	for _, line := range newLines {
		fmt.Fprintf(b, "+%s\n", line)
	}
	return len(newLines) - len(oldLines)
}
